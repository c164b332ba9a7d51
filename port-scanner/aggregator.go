package port_scanner

import "slices"

// Aggregate collects ports from the open and non-open channels into a single
// ScanResult. It returns only once both channels are closed and drained, so
// it must be called after every producer is done.
func Aggregate(open, nonOpen <-chan uint16) *ScanResult {
	result := &ScanResult{
		OpenPorts:    []uint16{},
		NonOpenPorts: []uint16{},
	}

	for open != nil || nonOpen != nil {
		select {
		case port, ok := <-open:
			if !ok {
				open = nil
				continue
			}
			result.OpenPorts = append(result.OpenPorts, port)
		case port, ok := <-nonOpen:
			if !ok {
				nonOpen = nil
				continue
			}
			result.NonOpenPorts = append(result.NonOpenPorts, port)
		}
	}

	slices.Sort(result.OpenPorts)
	slices.Sort(result.NonOpenPorts)
	return result
}
