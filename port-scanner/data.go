package port_scanner

import (
	"context"
	"errors"
	"net"
)

const (
	// DefaultConcurrency bounds outbound connection fan-out.
	DefaultConcurrency = 10
	// DefaultTimeout is the per-attempt connect timeout in milliseconds.
	DefaultTimeout = 3000
)

var (
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	ErrInvalidTarget      = errors.New("target must be an IPv4 address")
	ErrPoolUnavailable    = errors.New("worker pool unavailable")
)

// Config defines the configuration parameters used to be used
// by the end-user to redefine settings. Durations are in milliseconds.
type Config struct {
	Concurrency int `json:"concurrency" yaml:"concurrency"`
	Timeout     int `json:"timeout" yaml:"timeout"`
	Deadline    int `json:"deadline" yaml:"deadline"`
}

// Outcome is the classification of a single connect attempt.
type Outcome int

const (
	NonOpen Outcome = iota
	Open
)

func (o Outcome) String() string {
	if o == Open {
		return "open"
	}
	return "non-open"
}

// ScanResult partitions the scanned ports by outcome.
type ScanResult struct {
	OpenPorts    []uint16 `json:"open_ports"`
	NonOpenPorts []uint16 `json:"non_open_ports"`
}

// Total returns the number of ports classified.
func (r *ScanResult) Total() int {
	return len(r.OpenPorts) + len(r.NonOpenPorts)
}

// Dialer opens the connection used as a reachability probe.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
