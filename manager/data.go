package manager

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"go-portscout/database"
	"go-portscout/models"
)

var (
	ErrInvalidTarget   = errors.New("invalid target: an IPv4 address is required")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrNoStore         = errors.New("scan history is not enabled")
	ErrNotFound        = database.ErrNotFound
)

// Store persists scans and scanner settings.
type Store interface {
	SaveScan(data *database.ScanRecord) error
	ListScans(limit int) ([]database.ScanRecord, error)
	GetScan(id uint) (*database.ScanRecord, error)
	UpdateSettings(data database.PSConfig) error
	FetchSettings() (database.PSConfig, bool, error)
}

// ParseTargetInfo validates raw as a dotted IPv4 address.
func ParseTargetInfo(raw string) (models.TargetInfo, error) {
	raw = strings.TrimSpace(raw)
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return models.TargetInfo{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}
	if !ip.Is4() {
		return models.TargetInfo{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	return models.TargetInfo{
		Raw: raw,
		IP:  ip,
	}, nil
}

// validateSettings rejects values the scanner cannot run with.
func validateSettings(cfg models.PortScannerConfig) error {
	switch {
	case cfg.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidSettings)
	case cfg.Timeout < 1:
		return fmt.Errorf("%w: timeout must be at least 1ms", ErrInvalidSettings)
	case cfg.Deadline < 0:
		return fmt.Errorf("%w: deadline cannot be negative", ErrInvalidSettings)
	}
	return nil
}

func toResult(r *database.ScanRecord) models.ScanResult {
	return models.ScanResult{
		ID:           r.ID,
		Target:       r.Target,
		Duration:     (time.Duration(r.DurationMs) * time.Millisecond).String(),
		OpenPorts:    append([]uint16{}, r.OpenPorts...),
		NonOpenPorts: append([]uint16{}, r.NonOpenPorts...),
		CreatedAt:    r.CreatedAt,
	}
}
