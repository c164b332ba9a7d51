package models

import (
	"net/netip"
	"time"
)

// TargetInfo holds information about a target.
type TargetInfo struct {
	Raw string
	IP  netip.Addr
}

// ScanResult defines the JSON structure for a result of a scan.
type ScanResult struct {
	ID           uint      `json:"id,omitempty"`
	Target       string    `json:"target"`
	Duration     string    `json:"duration,omitempty"`
	OpenPorts    []uint16  `json:"open_ports"`
	NonOpenPorts []uint16  `json:"non_open_ports"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// SettingsAPI defines the possible configurations that end users can set.
type SettingsAPI struct {
	Config PortScannerConfig `json:"port_scanner"`
}

// PortScannerConfig defines the configuration parameters used to be used
// by the end-user to redefine settings. Values are in milliseconds.
type PortScannerConfig struct {
	Concurrency int `json:"concurrency"`
	Timeout     int `json:"timeout"`
	Deadline    int `json:"deadline"`
}
