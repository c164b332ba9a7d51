package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScanRecord is a persisted scan outcome.
type ScanRecord struct {
	gorm.Model
	Target       string                      `gorm:"column:target;index"`
	DurationMs   int64                       `gorm:"column:duration_ms"`
	OpenPorts    datatypes.JSONSlice[uint16] `gorm:"column:open_ports"`
	NonOpenPorts datatypes.JSONSlice[uint16] `gorm:"column:non_open_ports"`
}

// PSConfig holds the last applied port scanner settings.
type PSConfig struct {
	gorm.Model
	Concurrency int `gorm:"column:concurrency"`
	Timeout     int `gorm:"column:timeout"`
	Deadline    int `gorm:"column:deadline"`
}
