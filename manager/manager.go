package manager

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go-portscout/database"
	"go-portscout/models"
	ps "go-portscout/port-scanner"
	"go-portscout/ports"
)

// Manager validates targets, runs the port scanner over the port list
// and keeps scan history when a Store is configured.
type Manager struct {
	mu      sync.RWMutex
	scanner *ps.PortScanner
	ports   []uint16
	db      Store
}

// NewManager initializes a new *Manager. db may be nil, in which case
// nothing is persisted.
func NewManager(db Store, cfg ps.Config) *Manager {
	m := &Manager{
		scanner: ps.New(),
		ports:   ports.Default(),
		db:      db,
	}
	m.scanner.Configure(cfg)

	m.init()
	return m
}

// init applies the last persisted settings, if any.
func (m *Manager) init() {
	if m.db == nil {
		return
	}

	settings, found, err := m.db.FetchSettings()
	if err != nil {
		logrus.Errorf("failed to fetch settings: %v", err)
		return
	}
	if !found {
		return
	}

	m.scanner.Configure(ps.Config{
		Concurrency: settings.Concurrency,
		Timeout:     settings.Timeout,
		Deadline:    settings.Deadline,
	})
	logrus.Debugf("Restored scanner settings: %+v", m.scanner.Config())
}

// WithPorts replaces the list of ports scanned for every target.
func (m *Manager) WithPorts(list []uint16) *Manager {
	m.mu.Lock()
	m.ports = append([]uint16{}, list...)
	m.mu.Unlock()
	return m
}

// WithDialer swaps the dialer used for connect attempts.
func (m *Manager) WithDialer(d ps.Dialer) *Manager {
	m.mu.Lock()
	m.scanner.Dialer = d
	m.mu.Unlock()
	return m
}

// Scan validates raw and scans it over the configured port list.
func (m *Manager) Scan(ctx context.Context, raw string) (*models.ScanResult, error) {
	target, err := ParseTargetInfo(raw)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	scanner := *m.scanner
	list := m.ports
	m.mu.RUnlock()

	start := time.Now()
	logrus.Infof("Scanning target: %s", target.IP)

	res, err := scanner.Scan(ctx, target.IP, list)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Round(time.Millisecond)

	ret := &models.ScanResult{
		Target:       target.IP.String(),
		Duration:     elapsed.String(),
		OpenPorts:    res.OpenPorts,
		NonOpenPorts: res.NonOpenPorts,
		CreatedAt:    start,
	}

	if m.db == nil {
		return ret, nil
	}

	record := &database.ScanRecord{
		Target:       ret.Target,
		DurationMs:   elapsed.Milliseconds(),
		OpenPorts:    res.OpenPorts,
		NonOpenPorts: res.NonOpenPorts,
	}
	if err := m.db.SaveScan(record); err != nil {
		return nil, err
	}
	ret.ID = record.ID
	ret.CreatedAt = record.CreatedAt

	return ret, nil
}

// Settings sets up the scanner with new settings.
func (m *Manager) Settings(settings models.SettingsAPI) error {
	if err := validateSettings(settings.Config); err != nil {
		return err
	}

	if m.db != nil {
		if err := m.db.UpdateSettings(database.PSConfig{
			Concurrency: settings.Config.Concurrency,
			Timeout:     settings.Config.Timeout,
			Deadline:    settings.Config.Deadline,
		}); err != nil {
			return err
		}
	}

	m.Configure(ps.Config(settings.Config))

	logrus.Infof("Scanner settings updated: %+v", settings.Config)
	return nil
}

// Configure applies cfg to the scanner without persisting it.
func (m *Manager) Configure(cfg ps.Config) {
	m.mu.Lock()
	m.scanner.Configure(cfg)
	m.mu.Unlock()
}

// CurrentSettings returns the settings the next scan will run with.
func (m *Manager) CurrentSettings() models.SettingsAPI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.SettingsAPI{Config: models.PortScannerConfig(m.scanner.Config())}
}

// History returns the latest persisted scans, newest first.
func (m *Manager) History(limit int) ([]models.ScanResult, error) {
	if m.db == nil {
		return nil, ErrNoStore
	}

	records, err := m.db.ListScans(limit)
	if err != nil {
		return nil, err
	}

	results := make([]models.ScanResult, 0, len(records))
	for i := range records {
		results = append(results, toResult(&records[i]))
	}
	return results, nil
}

// Result returns a single persisted scan.
func (m *Manager) Result(id uint) (*models.ScanResult, error) {
	if m.db == nil {
		return nil, ErrNoStore
	}

	record, err := m.db.GetScan(id)
	if err != nil {
		return nil, err
	}
	ret := toResult(record)
	return &ret, nil
}
