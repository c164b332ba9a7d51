package database

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

// DB defines the database instance containing the
// connection to the SQLite type database.
type DB struct {
	conn *gorm.DB
}

// New returns a new *DB instance backed by the SQLite file at path.
func New(path string) (*DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}

	if err = db.Migrate(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate migrates the current database structures.
func (db *DB) Migrate() error {
	return db.conn.AutoMigrate(&PSConfig{}, &ScanRecord{})
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveScan saves the scan data.
func (db *DB) SaveScan(data *ScanRecord) error {
	return db.conn.Create(data).Error
}

// ListScans returns up to limit scans, newest first.
func (db *DB) ListScans(limit int) ([]ScanRecord, error) {
	var records []ScanRecord
	q := db.conn.Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetScan fetches a single scan by its ID.
func (db *DB) GetScan(id uint) (*ScanRecord, error) {
	var record ScanRecord
	err := db.conn.First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateSettings update current settings.
func (db *DB) UpdateSettings(data PSConfig) error {
	var psConfig PSConfig
	if err := db.conn.FirstOrCreate(&psConfig, PSConfig{Model: gorm.Model{ID: 1}}).Error; err != nil {
		return err
	}
	data.Model = psConfig.Model
	return db.conn.Save(&data).Error
}

// FetchSettings fetches the last used settings. found is false when
// nothing was saved yet.
func (db *DB) FetchSettings() (settings PSConfig, found bool, err error) {
	err = db.conn.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PSConfig{}, false, nil
	}
	if err != nil {
		return PSConfig{}, false, err
	}
	return settings, true, nil
}
