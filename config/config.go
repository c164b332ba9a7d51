package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	ps "go-portscout/port-scanner"
)

// Config is the file-level configuration of go-portscout.
type Config struct {
	Scanner  ps.Config `json:"scanner" yaml:"scanner"`
	Server   Server    `json:"server" yaml:"server"`
	Database Database  `json:"database" yaml:"database"`
	Log      Log       `json:"log" yaml:"log"`
}

type Server struct {
	Addr         string   `json:"addr" yaml:"addr"`
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
}

type Database struct {
	Path string `json:"path" yaml:"path"`
}

type Log struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Scanner: ps.Config{
			Concurrency: ps.DefaultConcurrency,
			Timeout:     ps.DefaultTimeout,
		},
		Server: Server{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Database: Database{Path: "portscout.db"},
		Log:      Log{Level: "info"},
	}
}

// Load reads the file at path on top of the defaults. YAML is assumed
// unless the extension is .json or .jsonc, which may carry comments.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would prevent a scan or server from starting.
func (c Config) Validate() error {
	if c.Scanner.Concurrency < 1 {
		return fmt.Errorf("scanner.concurrency must be at least 1, got %d", c.Scanner.Concurrency)
	}
	if c.Scanner.Timeout < 1 {
		return fmt.Errorf("scanner.timeout must be at least 1ms, got %d", c.Scanner.Timeout)
	}
	if c.Scanner.Deadline < 0 {
		return fmt.Errorf("scanner.deadline cannot be negative, got %d", c.Scanner.Deadline)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ApplyLogLevel sets the global logrus level.
func (c Config) ApplyLogLevel() error {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	return nil
}
