package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigFiles are looked up in the working directory, in order, when
// no configuration path is given.
var DefaultConfigFiles = []string{"assetgrid.hcl", "assetgrid.yaml", "assetgrid.yml"}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl or yaml file

	LogFormat string
	LogLevel  string
	// Strict makes a build with failed tasks return an error.
	Strict bool
}

// NewConfig validates cfg and fills in the configuration path when empty.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: use debug, info, warn or error", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: use text or json", cfg.LogFormat)
	}

	if cfg.ConfigPath == "" {
		path, err := findDefaultConfig(".")
		if err != nil {
			return nil, err
		}
		cfg.ConfigPath = path
	}
	return &cfg, nil
}

func findDefaultConfig(dir string) (string, error) {
	for _, name := range DefaultConfigFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.New("ConfigPath is a required configuration field: no assetgrid.hcl or assetgrid.yaml found in the working directory")
}
