package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the configuration file at path and translates it into the
	// format-agnostic model. The model's Root is the file's directory.
	Load(ctx context.Context, path string) (*Model, error)
}
