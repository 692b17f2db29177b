// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from
// different file formats.
//
// The `config.Model` is the single source of truth for the app package,
// which turns it into pipeline tasks, groups and watch bindings. Concrete
// loaders, such as for HCL and YAML, are provided in separate packages.
package config
