package pipeline

import (
	"path"
	"strings"
	"time"
)

// Asset is one file flowing through a task's stage chain.
type Asset struct {
	// Path is the output path relative to the task destination, slash separated.
	Path string
	// Source is the absolute path the asset was read from. Empty for assets
	// produced by a stage (source maps, bundles).
	Source string
	// Base is the glob base directory Source was matched under.
	Base    string
	Data    []byte
	ModTime time.Time
	// SourceMap maps Data back to its sources. The runner writes it next to
	// the output as "<path>.map" and links it from the output.
	SourceMap []byte
}

// Ext returns the extension of the asset's output path, including the dot.
func (a *Asset) Ext() string {
	return path.Ext(a.Path)
}

// WithExt returns a copy of the asset's output path with its extension
// replaced by ext.
func (a *Asset) WithExt(ext string) string {
	return strings.TrimSuffix(a.Path, path.Ext(a.Path)) + ext
}

// Derive returns a new asset sharing a's origin but carrying new data at
// a new output path. The source map is not carried over: it described the
// old data.
func (a *Asset) Derive(outPath string, data []byte) *Asset {
	return &Asset{
		Path:    outPath,
		Source:  a.Source,
		Base:    a.Base,
		Data:    data,
		ModTime: a.ModTime,
	}
}

// IsPartial reports whether the asset's file name starts with an underscore,
// the convention for SASS and template partials that are only ever included.
func (a *Asset) IsPartial() bool {
	return strings.HasPrefix(path.Base(a.Path), "_")
}

// Moved returns a copy of the asset at a new output path, keeping its data
// and source map.
func (a *Asset) Moved(outPath string) *Asset {
	moved := *a
	moved.Path = outPath
	return &moved
}
