// Package publish uploads a build output directory to object storage.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
)

// Store receives uploaded objects.
type Store interface {
	Put(ctx context.Context, key, contentType string, content []byte) error
}

// Report lists what a publish run uploaded.
type Report struct {
	Keys  []string
	Bytes int64
}

// Publisher mirrors a local directory into a Store.
type Publisher struct {
	store  Store
	prefix string
}

// NewPublisher creates a Publisher writing keys below prefix.
func NewPublisher(store Store, prefix string) *Publisher {
	return &Publisher{store: store, prefix: strings.Trim(prefix, "/")}
}

// Publish uploads every file under root. The first failed upload stops the
// run; objects uploaded before it are kept.
func (p *Publisher) Publish(ctx context.Context, root string) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("publish root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("publish root %s is not a directory", root)
	}

	files, err := fsutil.FindFiles(root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	report := &Report{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return report, err
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return report, fmt.Errorf("reading %s: %w", f, err)
		}

		key := p.objectKey(rel)
		if err := p.store.Put(ctx, key, contentType(f), data); err != nil {
			return report, fmt.Errorf("uploading %s: %w", key, err)
		}
		logger.Debug("Uploaded object.", "key", key, "bytes", len(data))
		report.Keys = append(report.Keys, key)
		report.Bytes += int64(len(data))
	}

	logger.Info("📦 Published output.", "objects", len(report.Keys), "bytes", report.Bytes)
	return report, nil
}

func (p *Publisher) objectKey(rel string) string {
	return path.Join(p.prefix, filepath.ToSlash(rel))
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
