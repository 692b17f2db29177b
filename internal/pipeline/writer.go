package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"
)

// DefaultWriterCacheSize bounds the number of output digests a Writer keeps.
const DefaultWriterCacheSize = 4096

// written is what a Writer remembers about a file it wrote or verified.
type written struct {
	sum     [32]byte
	size    int64
	modTime time.Time
}

// Writer writes task outputs. Content identical to what is already on disk
// is not rewritten, so repeated builds leave unchanged files untouched.
type Writer struct {
	digests *lru.Cache[string, written]
}

// NewWriter creates a Writer remembering up to size output digests.
func NewWriter(size int) *Writer {
	if size <= 0 {
		size = DefaultWriterCacheSize
	}
	cache, err := lru.New[string, written](size)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Writer{digests: cache}
}

// Write stores data at path, creating parent directories. It reports whether
// the file content changed. A remembered digest is only trusted while the
// file keeps the size and modification time it had when recorded; otherwise
// the file is compared byte for byte.
func (w *Writer) Write(path string, data []byte) (bool, error) {
	sum := blake3.Sum256(data)

	info, statErr := os.Stat(path)
	if prev, ok := w.digests.Get(path); ok && statErr == nil && prev.sum == sum &&
		info.Size() == prev.size && info.ModTime().Equal(prev.modTime) {
		return false, nil
	}
	if statErr == nil && info.Size() == int64(len(data)) {
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
			w.remember(path, sum, info)
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating output directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if info, err := os.Stat(path); err == nil {
		w.remember(path, sum, info)
	}
	return true, nil
}

func (w *Writer) remember(path string, sum [32]byte, info os.FileInfo) {
	w.digests.Add(path, written{sum: sum, size: info.Size(), modTime: info.ModTime()})
}
