// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FindDirs recursively collects rootPath and every directory below it. A
// missing rootPath yields an empty result rather than an error, because
// watched source directories may not exist yet.
func FindDirs(rootPath string) ([]string, error) {
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return nil, nil
	}

	var dirs []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return dirs, nil
}

// FindFiles recursively collects every regular file under rootPath.
func FindFiles(rootPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
