package fsutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Match is a single file produced by ExpandGlobs.
type Match struct {
	// Path is the absolute path of the file.
	Path string
	// Base is the static directory prefix of the pattern that matched.
	Base string
	// Rel is Path relative to Base, always slash separated.
	Rel string
}

// Absolute resolves pattern against root unless it is already absolute.
func Absolute(root, pattern string) string {
	if filepath.IsAbs(pattern) {
		return filepath.Clean(pattern)
	}
	return filepath.Join(root, pattern)
}

// GlobBase returns the directory part of an absolute pattern that precedes
// the first glob meta character. For a literal file path it is the parent
// directory.
func GlobBase(pattern string) string {
	slashed := filepath.ToSlash(pattern)
	if !hasMeta(slashed) {
		return filepath.Dir(pattern)
	}
	base, _ := doublestar.SplitPattern(slashed)
	return filepath.FromSlash(base)
}

// ExpandGlobs expands absolute patterns in declaration order. Matches of a
// single pattern are sorted; a file matched by more than one pattern keeps
// its first position. Patterns matching nothing are not an error.
func ExpandGlobs(patterns []string) ([]Match, error) {
	seen := make(map[string]struct{})
	var out []Match

	for _, pattern := range patterns {
		base := GlobBase(pattern)
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}

			rel, err := filepath.Rel(base, m)
			if err != nil {
				return nil, fmt.Errorf("relativising %q to %q: %w", m, base, err)
			}
			out = append(out, Match{Path: m, Base: base, Rel: filepath.ToSlash(rel)})
		}
	}
	return out, nil
}

// MatchAny reports whether path matches at least one absolute pattern.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.PathMatch(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{\\")
}
