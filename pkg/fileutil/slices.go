package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSlices is returned when a multi-part path matches no file.
var ErrNoSlices = errors.New("no slice files match")

// SlicePattern derives the sibling pattern of a multi-part slice name. A name
// whose inner extension is a dot plus one digit ("game.1.cci") yields
// "game.?.cci" and multi is true; any other name is returned unchanged.
func SlicePattern(name string) (pattern string, multi bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	sub := filepath.Ext(stem)
	if len(sub) != 2 || sub[1] < '0' || sub[1] > '9' {
		return name, false
	}
	return strings.TrimSuffix(stem, sub) + ".?" + ext, true
}

// MatchPattern reports whether name matches pattern byte for byte, where '?'
// matches any byte. Lengths must be equal.
func MatchPattern(pattern, name string) bool {
	if len(pattern) != len(name) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '?' && pattern[i] != name[i] {
			return false
		}
	}
	return true
}

// ResolveSlices returns the sorted physical files of the container at path.
// Multi-part names expand to every matching file in the same directory;
// anything else resolves to path alone.
func ResolveSlices(path string) ([]string, error) {
	dir, base := filepath.Split(path)
	pattern, multi := SlicePattern(base)
	if !multi {
		return []string{path}, nil
	}

	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list slices in %s: %w", dir, err)
	}

	var slices []string
	for _, e := range entries {
		if e.IsDir() || !MatchPattern(pattern, e.Name()) {
			continue
		}
		slices = append(slices, filepath.Join(filepath.Dir(path), e.Name()))
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSlices, filepath.Join(filepath.Dir(path), pattern))
	}

	sort.Strings(slices)
	return slices, nil
}
