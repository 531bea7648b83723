package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverGoldRoots finds every package directory under root that holds a
// golds directory named goldsRoot and returns the golds directories relative
// to root, sorted.
func DiscoverGoldRoots(root, goldsRoot string) ([]string, error) {
	rel := filepath.FromSlash(goldsRoot)
	found := make(map[string]bool)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if found[p] {
			return filepath.SkipDir
		}

		candidate := filepath.Join(p, rel)
		if isDir(candidate) {
			found[candidate] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(found))
	for p := range found {
		r, err := filepath.Rel(root, p)
		if err != nil {
			return nil, err
		}
		roots = append(roots, filepath.ToSlash(r))
	}
	sort.Strings(roots)
	return roots, nil
}

// isExcludedDir returns true for directories that never hold package golds.
// Like the go tool, names starting with "." or "_" are ignored.
func isExcludedDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	excluded := map[string]bool{
		"node_modules": true,
		"vendor":       true,
		"dist":         true,
		"build":        true,
	}
	return excluded[name]
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
