// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// Discover lists every regular file under rootPath in lexical walk order.
// Directories whose path relative to rootPath appears in skip are not
// descended into. The order is stable across runs for an unchanged tree.
func Discover(rootPath string, skip ...string) ([]string, error) {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		if s == "" {
			continue
		}
		skipped[filepath.Clean(s)] = struct{}{}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == rootPath {
				return nil
			}
			if rel, relErr := filepath.Rel(rootPath, path); relErr == nil {
				if _, ok := skipped[rel]; ok {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
