// Package scan expands user-supplied files and directories into the
// ordered list of convertible inputs.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CollectInputs expands paths into individual input files. Files are kept
// only when recognized reports their extension convertible; directories are
// walked recursively with the same filter, visiting entries in sorted order.
// Duplicates are dropped, preserving the first occurrence.
func CollectInputs(paths []string, recognized func(string) bool) ([]string, error) {
	var inputs []string
	seen := make(map[string]struct{})

	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		inputs = append(inputs, abs)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", path, err)
		}
		if !info.IsDir() {
			if recognized(filepath.Ext(path)) {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if recognized(filepath.Ext(entry)) {
				add(entry)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	}
	return inputs, nil
}

// DefaultRecognizer builds a case-insensitive extension predicate from a
// list like [".mkv", ".webm"].
func DefaultRecognizer(extensions []string) func(string) bool {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return func(ext string) bool {
		_, ok := set[strings.ToLower(ext)]
		return ok
	}
}
