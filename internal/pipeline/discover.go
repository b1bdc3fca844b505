package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/jconvert/internal/pattern"
)

const jsonExt = ".json"

// Discover walks root and returns regular files with a .json extension
// (any case) whose base name passes m, sorted lexicographically.
//
// maxDepth counts path components below root: a file directly in root has
// depth 1. Zero means unlimited. Entries that cannot be read are skipped.
func Discover(root string, maxDepth int, m *pattern.Matcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && maxDepth > 0 && depth(root, path) >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		name := d.Name()
		if !strings.EqualFold(filepath.Ext(name), jsonExt) {
			return nil
		}
		if !m.Matches(name) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// isRegular accepts regular files and symlinks that resolve to one.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// depth returns the number of components in path below root.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
