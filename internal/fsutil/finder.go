// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path"
	"slices"
	"strings"
)

// FindFilesByExtension recursively searches root in fsys for all files whose
// name ends with one of the extensions. Paths are returned in lexical order,
// relative to fsys.
func FindFilesByExtension(fsys fs.FS, root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if slices.ContainsFunc(extensions, func(ext string) bool { return strings.HasSuffix(d.Name(), ext) }) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// Base returns the last element of a slash separated path without ext.
func Base(p, ext string) string {
	return strings.TrimSuffix(path.Base(p), ext)
}
