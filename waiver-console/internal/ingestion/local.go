// Package ingestion selects and checks local files before they are uploaded
// to the backend.
package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// expectedMIME maps each uploadable extension to the content type its bytes
// must sniff as.
var expectedMIME = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Allowed reports whether path has an uploadable extension.
func Allowed(path string) bool {
	_, ok := expectedMIME[strings.ToLower(filepath.Ext(path))]
	return ok
}

// CollectFiles expands the given files and directories into the list of
// uploadable files, sorted and without duplicates. Files named explicitly
// are kept even when their extension is not allowed so Preflight can
// report them; directory walks only pick up allowed extensions.
func CollectFiles(paths ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", root, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if Allowed(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}

	sort.Strings(out)
	return out, nil
}
