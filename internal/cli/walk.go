package cli

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	defaultIncludes = []string{"**/*.{txt,text,md,markdown,csv,html,htm,pdf,docx}"}
	defaultExcludes = []string{"**/.git/**", "**/node_modules/**"}
)

// walker selects the files under a set of roots using doublestar patterns
// matched against slash-separated paths relative to each root.
type walker struct {
	includes []string
	excludes []string
}

func newWalker(includes, excludes []string) *walker {
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	return &walker{includes: includes, excludes: excludes}
}

// collect expands paths into a sorted, de-duplicated file list. Files named
// explicitly are always kept; directories are walked and filtered.
func (w *walker) collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && (w.excluded(rel) || w.excluded(rel+"/")) {
					return filepath.SkipDir
				}
				return nil
			}
			if w.included(rel) && !w.excluded(rel) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func (w *walker) included(path string) bool {
	return matchAny(w.includes, path)
}

func (w *walker) excluded(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}
