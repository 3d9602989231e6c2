// Package discover finds model and source files below a directory.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/rotorbench/internal/format"
	"github.com/phobologic/rotorbench/internal/model"
)

// FileEntry represents a discovered file.
type FileEntry struct {
	Path   string // root joined with the path relative to root
	Format model.Format
}

// skipDirs are never descended into. Hidden directories are skipped too.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
}

// Models discovers model files under root. A root that is a file is
// returned as the single entry if its extension is a registered format.
func Models(root string) ([]FileEntry, error) {
	return walk(root, func(ext string) (model.Format, bool) {
		f := format.ForExtension(ext)
		if f == nil {
			return "", false
		}
		return f.Name, true
	})
}

// Sources discovers source files under root whose extension is one of exts.
func Sources(root string, exts []string) ([]FileEntry, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}
	return walk(root, func(ext string) (model.Format, bool) {
		_, ok := allowed[strings.ToLower(ext)]
		return "", ok
	})
}

func walk(root string, accept func(ext string) (model.Format, bool)) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		f, ok := accept(filepath.Ext(root))
		if !ok {
			return nil, nil
		}
		return []FileEntry{{Path: root, Format: f}}, nil
	}

	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		f, ok := accept(filepath.Ext(name))
		if !ok {
			return nil
		}

		results = append(results, FileEntry{Path: path, Format: f})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
