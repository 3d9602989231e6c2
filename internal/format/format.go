// Package format provides the model format registry mapping file extensions
// to the parser for that format.
package format

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/phobologic/rotorbench/internal/model"
)

// ErrUnknownFormat is returned when no registered format handles a file.
var ErrUnknownFormat = errors.New("unknown model format")

// Parser analyzes model files of one format.
type Parser interface {
	// Parse returns the statistics of the model at path.
	Parse(path string) (*model.Statistics, error)
	// Log writes a human-readable analysis of the model at path to w.
	Log(w io.Writer, path string) error
}

// Format holds the configuration of a supported model format.
type Format struct {
	Name       model.Format
	Extensions []string
	Parser     Parser
}

// Formats maps format names to their configuration.
// Populated by init() functions in per-format files.
var Formats = map[model.Format]*Format{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]*Format
var extensionOnce sync.Once

func getExtensionMap() map[string]*Format {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]*Format)
		for _, f := range Formats {
			for _, ext := range f.Extensions {
				extensionMap[ext] = f
			}
		}
	})
	return extensionMap
}

// ForExtension returns the format for a file extension, or nil if unsupported.
// Matching is case-insensitive.
func ForExtension(ext string) *Format {
	return getExtensionMap()[strings.ToLower(ext)]
}

// ForPath returns the format of the model at path.
func ForPath(path string) (*Format, error) {
	f := ForExtension(filepath.Ext(path))
	if f == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return f, nil
}

// Lookup returns the format registered under name.
func Lookup(name string) (*Format, error) {
	f, ok := Formats[model.Format(strings.ToLower(name))]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
	return f, nil
}

// Extensions returns every registered extension, sorted.
func Extensions() []string {
	var exts []string
	for ext := range getExtensionMap() {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Parse analyzes the model at path with the parser registered for its
// extension.
func Parse(path string) (*model.Statistics, error) {
	f, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return f.Parser.Parse(path)
}

// Log writes the analysis of the model at path with the parser registered
// for its extension.
func Log(w io.Writer, path string) error {
	f, err := ForPath(path)
	if err != nil {
		return err
	}
	return f.Parser.Log(w, path)
}
