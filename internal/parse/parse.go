// Package parse computes line statistics of model files.
package parse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/phobologic/rotorbench/internal/model"
	"github.com/phobologic/rotorbench/internal/rotor"
)

var defineRe = regexp.MustCompile(`(?i)^\s*\(define-fun`)

// SMT2 analyzes SMT-LIB2 models.
type SMT2 struct{}

// Parse streams the model at path once and returns its statistics. When the
// Rotor signature is seen, the header is read in a separate pass over the
// same file.
func (SMT2) Parse(path string) (*model.Statistics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	stats := &model.Statistics{}
	sc := rotor.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()

		if !stats.RotorGenerated && rotor.SignatureRe.MatchString(line) {
			stats.RotorGenerated = true
			h, err := rotor.ParseHeader(path)
			if err != nil {
				return nil, err
			}
			stats.Header = h
		}

		stats.TotalLines++
		switch {
		case rotor.IsComment(line):
			stats.CommentLines++
		case rotor.IsBlank(line):
			stats.BlankLines++
		default:
			stats.CodeLines++
			if defineRe.MatchString(line) {
				stats.DefineCount++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return stats, nil
}

// Log writes a human-readable analysis of the model at path to w.
func (p SMT2) Log(w io.Writer, path string) error {
	stats, err := p.Parse(path)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w, "SMT-LIBv2 File Analysis:")
	_, _ = fmt.Fprintf(w, "File name: %s\n", filepath.Base(path))
	if filepath.Dir(path) != "." {
		_, _ = fmt.Fprintf(w, "File path: %s\n", path)
	}
	_, _ = fmt.Fprintf(w, "Total lines: %d\n", stats.TotalLines)
	_, _ = fmt.Fprintf(w, "Code lines: %d\n", stats.CodeLines)
	_, _ = fmt.Fprintf(w, "Comment lines: %d\n", stats.CommentLines)
	_, _ = fmt.Fprintf(w, "Blank lines: %d\n", stats.BlankLines)
	_, _ = fmt.Fprintf(w, "define-fun commands: %d\n", stats.DefineCount)

	if stats.RotorGenerated && stats.Header != nil {
		_, _ = fmt.Fprintln(w, "\nRotor-Specific Information:")
		for _, row := range HeaderRows(stats.Header) {
			_, _ = fmt.Fprintf(w, "%s: %s\n", row[0], row[1])
		}
	}
	return nil
}

// BTOR2 is a placeholder for BTOR2 models: it reports empty statistics
// and logs nothing.
type BTOR2 struct{}

// Parse returns empty statistics.
func (BTOR2) Parse(string) (*model.Statistics, error) {
	return &model.Statistics{}, nil
}

// Log writes nothing.
func (BTOR2) Log(io.Writer, string) error {
	return nil
}
