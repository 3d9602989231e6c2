// Package source extracts statistics from the C and C* programs models are
// generated from, using tree-sitter.
package source

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/phobologic/rotorbench/internal/model"
)

//go:embed queries/c.scm
var queryFS embed.FS

var (
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
)

// functionQuery returns the compiled definition query (safe to share across
// goroutines).
func functionQuery() (*sitter.Query, error) {
	queryOnce.Do(func() {
		data, err := queryFS.ReadFile("queries/c.scm")
		if err != nil {
			queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, c.GetLanguage())
		if err != nil {
			queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		query = q
	})
	return query, queryErr
}

// Analyze reads the source file at path and returns its statistics.
func Analyze(path string) (*model.SourceStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	funcs, err := Functions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &model.SourceStats{
		Path:      path,
		Lines:     countLines(data),
		Functions: funcs,
	}, nil
}

// Functions returns the names of the functions defined in source, in order
// of appearance.
func Functions(source []byte) ([]string, error) {
	funcs := []string{}
	if len(source) == 0 {
		return funcs, nil
	}

	q, err := functionQuery()
	if err != nil {
		return nil, err
	}

	// Parsers are not thread-safe; each call gets its own.
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)
		for _, capture := range match.Captures {
			if q.CaptureNameForId(capture.Index) == "name" {
				funcs = append(funcs, capture.Node.Content(source))
			}
		}
	}
	return funcs, nil
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
