// Package present renders analyzed models as plain, verbose, JSON or TOON
// reports.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/jmespath-community/go-jmespath"

	"github.com/phobologic/rotorbench/internal/model"
	"github.com/phobologic/rotorbench/internal/parse"
	"github.com/phobologic/rotorbench/internal/solver"
	"github.com/phobologic/rotorbench/internal/toon"
)

// Output formats.
const (
	Plain   = "plain"
	Verbose = "verbose"
	JSON    = "json"
	TOON    = "toon"
)

// Formats lists the accepted output formats.
var Formats = []string{Plain, Verbose, JSON, TOON}

const (
	pageWidth    = 70
	sectionWidth = 40
)

// Options controls rendering.
type Options struct {
	Format string
	// Detailed adds the full statistics and Rotor header to plain output.
	Detailed bool
	// Color enables ANSI colors for verbose and JSON output.
	Color bool
	// Name labels the run in TOON output.
	Name string
	// Query is a JMESPath expression applied to the JSON report.
	Query string
}

// Render writes the report for models to w.
func Render(w io.Writer, models []model.Model, opts Options) error {
	if opts.Query != "" && opts.Format != JSON {
		return fmt.Errorf("a query requires the %s format", JSON)
	}
	switch opts.Format {
	case "", Plain:
		for i := range models {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintln(w, plain(&models[i], opts.Detailed))
		}
	case Verbose:
		title := color.New(color.Bold, color.FgCyan)
		if opts.Color {
			title.EnableColor()
		} else {
			title.DisableColor()
		}
		for i := range models {
			_, _ = fmt.Fprint(w, verbose(&models[i], title))
		}
	case JSON:
		return renderJSON(w, models, opts.Query, opts.Color)
	case TOON:
		_, _ = fmt.Fprintln(w, toon.Encode(opts.Name, models))
	default:
		return fmt.Errorf("unknown output format %q (valid: %s)", opts.Format, strings.Join(Formats, ", "))
	}
	return nil
}

func renderJSON(w io.Writer, models []model.Model, query string, colored bool) error {
	var report any = models
	if models == nil {
		report = []model.Model{}
	}
	if query != "" {
		var err error
		if report, err = search(query, report); err != nil {
			return err
		}
	}

	var (
		data []byte
		err  error
	)
	if colored {
		data, err = prettyjson.Marshal(report)
	} else {
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// search evaluates a JMESPath query against the JSON form of report.
func search(query string, report any) (any, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	result, err := jmespath.Search(query, doc)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return result, nil
}

func plain(m *model.Model, detailed bool) string {
	s := stats(m)
	lines := []string{
		fmt.Sprintf("Model: %s", filepath.Base(m.Path)),
		fmt.Sprintf("Type: %s", typeName(m)),
		fmt.Sprintf("Code lines: %d", s.CodeLines),
	}

	if detailed {
		lines = append(lines,
			"",
			"Detailed Analysis:",
			fmt.Sprintf("Total lines: %d", s.TotalLines),
			fmt.Sprintf("Comments: %d", s.CommentLines),
			fmt.Sprintf("Blank lines: %d", s.BlankLines),
			fmt.Sprintf("Define-fun commands: %d", s.DefineCount),
		)
		if s.RotorGenerated && s.Header != nil {
			lines = append(lines, "", "Rotor Configuration:")
			lines = append(lines, rotorInfo(s.Header)...)
		}
		if m.Source != nil {
			lines = append(lines, "", "Source:")
			lines = append(lines, sourceInfo(m.Source)...)
		}
	}

	for _, r := range m.Results {
		lines = append(lines, resultLine(r))
	}
	return strings.Join(lines, "\n")
}

func verbose(m *model.Model, title *color.Color) string {
	s := stats(m)
	header := title.Sprint(center(" MODEL ANALYSIS ", pageWidth, '='))
	footer := strings.Repeat("=", pageWidth)

	path := m.Path
	if abs, err := filepath.Abs(m.Path); err == nil {
		path = abs
	}
	sections := []string{
		section("Basic Info", []string{
			fmt.Sprintf("File: %s", filepath.Base(m.Path)),
			fmt.Sprintf("Path: %s", path),
			fmt.Sprintf("Type: %s", typeName(m)),
		}),
		section("Statistics", []string{
			fmt.Sprintf("Total lines: %d", s.TotalLines),
			fmt.Sprintf("Code lines: %d", s.CodeLines),
			fmt.Sprintf("Comments: %d", s.CommentLines),
			fmt.Sprintf("Blank lines: %d", s.BlankLines),
			fmt.Sprintf("Define-fun commands: %d", s.DefineCount),
		}),
	}
	if s.RotorGenerated && s.Header != nil {
		sections = append(sections, section("Rotor Configuration", rotorInfo(s.Header)))
	}
	if m.Source != nil {
		sections = append(sections, section("Source", sourceInfo(m.Source)))
	}
	if len(m.Results) > 0 {
		var rows []string
		for _, r := range m.Results {
			rows = append(rows, resultLine(r))
		}
		sections = append(sections, section("Solvers", rows))
	}

	return "\n" + header + "\n" + strings.Join(sections, "\n\n") + "\n" + footer + "\n"
}

func stats(m *model.Model) *model.Statistics {
	if m.Stats == nil {
		return &model.Statistics{}
	}
	return m.Stats
}

func typeName(m *model.Model) string {
	if m.ModelType != "" {
		return m.ModelType
	}
	return string(m.Format)
}

func rotorInfo(h *model.Header) []string {
	rows := parse.HeaderRows(h)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[0] + ": " + r[1]
	}
	return out
}

func sourceInfo(s *model.SourceStats) []string {
	funcs := "None"
	if len(s.Functions) > 0 {
		funcs = strings.Join(s.Functions, ", ")
	}
	return []string{
		fmt.Sprintf("File: %s", s.Path),
		fmt.Sprintf("Lines: %d", s.Lines),
		fmt.Sprintf("Functions (%d): %s", len(s.Functions), funcs),
	}
}

func resultLine(r model.SolverResult) string {
	line := fmt.Sprintf("Solver %s: %s (%.3fs)", r.Solver, r.Verdict, r.Duration.Seconds())
	if r.Verdict == model.Error && r.Output != "" {
		line += " " + firstLine(r.Output)
	}
	return line
}

func section(title string, items []string) string {
	lines := []string{center(" "+title+" ", sectionWidth, '-')}
	lines = append(lines, items...)
	return strings.Join(lines, "\n")
}

// center pads s on both sides with fill up to width, extra padding going
// to the right.
func center(s string, width int, fill rune) string {
	n := width - len(s)
	if n <= 0 {
		return s
	}
	left := n / 2
	return strings.Repeat(string(fill), left) + s + strings.Repeat(string(fill), n-left)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// Solvers writes a summary table of solver results.
func Solvers(w io.Writer, sums []solver.Summary) {
	if len(sums) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, center(" SOLVER SUMMARY ", pageWidth, '='))
	_, _ = fmt.Fprintf(w, "%-12s %5s %5s %5s %7s %7s %5s %10s %10s\n",
		"solver", "runs", "sat", "unsat", "unknown", "timeout", "error", "total(s)", "mean(s)")
	for _, s := range sums {
		_, _ = fmt.Fprintf(w, "%-12s %5d %5d %5d %7d %7d %5d %10.3f %10.3f\n",
			s.Solver, s.Runs,
			s.Verdicts[model.Sat], s.Verdicts[model.Unsat], s.Verdicts[model.Unknown],
			s.Verdicts[model.Timeout], s.Verdicts[model.Error],
			s.Total.Seconds(), s.Mean().Seconds())
	}
}
