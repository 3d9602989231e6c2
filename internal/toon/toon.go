// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/rotorbench/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts an analyzed benchmark run into TOON format.
func Encode(name string, models []model.Model) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("run: %s", encodeValue(name)))

	var modelRows [][]string
	for i := range models {
		m := &models[i]
		s := m.Stats
		if s == nil {
			s = &model.Statistics{}
		}
		modelRows = append(modelRows, []string{
			m.Path,
			string(m.Format),
			m.ModelType,
			strconv.Itoa(s.TotalLines),
			strconv.Itoa(s.CodeLines),
			strconv.Itoa(s.CommentLines),
			strconv.Itoa(s.BlankLines),
			strconv.Itoa(s.DefineCount),
			strconv.FormatBool(s.RotorGenerated),
		})
	}
	parts = append(parts, formatTabular("models",
		[]string{"path", "format", "type", "lines", "code", "comments", "blank", "defines", "rotor"}, modelRows))

	var headerRows [][]string
	for i := range models {
		m := &models[i]
		if m.Stats == nil || m.Stats.Header == nil {
			continue
		}
		h := m.Stats.Header
		source := ""
		if h.SourceFile != nil {
			source = *h.SourceFile
		}
		headerRows = append(headerRows, []string{
			m.Path,
			source,
			optInt(h.KMin),
			optInt(h.KMax),
			optInt(h.BytecodeSize),
			optInt(h.DataSize),
			optInt(h.VirtualAddressSpace),
			strings.Join(h.Flags, " "),
		})
	}
	parts = append(parts, formatTabular("headers",
		[]string{"path", "source", "kmin", "kmax", "code_bytes", "data_bytes", "address_bits", "flags"}, headerRows))

	var resultRows [][]string
	for i := range models {
		m := &models[i]
		for j := range m.Results {
			r := &m.Results[j]
			resultRows = append(resultRows, []string{
				m.Path,
				r.Solver,
				string(r.Verdict),
				fmt.Sprintf("%.3f", r.Duration.Seconds()),
			})
		}
	}
	if len(resultRows) > 0 {
		parts = append(parts, formatTabular("results", []string{"path", "solver", "verdict", "seconds"}, resultRows))
	}

	return strings.Join(parts, "\n")
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
