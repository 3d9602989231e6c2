// Package rotor recovers the provenance header that Rotor embeds as leading
// comments in the models it generates.
package rotor

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/rotorbench/internal/model"
)

var (
	commentRe = regexp.MustCompile(`^\s*;`)
	blankRe   = regexp.MustCompile(`^\s*$`)

	// SignatureRe matches the line Rotor writes into every SMT-LIB model.
	// The captured group is the model path Rotor reported.
	SignatureRe = regexp.MustCompile(`^;\s*generated\s+SMT-LIB\s+file\s+(.+\.smt2)`)

	markerRe = regexp.MustCompile(`^with -([A-Za-z][A-Za-z0-9_]*)\s*$`)
)

// IsComment reports whether line is a model comment line.
func IsComment(line string) bool {
	return commentRe.MatchString(line)
}

// IsBlank reports whether line contains only whitespace.
func IsBlank(line string) bool {
	return blankRe.MatchString(line)
}

// commentBody returns the text after the comment marker, trimmed.
func commentBody(line string) string {
	_, body, _ := strings.Cut(line, ";")
	return strings.TrimSpace(strings.TrimLeft(body, ";"))
}

// Field is one row of the header table. Set receives the first capture
// group, or "" for marker rows without a group.
type Field struct {
	Name    string
	Pattern *regexp.Regexp
	Set     func(h *model.Header, value string)
}

// Fields lists the recognized header lines in match order.
// A number that does not fit an int64 leaves its field unset.
var Fields = []Field{
	{"source_file", regexp.MustCompile(`^for RISC-V executable obtained from (.+)`), func(h *model.Header, v string) { h.SourceFile = &v }},
	{"kmin", regexp.MustCompile(`^with -kmin (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.KMin })},
	{"kmax", regexp.MustCompile(`^with .* -kmax (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.KMax })},
	{"bytecode", regexp.MustCompile(`^with (\d+) bytes of code`), intField(func(h *model.Header) **int64 { return &h.BytecodeSize })},
	{"data", regexp.MustCompile(`^and (\d+) bytes of data`), intField(func(h *model.Header) **int64 { return &h.DataSize })},
	{"virtual_address", regexp.MustCompile(`^with -virtualaddressspace (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.VirtualAddressSpace })},
	{"code_word", regexp.MustCompile(`^with -codewordsize (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.CodeWordSize })},
	{"memory_word", regexp.MustCompile(`^with -memorywordsize (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.MemoryWordSize })},
	{"heap", regexp.MustCompile(`^with -heapallowance (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.HeapAllowance })},
	{"stack", regexp.MustCompile(`^with -stackallowance (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.StackAllowance })},
	{"cores", regexp.MustCompile(`^with -cores (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.Cores })},
	{"bytes_to_read", regexp.MustCompile(`^with -bytestoread (\d+)\b`), intField(func(h *model.Header) **int64 { return &h.BytesToRead })},
	{"constants", regexp.MustCompile(`^with -constantpropagation\b`), func(h *model.Header, _ string) { h.ConstantsPropagated = true }},
	{"nocomments", regexp.MustCompile(`^with -nocomments\b`), func(h *model.Header, _ string) { h.CommentsRemoved = true }},
}

func intField(slot func(h *model.Header) **int64) func(*model.Header, string) {
	return func(h *model.Header, v string) {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return
		}
		*slot(h) = &n
	}
}

// Extract applies every matching row of Fields to h. A line that matches no
// row but looks like a bare "with -flag" marker adds the flag to h.Flags,
// once, in first-seen order. It reports whether the line was recognized.
func Extract(h *model.Header, line string) bool {
	if !IsComment(line) {
		return false
	}
	body := commentBody(line)

	matched := false
	for _, f := range Fields {
		m := f.Pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		var value string
		if len(m) > 1 {
			value = m[1]
		}
		f.Set(h, value)
		matched = true
	}
	if matched {
		return true
	}

	m := markerRe.FindStringSubmatch(body)
	if m == nil {
		return false
	}
	flag := strings.ReplaceAll(m[1], "_", "-")
	for _, existing := range h.Flags {
		if existing == flag {
			return true
		}
	}
	h.Flags = append(h.Flags, flag)
	return true
}

// ParseHeader reads the leading comment block of the model at path.
// Scanning stops at the first line that is neither a comment nor blank.
func ParseHeader(path string) (*model.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := &model.Header{Flags: []string{}}
	sc := NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if IsBlank(line) {
			continue
		}
		if !IsComment(line) {
			break
		}
		Extract(h, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return h, nil
}
