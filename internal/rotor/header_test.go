package rotor

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/phobologic/rotorbench/internal/model"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.smt2")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsCommentAndBlank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line    string
		comment bool
		blank   bool
	}{
		{"; hello", true, false},
		{"   ;; indented", true, false},
		{"\t; tab", true, false},
		{"", false, true},
		{"   \t ", false, true},
		{"(define-fun x () Bool true)", false, false},
		{"x ; trailing", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			if got := IsComment(tt.line); got != tt.comment {
				t.Errorf("IsComment(%q) = %v, want %v", tt.line, got, tt.comment)
			}
			if got := IsBlank(tt.line); got != tt.blank {
				t.Errorf("IsBlank(%q) = %v, want %v", tt.line, got, tt.blank)
			}
		})
	}
}

func TestExtractNumericFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		get  func(h *model.Header) *int64
		want int64
	}{
		{"; with -kmin 3", func(h *model.Header) *int64 { return h.KMin }, 3},
		{"; with -kmin 0 -kmax 100", func(h *model.Header) *int64 { return h.KMax }, 100},
		{"; with 1024 bytes of code", func(h *model.Header) *int64 { return h.BytecodeSize }, 1024},
		{"; and 56 bytes of data", func(h *model.Header) *int64 { return h.DataSize }, 56},
		{"; with -virtualaddressspace 32", func(h *model.Header) *int64 { return h.VirtualAddressSpace }, 32},
		{"; with -codewordsize 64", func(h *model.Header) *int64 { return h.CodeWordSize }, 64},
		{"; with -memorywordsize 32", func(h *model.Header) *int64 { return h.MemoryWordSize }, 32},
		{"; with -heapallowance 2048", func(h *model.Header) *int64 { return h.HeapAllowance }, 2048},
		{"; with -stackallowance 4096", func(h *model.Header) *int64 { return h.StackAllowance }, 4096},
		{"; with -cores 2", func(h *model.Header) *int64 { return h.Cores }, 2},
		{"; with -bytestoread 1", func(h *model.Header) *int64 { return h.BytesToRead }, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			h := &model.Header{}
			if !Extract(h, tt.line) {
				t.Fatalf("Extract(%q) recorded nothing", tt.line)
			}
			got := tt.get(h)
			if got == nil {
				t.Fatalf("field not set for %q", tt.line)
			}
			if *got != tt.want {
				t.Errorf("value = %d, want %d", *got, tt.want)
			}
			if len(h.Flags) != 0 {
				t.Errorf("unexpected flags %v", h.Flags)
			}
		})
	}
}

func TestExtractLargeNumbers(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; with -kmin 9223372036854775807")
	if h.KMin == nil || *h.KMin != 9223372036854775807 {
		t.Errorf("kmin = %v, want max int64", h.KMin)
	}

	for _, tt := range []struct {
		line string
		get  func(h *model.Header) *int64
	}{
		{"; with -kmin 9223372036854775808", func(h *model.Header) *int64 { return h.KMin }},
		{"; with -heapallowance 12345678901234567890123", func(h *model.Header) *int64 { return h.HeapAllowance }},
		{"; with 99999999999999999999 bytes of code", func(h *model.Header) *int64 { return h.BytecodeSize }},
		{"; with -cores 4x", func(h *model.Header) *int64 { return h.Cores }},
	} {
		h := &model.Header{}
		Extract(h, tt.line)
		if got := tt.get(h); got != nil {
			t.Errorf("Extract(%q) set field to %d, want unset", tt.line, *got)
		}
		if len(h.Flags) != 0 {
			t.Errorf("Extract(%q) added flags %v", tt.line, h.Flags)
		}
	}
}

func TestExtractKMinAndKMaxOnOneLine(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; with -kmin 1 -kmax 9")
	if h.KMin == nil || *h.KMin != 1 {
		t.Errorf("kmin = %v, want 1", h.KMin)
	}
	if h.KMax == nil || *h.KMax != 9 {
		t.Errorf("kmax = %v, want 9", h.KMax)
	}
}

func TestExtractSourceFile(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; for RISC-V executable obtained from examples/c/loop.c")
	if h.SourceFile == nil || *h.SourceFile != "examples/c/loop.c" {
		t.Errorf("source_file = %v", h.SourceFile)
	}
}

func TestExtractNoComments(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; with -nocomments")
	if !h.CommentsRemoved {
		t.Error("comments_removed not set")
	}
	if len(h.Flags) != 0 {
		t.Errorf("nocomments duplicated into flags: %v", h.Flags)
	}
}

func TestExtractConstantPropagation(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; with -constantpropagation")
	if !h.ConstantsPropagated {
		t.Error("constants_propagated not set")
	}
}

// TestExtractUnknownMarkers verifies flags are normalized and recorded once
// each, in the order they first appear.
func TestExtractUnknownMarkers(t *testing.T) {
	t.Parallel()

	h := &model.Header{}
	Extract(h, "; with -somenewflag")
	Extract(h, "; with -linear_address_space")
	Extract(h, "; with -somenewflag")
	Extract(h, "; with -MMU")

	want := []string{"somenewflag", "linear-address-space", "MMU"}
	if len(h.Flags) != len(want) {
		t.Fatalf("flags = %v, want %v", h.Flags, want)
	}
	for i := range want {
		if h.Flags[i] != want[i] {
			t.Errorf("flags[%d] = %q, want %q", i, h.Flags[i], want[i])
		}
	}
}

func TestExtractIgnoresNonHeaderLines(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"(define-fun x () Bool true)",
		"; plain comment",
		"; with -unknownvalue 42",
		"",
	} {
		h := &model.Header{}
		if Extract(h, line) {
			t.Errorf("Extract(%q) = true", line)
		}
	}
}

func TestParseHeaderStopsAtFirstCommand(t *testing.T) {
	t.Parallel()

	path := writeModel(t, "; with -kmin 2\n"+
		"; with rotor -kmax 7\n"+
		"; generated SMT-LIB file out.smt2\n"+
		"(set-logic QF_BV)\n"+
		"; with -cores 4\n"+
		"; with -nocomments\n")

	h, err := ParseHeader(path)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.KMin == nil || *h.KMin != 2 {
		t.Errorf("kmin = %v, want 2", h.KMin)
	}
	if h.KMax == nil || *h.KMax != 7 {
		t.Errorf("kmax = %v, want 7", h.KMax)
	}
	if h.Cores != nil {
		t.Errorf("cores read past header: %d", *h.Cores)
	}
	if h.CommentsRemoved {
		t.Error("nocomments read past header")
	}
	for name, v := range map[string]*int64{
		"bytecode": h.BytecodeSize, "data": h.DataSize, "heap": h.HeapAllowance,
		"stack": h.StackAllowance, "bytestoread": h.BytesToRead,
	} {
		if v != nil {
			t.Errorf("%s unexpectedly set", name)
		}
	}
}

func TestParseHeaderBlankLinesAndEOF(t *testing.T) {
	t.Parallel()

	path := writeModel(t, "; with -heapallowance 8\n\n   \n; with -stackallowance 16")
	h, err := ParseHeader(path)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.HeapAllowance == nil || *h.HeapAllowance != 8 {
		t.Errorf("heap = %v", h.HeapAllowance)
	}
	if h.StackAllowance == nil || *h.StackAllowance != 16 {
		t.Errorf("stack = %v", h.StackAllowance)
	}
	if h.Flags == nil {
		t.Error("flags should be an empty slice, not nil")
	}
}

func TestParseHeaderMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ParseHeader(filepath.Join(t.TempDir(), "missing.smt2"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestSignature(t *testing.T) {
	t.Parallel()

	m := SignatureRe.FindStringSubmatch("; generated SMT-LIB file models/loop.smt2")
	if m == nil {
		t.Fatal("signature not matched")
	}
	if m[1] != "models/loop.smt2" {
		t.Errorf("path = %q", m[1])
	}
	if SignatureRe.MatchString("; Generated smt-lib file x.smt2") {
		t.Error("signature must be case-sensitive")
	}
	if SignatureRe.MatchString("; generated SMT-LIB file x.btor2") {
		t.Error("signature requires .smt2 path")
	}
}
