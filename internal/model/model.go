// Package model defines core data structures for rotorbench.
package model

import "time"

// Format identifies a model file format.
type Format string

const (
	SMT2  Format = "smt2"
	BTOR2 Format = "btor2"
)

// Header is the provenance header Rotor writes as leading comments of a
// generated model. Numeric fields are nil when the header does not carry them.
type Header struct {
	SourceFile          *string `json:"source_file,omitempty"`
	KMin                *int64  `json:"kmin,omitempty"`
	KMax                *int64  `json:"kmax,omitempty"`
	BytecodeSize        *int64  `json:"bytecode_size,omitempty"`
	DataSize            *int64  `json:"data_size,omitempty"`
	VirtualAddressSpace *int64  `json:"virtual_address_space,omitempty"`
	CodeWordSize        *int64  `json:"code_word_size,omitempty"`
	MemoryWordSize      *int64  `json:"memory_word_size,omitempty"`
	HeapAllowance       *int64  `json:"heap_allowance,omitempty"`
	StackAllowance      *int64  `json:"stack_allowance,omitempty"`
	Cores               *int64  `json:"cores,omitempty"`
	BytesToRead         *int64  `json:"bytestoread,omitempty"`

	ConstantsPropagated bool     `json:"constants_propagated"`
	CommentsRemoved     bool     `json:"comments_removed"`
	Flags               []string `json:"flags"`
}

// Statistics holds the line statistics of a single model file.
// TotalLines always equals CommentLines + BlankLines + CodeLines.
type Statistics struct {
	TotalLines     int     `json:"total_lines"`
	CommentLines   int     `json:"comment_lines"`
	BlankLines     int     `json:"blank_lines"`
	CodeLines      int     `json:"code_lines"`
	DefineCount    int     `json:"define_count"`
	RotorGenerated bool    `json:"is_rotor_generated"`
	Header         *Header `json:"rotor_header,omitempty"`
}

// SourceStats describes the C source a model was generated from.
type SourceStats struct {
	Path      string   `json:"path"`
	Lines     int      `json:"lines"`
	Functions []string `json:"functions"`
}

// Verdict is the answer of a solver on a model.
type Verdict string

const (
	Sat     Verdict = "sat"
	Unsat   Verdict = "unsat"
	Unknown Verdict = "unknown"
	Timeout Verdict = "timeout"
	Error   Verdict = "error"
)

// SolverResult records one solver run on one model.
type SolverResult struct {
	Solver   string        `json:"solver"`
	Verdict  Verdict       `json:"verdict"`
	Duration time.Duration `json:"duration_ns"`
	Output   string        `json:"output,omitempty"`
}

// Model is a generated or loaded model file together with everything
// rotorbench learned about it.
type Model struct {
	Path      string         `json:"path"`
	Format    Format         `json:"format"`
	ModelType string         `json:"model_type,omitempty"`
	Stats     *Statistics    `json:"statistics,omitempty"`
	Source    *SourceStats   `json:"source,omitempty"`
	Results   []SolverResult `json:"solver_results,omitempty"`

	// SourcePath is the program the model was generated from, when known.
	SourcePath string `json:"source_path,omitempty"`
}
