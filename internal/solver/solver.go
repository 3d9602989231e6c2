// Package solver runs external SMT solvers on models.
package solver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phobologic/rotorbench/internal/config"
	"github.com/phobologic/rotorbench/internal/model"
)

// ErrUnknownSolver is returned for a solver name missing from the registry.
var ErrUnknownSolver = errors.New("unknown solver")

// Solver runs one solver on one model.
type Solver interface {
	Name() string
	Supports(f model.Format) bool
	Run(ctx context.Context, m *model.Model) model.SolverResult
}

// External is a solver invoked as a subprocess: command, args, model path.
type External struct {
	name    string
	command string
	args    []string
	formats map[model.Format]struct{}
	timeout time.Duration
}

// NewExternal returns a solver adapter for a configured binary.
func NewExternal(s config.Solver, timeout time.Duration) *External {
	e := &External{
		name:    s.Name,
		command: s.Command,
		args:    s.Args,
		formats: map[model.Format]struct{}{},
		timeout: timeout,
	}
	for _, f := range s.Formats {
		e.formats[model.Format(strings.ToLower(f))] = struct{}{}
	}
	return e
}

func (e *External) Name() string { return e.name }

// Supports reports whether the solver reads models of format f. A solver
// without configured formats accepts everything.
func (e *External) Supports(f model.Format) bool {
	if len(e.formats) == 0 {
		return true
	}
	_, ok := e.formats[f]
	return ok
}

// Run executes the solver with the configured timeout. The verdict is the
// first sat/unsat/unknown line of standard output.
func (e *External) Run(ctx context.Context, m *model.Model) model.SolverResult {
	res := model.SolverResult{Solver: e.name}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.args...), m.Path)
	cmd := exec.CommandContext(ctx, e.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res.Duration = time.Since(start)

	log.Debug().Str("solver", e.name).Str("model", m.Path).Dur("elapsed", res.Duration).Msg("solver finished")

	if ctx.Err() == context.DeadlineExceeded {
		res.Verdict = model.Timeout
		return res
	}

	verdict, found := ParseVerdict(stdout.String())
	switch {
	case found:
		res.Verdict = verdict
	case err != nil:
		res.Verdict = model.Error
		res.Output = strings.TrimSpace(err.Error() + "\n" + stderr.String())
	default:
		res.Verdict = model.Unknown
		res.Output = strings.TrimSpace(stdout.String())
	}
	return res
}

// ParseVerdict returns the first verdict line in solver output.
func ParseVerdict(output string) (model.Verdict, bool) {
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "sat":
			return model.Sat, true
		case "unsat":
			return model.Unsat, true
		case "unknown":
			return model.Unknown, true
		}
	}
	return "", false
}

// Registry maps solver names to adapters.
type Registry map[string]Solver

// NewRegistry builds adapters for every configured solver.
func NewRegistry(cfg *config.Config) Registry {
	r := Registry{}
	for name, s := range cfg.Solvers {
		r[name] = NewExternal(s, cfg.Timeout)
	}
	return r
}

// Get returns the solver registered under name.
func (r Registry) Get(name string) (Solver, error) {
	s, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w (valid: %s)", name, ErrUnknownSolver, strings.Join(r.Names(), ", "))
	}
	return s, nil
}

// Names returns the registered solver names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAll runs s on every model it supports, appending the results to the
// models. Models of unsupported formats are skipped.
func RunAll(ctx context.Context, s Solver, models []model.Model) {
	for i := range models {
		m := &models[i]
		if !s.Supports(m.Format) {
			log.Warn().Str("solver", s.Name()).Str("model", m.Path).Msg("format not supported, skipped")
			continue
		}
		if ctx.Err() != nil {
			return
		}
		m.Results = append(m.Results, s.Run(ctx, m))
	}
}
