// Package generate turns source programs into models by running the
// configured compiler and Rotor commands.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/phobologic/rotorbench/internal/config"
	"github.com/phobologic/rotorbench/internal/discover"
	"github.com/phobologic/rotorbench/internal/format"
	"github.com/phobologic/rotorbench/internal/model"
)

var (
	ErrUnknownModelType = errors.New("unknown model type")
	ErrLanguage         = errors.New("source language not allowed")
	ErrGeneration       = errors.New("model generation failed")
	ErrOutputNotDir     = errors.New("output must be a directory for several sources")
)

// Outcome says what Generate did for one source and model type.
type Outcome string

const (
	Generated   Outcome = "generated"
	Regenerated Outcome = "regenerated"
	Fresh       Outcome = "fresh"
)

// Runner executes a shell command line and returns its combined output.
type Runner func(ctx context.Context, command string) ([]byte, error)

// Shell runs command with sh -c.
func Shell(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
}

// Generator generates models according to a configuration.
type Generator struct {
	Config *config.Config
	Run    Runner
	// Force regenerates models that are newer than their source.
	Force bool
}

// New returns a Generator running commands through the shell.
func New(cfg *config.Config, force bool) *Generator {
	return &Generator{Config: cfg, Run: Shell, Force: force}
}

// Result is the model produced for one source file.
type Result struct {
	Model   model.Model
	Outcome Outcome
}

// OutputPath returns where the model of source for modelType is written.
// An empty output means the configured models directory; an existing
// directory, or a path ending in a separator, gets a file named after the
// source and model type.
func (g *Generator) OutputPath(source, modelType, output string) (string, error) {
	mt, ok := g.Config.Models[modelType]
	if !ok {
		return "", fmt.Errorf("%q: %w", modelType, ErrUnknownModelType)
	}
	if output == "" {
		output = g.Config.ModelsDir + string(filepath.Separator)
	}

	if !isDirPath(output) {
		return output, nil
	}

	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(output, fmt.Sprintf("%s-%s.%s", stem, modelType, mt.Format)), nil
}

// Generate produces the model of source for modelType, skipping the work
// when an existing model is newer than its source.
func (g *Generator) Generate(ctx context.Context, source, modelType, output string) (*Result, error) {
	mt, ok := g.Config.Models[modelType]
	if !ok {
		return nil, fmt.Errorf("%q: %w", modelType, ErrUnknownModelType)
	}
	if !g.languageAllowed(source) {
		return nil, fmt.Errorf("%s: %w (allowed: %s)", source, ErrLanguage, strings.Join(g.Config.AllowedLanguages, ", "))
	}
	srcInfo, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}

	out, err := g.OutputPath(source, modelType, output)
	if err != nil {
		return nil, err
	}
	res := &Result{Model: model.Model{
		Path:       out,
		Format:     model.Format(mt.Format),
		ModelType:  modelType,
		SourcePath: source,
	}}
	if f, err := format.Lookup(mt.Format); err == nil {
		res.Model.Format = f.Name
	}

	res.Outcome = Generated
	if outInfo, err := os.Stat(out); err == nil {
		if !g.Force && outInfo.ModTime().After(srcInfo.ModTime()) {
			res.Outcome = Fresh
			log.Debug().Str("model", out).Msg("model is up to date")
			return res, nil
		}
		res.Outcome = Regenerated
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	log.Info().Str("source", source).Str("type", modelType).Msg("generating model")
	input := source
	if mt.CompilationCommand != "" {
		binary := strings.TrimSuffix(source, filepath.Ext(source)) + ".out"
		cmd := expand(mt.CompilationCommand, map[string]string{
			"source_file":         source,
			"output_machine_code": binary,
		})
		if msg, err := g.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("compiling %s: %w: %v\n%s", source, ErrGeneration, err, msg)
		}
		defer os.Remove(binary)
		input = binary
	}

	cmd := expand(mt.Command, map[string]string{
		"rotor":       g.Config.RotorPath,
		"source_file": input,
		"output":      out,
	})
	if msg, err := g.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("%s: %w: %v\n%s", source, ErrGeneration, err, msg)
	}
	log.Info().Str("model", out).Str("outcome", string(res.Outcome)).Msg("generated model")
	return res, nil
}

// isDirPath reports whether output names a directory, either one that exists
// or one spelled with a trailing separator.
func isDirPath(output string) bool {
	if strings.HasSuffix(output, string(filepath.Separator)) || strings.HasSuffix(output, "/") {
		return true
	}
	info, err := os.Stat(output)
	return err == nil && info.IsDir()
}

func (g *Generator) languageAllowed(source string) bool {
	ext := strings.ToLower(filepath.Ext(source))
	for _, allowed := range g.Config.AllowedLanguages {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// Sources generates a model of every allowed source under root (a directory
// or a single file). Failures are collected; the other sources proceed.
// A file output is only accepted when a single source is found.
func (g *Generator) Sources(ctx context.Context, root, modelType, output string) ([]*Result, error) {
	entries, err := discover.Sources(root, g.Config.AllowedLanguages)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: no source files found", root)
	}
	if len(entries) > 1 && output != "" && !isDirPath(output) {
		return nil, fmt.Errorf("%s: %w (%d sources found)", output, ErrOutputNotDir, len(entries))
	}

	var results []*Result
	var errs *multierror.Error
	for _, e := range entries {
		res, err := g.Generate(ctx, e.Path, modelType, output)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs.ErrorOrNil()
}

// Examples regenerates every configured model type for every example source
// into the models directory.
func (g *Generator) Examples(ctx context.Context) ([]*Result, error) {
	var results []*Result
	var errs *multierror.Error
	for _, modelType := range g.Config.ModelTypes() {
		out := filepath.Join(g.Config.ModelsDir, modelType) + string(filepath.Separator)
		res, err := g.Sources(ctx, g.Config.ExamplesDir, modelType, out)
		results = append(results, res...)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return results, errs.ErrorOrNil()
}

// Clean removes the models directory.
func Clean(cfg *config.Config) error {
	if cfg.ModelsDir == "" {
		return nil
	}
	if err := os.RemoveAll(cfg.ModelsDir); err != nil {
		return fmt.Errorf("cleaning %s: %w", cfg.ModelsDir, err)
	}
	return nil
}

// expand substitutes {name} placeholders with shell-quoted values.
func expand(template string, values map[string]string) string {
	var pairs []string
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", shellQuote(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r == '/' || r == '.' || r == '-' || r == '_' || r == '+' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
