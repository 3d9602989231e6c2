// rotorbench generates Rotor models from source programs, analyzes them,
// runs SMT solvers on them and reports the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phobologic/rotorbench/internal/config"
	"github.com/phobologic/rotorbench/internal/discover"
	"github.com/phobologic/rotorbench/internal/format"
	"github.com/phobologic/rotorbench/internal/generate"
	"github.com/phobologic/rotorbench/internal/logging"
	"github.com/phobologic/rotorbench/internal/model"
	"github.com/phobologic/rotorbench/internal/present"
	"github.com/phobologic/rotorbench/internal/ranking"
	"github.com/phobologic/rotorbench/internal/solver"
	"github.com/phobologic/rotorbench/internal/source"
)

var version = "dev"

const defaultModelBase = "starc-64bit-riscv-smt2"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type options struct {
	configPath  string
	source      string
	modelBase   string
	output      string
	load        string
	solver      string
	format      string
	report      string
	sortKey     string
	filter      string
	query       string
	maxModels   int
	clean       bool
	examples    bool
	force       bool
	detailed    bool
	verbose     bool
	noColor     bool
	logFile     string
	showVersion bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options
	v := config.New()

	cmd := &cobra.Command{
		Use:           "rotorbench [flags]",
		Short:         "Benchmark Rotor models and SMT solvers",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.showVersion {
				_, _ = fmt.Fprintf(stdout, "rotorbench %s\n", version)
				return nil
			}
			if cmd.Flags().NFlag() == 0 {
				return cmd.Help()
			}
			return runBench(cmd.Context(), v, &opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "configuration file (default ./"+config.FileName+")")
	f.StringVarP(&opts.source, "source", "s", "", "source file or directory to generate models from")
	f.StringVarP(&opts.modelBase, "model-base", "m", defaultModelBase, "model type to generate")
	f.StringVarP(&opts.output, "output", "o", "", "output file or directory for generated models")
	f.StringVarP(&opts.load, "load", "l", "", "load existing models from a file or directory")
	f.StringVar(&opts.solver, "solver", "", "solver to run on every model")
	f.DurationP("timeout", "t", 0, "solver timeout per model (default from config)")
	f.String("rotor", "", "path to the rotor binary (default from config)")
	f.StringVarP(&opts.format, "format", "f", present.Plain, "output format: "+strings.Join(present.Formats, ", "))
	f.StringVar(&opts.report, "report", "", "write the report to this file instead of stdout")
	f.StringVar(&opts.sortKey, "sort", "name", "sort models by: "+strings.Join(ranking.Keys, ", "))
	f.StringVar(&opts.filter, "filter", "", "only report models whose path or type contains this text")
	f.StringVarP(&opts.query, "query", "q", "", "JMESPath query applied to the json report")
	f.IntVarP(&opts.maxModels, "max-models", "n", 0, "maximum number of models to report")
	f.BoolVar(&opts.clean, "clean", false, "remove the models directory")
	f.BoolVar(&opts.examples, "generate-examples", false, "regenerate every model type for the example sources")
	f.BoolVar(&opts.force, "force", false, "regenerate models that are up to date")
	f.BoolVarP(&opts.detailed, "detailed", "d", false, "include full statistics in plain output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")
	f.BoolVarP(&opts.showVersion, "version", "V", false, "show version and exit")

	_ = v.BindPFlag("timeout", f.Lookup("timeout"))
	_ = v.BindPFlag("rotor_path", f.Lookup("rotor"))

	cmd.AddCommand(newInitCmd(stdout, stderr), newAnalyzeCmd(stdout))
	return cmd
}

func runBench(ctx context.Context, v *viper.Viper, opts *options, stdout, stderr io.Writer) error {
	closeLog, err := logging.Configure(stderr, opts.verbose, opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := config.ReadFile(v, opts.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	if opts.clean {
		if err := generate.Clean(cfg); err != nil {
			return err
		}
		log.Info().Str("dir", cfg.ModelsDir).Msg("output directories cleaned")
	}

	gen := generate.New(cfg, opts.force)
	var errs *multierror.Error

	if opts.examples {
		results, err := gen.Examples(ctx)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		log.Info().Int("models", len(results)).Msg("generated examples")
	}

	var models []model.Model

	if opts.load != "" {
		loaded, err := loadModels(opts.load)
		if err != nil {
			return fmt.Errorf("loading models: %w", err)
		}
		models = append(models, loaded...)
	}

	if opts.source != "" {
		results, err := gen.Sources(ctx, opts.source, opts.modelBase, opts.output)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		for _, r := range results {
			models = append(models, r.Model)
		}
	}

	if len(models) == 0 {
		if opts.load != "" || opts.source != "" {
			errs = multierror.Append(errs, errors.New("no models found"))
		}
		return errs.ErrorOrNil()
	}

	models = analyzeConcurrent(models)
	if len(models) == 0 {
		return multierror.Append(errs, errors.New("no models could be analyzed")).ErrorOrNil()
	}

	models = ranking.Filter(models, opts.filter)
	if err := ranking.Sort(models, opts.sortKey); err != nil {
		return err
	}
	models = ranking.Select(models, opts.maxModels)

	if opts.solver != "" {
		s, err := solver.NewRegistry(cfg).Get(opts.solver)
		if err != nil {
			return err
		}
		solver.RunAll(ctx, s, models)
	}

	out := stdout
	colored := !opts.noColor && logging.IsTerminal(stdout)
	if opts.report != "" {
		f, err := os.Create(opts.report)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		out = f
		colored = false
	}

	renderOpts := present.Options{
		Format:   opts.format,
		Detailed: opts.detailed,
		Color:    colored,
		Name:     runName(opts),
		Query:    opts.query,
	}
	if err := present.Render(out, models, renderOpts); err != nil {
		return err
	}
	if opts.solver != "" && opts.format != present.JSON && opts.format != present.TOON {
		present.Solvers(out, solver.Summarize(models))
	}

	return errs.ErrorOrNil()
}

func loadModels(root string) ([]model.Model, error) {
	entries, err := discover.Models(root)
	if err != nil {
		return nil, err
	}
	models := make([]model.Model, 0, len(entries))
	for _, e := range entries {
		models = append(models, model.Model{Path: e.Path, Format: e.Format})
	}
	return models, nil
}

func runName(opts *options) string {
	for _, p := range []string{opts.load, opts.source} {
		if p != "" {
			if abs, err := filepath.Abs(p); err == nil {
				return filepath.Base(abs)
			}
			return filepath.Base(p)
		}
	}
	return "rotorbench"
}

// analyzeConcurrent parses every model and, when its source program is
// known, the source. Models that cannot be parsed are dropped with a warning.
func analyzeConcurrent(models []model.Model) []model.Model {
	type result struct {
		index int
		model model.Model
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(models) {
		numWorkers = len(models)
	}

	work := make(chan int, len(models))
	results := make(chan result, len(models))

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				m := models[idx]
				stats, err := format.Parse(m.Path)
				if err != nil {
					log.Warn().Err(err).Str("model", m.Path).Msg("skipped")
					continue
				}
				m.Stats = stats

				src := m.SourcePath
				if src == "" && stats.Header != nil && stats.Header.SourceFile != nil {
					src = *stats.Header.SourceFile
				}
				if src != "" {
					if ss, err := source.Analyze(src); err == nil {
						m.Source = ss
					} else {
						log.Debug().Err(err).Str("source", src).Msg("source not analyzed")
					}
				}
				results <- result{index: idx, model: m}
			}
		}()
	}

	for i := range models {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in input order
	indexed := make([]model.Model, len(models))
	valid := make([]bool, len(models))
	for r := range results {
		indexed[r.index] = r.model
		valid[r.index] = true
	}

	var analyzed []model.Model
	for i, ok := range valid {
		if ok {
			analyzed = append(analyzed, indexed[i])
		}
	}
	return analyzed
}
