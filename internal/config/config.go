// Package config loads rotorbench configuration from defaults, an optional
// YAML file and ROTORBENCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// FileName is the base name of the configuration file searched in the
// working directory.
const FileName = "rotorbench.yaml"

// DefaultYAML is the built-in configuration. `rotorbench init` writes it out.
const DefaultYAML = `# rotorbench configuration
rotor_path: ./rotor
models_dir: models
examples_dir: examples
allowed_languages: [".c"]
timeout: 60s

# Model types nest by name: the path to a node with a "command" is joined
# with "-" to form the model type, e.g. starc-64bit-riscv-smt2.
# Placeholders: {rotor}, {source_file}, {output}, {output_machine_code}.
models:
  starc:
    64bit:
      riscv:
        smt2:
          command: "{rotor} -c {source_file} - 0 -smt -o {output}"
        btor2:
          command: "{rotor} -c {source_file} - 0 -o {output}"
          format: btor2
    32bit:
      riscv:
        smt2:
          command: "{rotor} -m32 -c {source_file} - 0 -smt -o {output}"
  gcc:
    64bit:
      riscv:
        smt2:
          compilation_command: "riscv64-unknown-elf-gcc -O0 -static -o {output_machine_code} {source_file}"
          command: "{rotor} -l {source_file} - 0 -smt -o {output}"

solvers:
  z3:
    command: z3
    args: ["-smt2"]
    formats: [smt2]
  bitwuzla:
    command: bitwuzla
    formats: [smt2, btor2]
  boolector:
    command: boolector
    formats: [smt2, btor2]
`

// ModelType describes how to generate one kind of model.
type ModelType struct {
	Name               string
	Command            string
	CompilationCommand string
	Format             string
}

// Solver describes an external solver binary.
type Solver struct {
	Name    string   `mapstructure:"-"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Formats []string `mapstructure:"formats"`
}

// Config is the resolved configuration.
type Config struct {
	RotorPath        string
	ModelsDir        string
	ExamplesDir      string
	AllowedLanguages []string
	Timeout          time.Duration
	Models           map[string]ModelType
	Solvers          map[string]Solver
}

// New returns a viper instance preloaded with the built-in defaults and bound
// to ROTORBENCH_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(DefaultYAML)); err != nil {
		panic(fmt.Sprintf("config: built-in defaults: %v", err))
	}
	v.SetEnvPrefix("ROTORBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges the configuration file at path into v. With an empty path
// it looks for FileName in the working directory and tolerates its absence.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
	v.AddConfigPath(".")
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load resolves v into a Config. A leading "~" in the path keys is
// expanded to the home directory.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AllowedLanguages: v.GetStringSlice("allowed_languages"),
		Timeout:          v.GetDuration("timeout"),
		Solvers:          map[string]Solver{},
	}
	for _, p := range []struct {
		key string
		dst *string
	}{
		{"rotor_path", &cfg.RotorPath},
		{"models_dir", &cfg.ModelsDir},
		{"examples_dir", &cfg.ExamplesDir},
	} {
		expanded, err := homedir.Expand(v.GetString(p.key))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.key, err)
		}
		*p.dst = expanded
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", v.GetString("timeout"))
	}

	models, err := flattenModels(v.GetStringMap("models"))
	if err != nil {
		return nil, err
	}
	cfg.Models = models

	var solvers map[string]Solver
	if err := v.UnmarshalKey("solvers", &solvers); err != nil {
		return nil, fmt.Errorf("decoding solvers: %w", err)
	}
	for name, s := range solvers {
		if s.Command == "" {
			return nil, fmt.Errorf("solver %q: missing command", name)
		}
		s.Name = name
		cfg.Solvers[name] = s
	}
	return cfg, nil
}

// ModelTypes returns the configured model type names, sorted.
func (c *Config) ModelTypes() []string {
	names := make([]string, 0, len(c.Models))
	for name := range c.Models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type pending struct {
	node map[string]any
	path []string
}

// flattenModels walks the nested models tree breadth-first. Every node that
// has a "command" key becomes a model type named by its joined path.
func flattenModels(root map[string]any) (map[string]ModelType, error) {
	out := map[string]ModelType{}
	queue := []pending{{node: root}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cmd, ok := cur.node["command"]; ok {
			name := strings.Join(cur.path, "-")
			if name == "" {
				return nil, errors.New("models: command at top level")
			}
			mt := ModelType{
				Name:               name,
				Command:            fmt.Sprint(cmd),
				CompilationCommand: stringValue(cur.node["compilation_command"]),
				Format:             stringValue(cur.node["format"]),
			}
			if mt.Format == "" {
				mt.Format = cur.path[len(cur.path)-1]
			}
			out[name] = mt
			continue
		}

		keys := make([]string, 0, len(cur.node))
		for k := range cur.node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, ok := asMap(cur.node[k])
			if !ok {
				continue
			}
			path := append(append([]string{}, cur.path...), k)
			queue = append(queue, pending{node: child, path: path})
		}
	}
	return out, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
