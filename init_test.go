package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phobologic/rotorbench/internal/config"
)

func runInit(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), append([]string{"init"}, args...), &stdout, &stderr); err != nil {
		t.Fatalf("init: %v\nstderr: %s", err, stderr.String())
	}
	return stdout.String(), stderr.String()
}

// TestApplySectionCreate verifies that applySection on empty content returns
// just the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("got %q", got)
	}
}

// TestApplySectionAppend verifies that settings outside a sentinel block are
// preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# local overrides\ntimeout: 5s"
	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasPrefix(got, existing+"\n\n") {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.HasSuffix(got, sentinelEnd+"\n") {
		t.Errorf("section should be appended:\n%s", got)
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# team settings\n\n"
	after := "\n\nexamples_dir: programs\n"
	old := before + sentinelStart + "\nold content\n" + sentinelEnd + after

	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old content") {
		t.Error("old content should be replaced")
	}
}

func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)

	_, stderr := runInit(t, path)
	if !strings.Contains(stderr, path) {
		t.Errorf("stderr should name the file: %q", stderr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, sentinelStart) {
		t.Error("file should start with the sentinel")
	}
	if !strings.Contains(content, "\n# rotor_path: ./rotor\n") {
		t.Error("commented default configuration missing")
	}
}

// TestInitFileLoads verifies the written file is valid configuration.
func TestInitFileLoads(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)
	runInit(t, path)

	v := config.New()
	if err := config.ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Models["starc-64bit-riscv-smt2"]; !ok {
		t.Errorf("model types = %v", cfg.ModelTypes())
	}
}

// TestInitFileOverrides verifies settings written outside the block take
// effect and do not clash with the defaults inside it.
func TestInitFileOverrides(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)
	runInit(t, path)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("\ntimeout: 5s\nmodels_dir: out\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	runInit(t, path)

	v := config.New()
	if err := config.ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Timeout)
	}
	if cfg.ModelsDir != "out" {
		t.Errorf("models_dir = %q, want out", cfg.ModelsDir)
	}
	if cfg.RotorPath != "./rotor" {
		t.Errorf("rotor_path = %q, want the default", cfg.RotorPath)
	}
}

func TestInitDryRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)

	out, _ := runInit(t, "--dry-run", path)
	if _, err := os.Stat(path); err == nil {
		t.Error("--dry-run should not create the file")
	}
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, sentinelEnd) {
		t.Errorf("dry-run output missing sentinels:\n%s", out)
	}
}

func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	out, _ := runInit(t, "--dry-run")
	if out != generateSection()+"\n" {
		t.Errorf("output should be exactly the section:\n%s", out)
	}
}

// TestInitDryRunShowsFullFile verifies that --dry-run on an existing file
// shows the complete would-be file content, including surrounding text.
func TestInitDryRunShowsFullFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)

	existing := "# local overrides\ntimeout: 5s\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _ := runInit(t, "--dry-run", path)
	if !strings.HasPrefix(out, existing) {
		t.Error("dry-run output missing existing file content")
	}
	if !strings.Contains(out, sentinelStart) {
		t.Error("dry-run output missing sentinel start")
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("--dry-run must not modify the file")
	}
}

func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), config.FileName)

	runInit(t, path)
	first, _ := os.ReadFile(path)
	runInit(t, path)
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestInitTooManyArgs(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"init", "a.yaml", "b.yaml"}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for two paths")
	}
}
