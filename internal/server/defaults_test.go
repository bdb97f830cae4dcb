package server

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir switches the working directory for the duration of the test,
// since loadSchedulerPreset reads scheduler_defaults.yaml relative to cwd.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadSchedulerPreset_KnownName(t *testing.T) {
	dir := t.TempDir()
	body := "version: \"1\"\npresets:\n  greedy:\n    batch: 64\n    topk: 0\n  topk:\n    batch: 0\n    topk: 10\n"
	if err := os.WriteFile(filepath.Join(dir, defaultsFilePath), []byte(body), 0o600); err != nil {
		t.Fatalf("write defaults: %v", err)
	}
	chdir(t, dir)

	got := loadSchedulerPreset("greedy")
	if got.Batch != 64 {
		t.Errorf("greedy preset batch = %d, want 64", got.Batch)
	}

	got = loadSchedulerPreset("topk")
	if got.TopK != 10 {
		t.Errorf("topk preset topk = %d, want 10", got.TopK)
	}
}

func TestLoadSchedulerPreset_UnknownNameIsZero(t *testing.T) {
	dir := t.TempDir()
	body := "version: \"1\"\npresets:\n  greedy:\n    batch: 64\n    topk: 0\n"
	if err := os.WriteFile(filepath.Join(dir, defaultsFilePath), []byte(body), 0o600); err != nil {
		t.Fatalf("write defaults: %v", err)
	}
	chdir(t, dir)

	got := loadSchedulerPreset("ilp")
	if got.Batch != 0 || got.TopK != 0 {
		t.Errorf("unknown preset = %+v, want zero value", got)
	}
}

func TestLoadSchedulerPreset_MissingFileIsZero(t *testing.T) {
	chdir(t, t.TempDir())
	got := loadSchedulerPreset("greedy")
	if got.Batch != 0 || got.TopK != 0 {
		t.Errorf("missing-file preset = %+v, want zero value", got)
	}
}

func TestLoadSchedulerPreset_MalformedYAMLIsZero(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, defaultsFilePath), []byte("not: [valid: yaml"), 0o600); err != nil {
		t.Fatalf("write defaults: %v", err)
	}
	chdir(t, dir)

	got := loadSchedulerPreset("greedy")
	if got.Batch != 0 || got.TopK != 0 {
		t.Errorf("malformed-yaml preset = %+v, want zero value", got)
	}
}
