package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animexport/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileWritable(t *testing.T) {
	dir := t.TempDir()
	if _, exists := CheckFileWritable("out", filepath.Join(dir, "missing.pag")); exists {
		t.Fatal("missing file must not produce a result")
	}
	f := filepath.Join(dir, "out.pag")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, exists := CheckFileWritable("out", f)
	if !exists || !result.Passed {
		t.Fatalf("expected writable file, got %+v", result)
	}
	result, _ = CheckFileWritable("out", dir)
	if result.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = dir
	cfg.Paths.HistoryDB = filepath.Join(dir, "history.db")

	results := RunAll(&cfg, filepath.Join(dir, "out.pag"))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if err := Err(results); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}

	results = RunAll(&cfg, filepath.Join(dir, "missing", "out.pag"))
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Output directory" {
		t.Fatalf("expected output directory failure, got %+v", failed)
	}
	if err := Err(results); err == nil || !strings.Contains(err.Error(), "Output directory") {
		t.Fatalf("unexpected error %v", err)
	}
}
