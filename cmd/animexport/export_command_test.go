package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animexport/internal/diag"
	"animexport/internal/exporter"
	"animexport/internal/history"
	"animexport/internal/testsupport"
)

const cliProject = `
name = "CLI"

[[composition]]
id = 1
name = "Main"
width = 640
height = 480
frame_rate = 25
duration = 50

  [[composition.layer]]
  id = 10
  name = "Caption"
  kind = "text"
  features = ["TextSourceV3"]
  effects = ["Lens Flare"]

  [[composition.layer]]
  id = 11
  name = "Spark"
  kind = "precomp"
  source = "Spark_bmp"

[[composition]]
id = 2
name = "Spark_bmp"
width = 256
height = 256
frame_rate = 24
duration = 24

  [[composition.layer]]
  id = 20
  name = "Flare"
  kind = "shape"
`

func TestExportCommandWritesFileAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := testsupport.WriteManifest(t, env.baseDir, "project.toml", cliProject)
	outDir := filepath.Join(env.baseDir, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}
	output := filepath.Join(outDir, "main.pag")

	out, _, err := runCLI(t, []string{"export", manifestPath, "-o", output}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	requireContains(t, out, "[OK] wrote")
	requireContains(t, out, "UnsupportedEffects")
	requireContains(t, out, "Count")
	requireContains(t, out, "Spark_bmp")
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output file: %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, output)

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list --json: %v", err)
	}
	var sessions []sessionView
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("decode history json: %v\n%s", err, out)
	}
	if len(sessions) != 1 || sessions[0].Status != "completed" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	out, _, err = runCLI(t, []string{"history", "show", sessions[0].ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Lens Flare")
	requireContains(t, out, "Tag level")
	requireContains(t, out, "Count")
}

func TestExportCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())
	manifestPath := testsupport.WriteManifest(t, env.baseDir, "project.toml", cliProject)
	output := filepath.Join(env.baseDir, "main.pag")

	out, _, err := runCLI(t, []string{"export", manifestPath, "--output", output, "--comp", "Main", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("export --json: %v", err)
	}
	var view reportView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if view.Status != "completed" || view.Bytes == 0 {
		t.Fatalf("unexpected report: %+v", view)
	}
	if view.TagMode != "stable" || view.TagLevel != 80 {
		t.Fatalf("unexpected tag level: %s %d", view.TagMode, view.TagLevel)
	}
	if view.Warnings == 0 || len(view.Diagnostics) != view.Warnings+view.Errors {
		t.Fatalf("diagnostic counts do not match: %+v", view)
	}
	if len(view.Sequences) != 1 || view.Sequences[0].Name != "Spark_bmp" || view.Sequences[0].Policy != "sample" {
		t.Fatalf("unexpected sequences: %+v", view.Sequences)
	}

	if _, _, err := runCLI(t, []string{"history", "list"}, env.configPath); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected disabled history error, got %v", err)
	}
}

func TestPrintReportGroupsRepeatedDiagnostics(t *testing.T) {
	rec := diag.Record{Kind: diag.UnsupportedEffects, CompositionID: 1, LayerID: 10, Extra: "Lens Flare"}
	report := &exporter.Report{
		SessionID: "s1",
		Status:    history.StatusCompleted,
		Diagnostics: []exporter.Diagnostic{
			{Record: rec, Message: "first"},
			{Record: rec, Message: "second"},
		},
		Groups: []exporter.Group{{Diagnostic: exporter.Diagnostic{Record: rec, Message: "first"}, Count: 2}},
	}
	var buf bytes.Buffer
	printReport(&buf, report, false)
	out := buf.String()

	requireContains(t, out, "[WARN] 2 warnings, 0 errors")
	requireContains(t, out, "first")
	if strings.Contains(out, "second") {
		t.Fatalf("grouped output repeats a folded record:\n%s", out)
	}
}

func TestExportCommandRequiresOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := testsupport.WriteManifest(t, env.baseDir, "project.toml", cliProject)

	if _, _, err := runCLI(t, []string{"export", manifestPath}, env.configPath); err == nil {
		t.Fatal("expected error without --output")
	}
}

func TestExportCommandUnknownComposition(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := testsupport.WriteManifest(t, env.baseDir, "project.toml", cliProject)
	output := filepath.Join(env.baseDir, "main.pag")

	if _, _, err := runCLI(t, []string{"export", manifestPath, "-o", output, "--comp", "Missing"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown composition")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("output must not exist, stat err = %v", err)
	}
}

func TestExitCodeForAbortedExport(t *testing.T) {
	if got := exitCode(fmt.Errorf("run: %w", exporter.ErrAborted)); got != exitAborted {
		t.Fatalf("aborted exit code = %d, want %d", got, exitAborted)
	}
	if got := exitCode(errors.New("bad flag")); got != 1 {
		t.Fatalf("generic exit code = %d, want 1", got)
	}
}
