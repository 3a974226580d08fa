package exporter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"animexport/internal/compat"
	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/exporter"
	"animexport/internal/history"
	"animexport/internal/host/manifest"
	"animexport/internal/scratch"
	"animexport/internal/sequence"
	"animexport/internal/tagcode"
	"animexport/internal/tagstream"
	"animexport/internal/testsupport"
)

const demoProject = `
name = "Demo"

[[composition]]
id = 1
name = "Main"
width = 1920
height = 1080
frame_rate = 30
duration = 90

  [[composition.layer]]
  id = 10
  name = "Title"
  kind = "text"
  features = ["TextSourceV3"]
  effects = ["Glow", "Lens Flare"]
  expression = true

  [[composition.layer]]
  id = 11
  name = "Photo"
  kind = "image"
  features = ["ImageFillRuleV2"]

  [[composition.layer]]
  id = 12
  name = "Fire"
  kind = "precomp"
  source = "Fire_bmp"
  scale = 0.5

  [[composition.layer]]
  id = 13
  name = "Camera"
  kind = "camera"

[[composition]]
id = 2
name = "Fire_bmp"
width = 512
height = 512
frame_rate = 24
duration = 48

  [[composition.layer]]
  id = 20
  name = "Flames"
  kind = "shape"
`

const brokenSequenceProject = `
[[composition]]
id = 1
name = "Main"
width = 1280
height = 720
frame_rate = 30
duration = 30

  [[composition.layer]]
  id = 10
  name = "Broken"
  kind = "precomp"
  source = "Broken_bmp"

  [[composition.layer]]
  id = 11
  name = "Background"
  kind = "solid"

[[composition]]
id = 2
name = "Broken_bmp"
width = 1920
height = 0
frame_rate = 30
duration = 30

  [[composition.layer]]
  id = 20
  name = "Frame"
  kind = "image"
`

func parse(t *testing.T, src string) *manifest.Project {
	t.Helper()
	p, err := manifest.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return p
}

func kinds(report *exporter.Report) map[diag.Kind]int {
	out := make(map[diag.Kind]int)
	for _, d := range report.Diagnostics {
		out[d.Kind]++
	}
	return out
}

func assertNoScratchLeft(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), scratch.DirPrefix) {
			t.Fatalf("scratch directory left behind: %s", e.Name())
		}
	}
}

func TestRunWritesVerifiedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	output := filepath.Join(testsupport.BaseDir(cfg), "out", "demo.pag")
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		t.Fatal(err)
	}

	exp := exporter.New(cfg, nil, exporter.WithHistory(store))
	report, err := exp.Run(context.Background(), exporter.Request{
		Project:  parse(t, demoProject),
		Manifest: "demo.toml",
		Output:   output,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Completed() {
		t.Fatalf("expected completed report, got %s (%s)", report.Status, report.Error)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	summary, err := tagstream.Verify(data, tagcode.Stable)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.Tags != 3 {
		t.Fatalf("expected file attributes plus two compositions, got %d tags", summary.Tags)
	}
	if report.Bytes != int64(len(data)) {
		t.Fatalf("report bytes = %d, file is %d", report.Bytes, len(data))
	}

	got := kinds(report)
	for _, want := range []diag.Kind{diag.Expression, diag.UnsupportedEffects, diag.CameraLayer} {
		if got[want] != 1 {
			t.Fatalf("expected one %v record, got %d (%v)", want, got[want], got)
		}
	}
	if got[diag.TagLevelVerticalText] != 0 || got[diag.TagLevelImageFillRuleV2] != 0 {
		t.Fatalf("stable level must not downgrade: %v", got)
	}
	for _, d := range report.Diagnostics {
		if d.Kind == diag.UnsupportedEffects && !strings.Contains(d.Message, `"Lens Flare"`) {
			t.Fatalf("unexpected message %q", d.Message)
		}
		if d.Kind == diag.Expression && !strings.HasPrefix(d.Message, "[Main] > [Title]: ") {
			t.Fatalf("unexpected message %q", d.Message)
		}
	}

	sess, err := store.Get(context.Background(), report.SessionID)
	if err != nil {
		t.Fatalf("history Get: %v", err)
	}
	if sess.Status != history.StatusCompleted || len(sess.Diagnostics) != len(report.Diagnostics) {
		t.Fatalf("unexpected history session: %#v", sess)
	}
	assertNoScratchLeft(t, cfg)
	if _, err := os.Stat(output + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed, got %v", err)
	}
}

func TestRunDowngradesAtCustomLevel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTagMode(config.TagModeCustom, 60))
	output := filepath.Join(testsupport.BaseDir(cfg), "custom.pag")

	report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, demoProject),
		Output:  output,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := kinds(report)
	if got[diag.TagLevelVerticalText] != 1 {
		t.Fatalf("expected vertical text downgrade, got %v", got)
	}
	if got[diag.TagLevelImageFillRuleV2] != 1 {
		t.Fatalf("expected image fill rule downgrade, got %v", got)
	}
	if got[diag.TagLevelOutOfRange] != 0 {
		t.Fatalf("an in-range level must not be reported: %v", got)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tagstream.Verify(data, 60); err != nil {
		t.Fatalf("file carries tags above the custom level: %v", err)
	}
	if report.TagLevel != 60 || report.TagMode != "custom(60)" {
		t.Fatalf("unexpected report level %d mode %q", report.TagLevel, report.TagMode)
	}
}

func TestRunRejectsOutOfRangeLevel(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTagMode(config.TagModeCustom, int(tagcode.Max)+5))
	store := testsupport.MustOpenHistory(t, cfg)
	output := filepath.Join(testsupport.BaseDir(cfg), "rejected.pag")

	report, err := exporter.New(cfg, nil, exporter.WithHistory(store)).Run(context.Background(), exporter.Request{
		Project: parse(t, demoProject),
		Output:  output,
	})
	if !errors.Is(err, compat.ErrTagLevelOutOfRange) {
		t.Fatalf("expected ErrTagLevelOutOfRange, got %v", err)
	}
	if report == nil || report.Completed() {
		t.Fatalf("expected aborted report, got %#v", report)
	}
	if got := kinds(report); got[diag.TagLevelOutOfRange] != 1 || len(report.Diagnostics) != 1 {
		t.Fatalf("expected a single TagLevelOutOfRange record, got %v", got)
	}
	if _, err := uuid.Parse(report.SessionID); err != nil {
		t.Fatalf("rejected session id %q is not a uuid: %v", report.SessionID, err)
	}
	if len(report.Groups) != 1 || report.Groups[0].Count != 1 {
		t.Fatalf("unexpected grouped summary %+v", report.Groups)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("no output may be written, got %v", err)
	}
	list, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != history.StatusAborted || list[0].ID != report.SessionID {
		t.Fatalf("expected one aborted session in history, got %+v", list)
	}
}

func TestRunCanceledLeavesExistingOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	output := filepath.Join(testsupport.BaseDir(cfg), "keep.pag")
	if err := os.WriteFile(output, []byte("previous export"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := exporter.New(cfg, nil).Run(ctx, exporter.Request{
		Project: parse(t, demoProject),
		Output:  output,
	})
	if !errors.Is(err, exporter.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if report.Completed() || report.Error != diag.ExportCanceled.String() {
		t.Fatalf("unexpected report status %s error %q", report.Status, report.Error)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous export" {
		t.Fatalf("aborted export modified output: %q", data)
	}
	assertNoScratchLeft(t, cfg)
}

func TestRunExcludedSequence(t *testing.T) {
	tests := []struct {
		name        string
		forceStatic bool
		wantStatic  int
		wantTags    int
	}{
		{"skip", false, 0, 2},
		{"static bitmap", true, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithForceStaticBitmap(tt.forceStatic))
			output := filepath.Join(testsupport.BaseDir(cfg), "seq.pag")

			report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
				Project: parse(t, brokenSequenceProject),
				Output:  output,
			})
			if err != nil {
				t.Fatalf("a data error must not abort the export: %v", err)
			}
			got := kinds(report)
			if got[diag.SequenceOutOfRange] != 1 {
				t.Fatalf("expected exactly one SequenceOutOfRange, got %v", got)
			}
			if got[diag.StaticBitmapFallback] != tt.wantStatic {
				t.Fatalf("StaticBitmapFallback = %d, want %d", got[diag.StaticBitmapFallback], tt.wantStatic)
			}
			for _, d := range report.Diagnostics {
				if d.Kind == diag.SequenceOutOfRange && d.CompositionID != 2 {
					t.Fatalf("record tied to composition %v, want 2", d.CompositionID)
				}
			}
			data, err := os.ReadFile(output)
			if err != nil {
				t.Fatal(err)
			}
			summary, err := tagstream.Verify(data, tagcode.Stable)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if summary.Tags != tt.wantTags {
				t.Fatalf("tags = %d, want %d", summary.Tags, tt.wantTags)
			}
		})
	}
}

func TestRunOutputLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	output := filepath.Join(testsupport.BaseDir(cfg), "locked.pag")

	lock := flock.New(output + ".lock")
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, err = exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, demoProject),
		Output:  output,
	})
	if !errors.Is(err, exporter.ErrOutputLocked) {
		t.Fatalf("expected ErrOutputLocked, got %v", err)
	}
}

func TestRunUnknownComposition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project:      parse(t, demoProject),
		Output:       filepath.Join(testsupport.BaseDir(cfg), "x.pag"),
		Compositions: []string{"Missing"},
	})
	if err == nil || !strings.Contains(err.Error(), `"Missing"`) {
		t.Fatalf("expected unknown composition error, got %v", err)
	}
}

func TestRunSequenceRules(t *testing.T) {
	const src = `
[[composition]]
id = 1
name = "Main"
width = 800
height = 600
frame_rate = 25
duration = 25

  [[composition.layer]]
  id = 10
  name = "Spark_bmp"
  kind = "shape"

  [[composition.layer]]
  id = 11
  name = "A"
  kind = "precomp"
  source = "A_bmp"

  [[composition.layer]]
  id = 12
  name = "B"
  kind = "precomp"
  source = "B_bmp"

  [[composition.layer]]
  id = 14
  name = "Gap"
  kind = "solid"

  [[composition.layer]]
  id = 13
  name = "Empty"
  kind = "precomp"
  source = "Empty_bmp"

[[composition]]
id = 2
name = "A_bmp"
width = 100
height = 100
frame_rate = 25
duration = 25

  [[composition.layer]]
  name = "a"

[[composition]]
id = 3
name = "B_bmp"
width = 100
height = 100
frame_rate = 25
duration = 25

  [[composition.layer]]
  name = "b"

[[composition]]
id = 4
name = "Empty_bmp"
width = 100
height = 100
frame_rate = 25
duration = 25
`
	cfg := testsupport.NewConfig(t)
	report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, src),
		Output:  filepath.Join(testsupport.BaseDir(cfg), "rules.pag"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := kinds(report)
	if got[diag.NoPrecompLayerWithBmpName] != 1 {
		t.Fatalf("expected NoPrecompLayerWithBmpName, got %v", got)
	}
	if got[diag.ContinuousSequence] != 1 {
		t.Fatalf("expected ContinuousSequence, got %v", got)
	}
	if got[diag.VideoSequenceNoContent] != 1 {
		t.Fatalf("expected VideoSequenceNoContent, got %v", got)
	}
}

func TestRunSelfReferenceIsRecorded(t *testing.T) {
	const src = `
[[composition]]
id = 1
name = "Loop"
width = 100
height = 100
frame_rate = 30
duration = 30

  [[composition.layer]]
  id = 10
  name = "Again"
  kind = "precomp"
  source = "Loop"
`
	cfg := testsupport.NewConfig(t)
	report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, src),
		Output:  filepath.Join(testsupport.BaseDir(cfg), "loop.pag"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := kinds(report); got[diag.OtherError] != 1 {
		t.Fatalf("expected one cycle record, got %v", got)
	}
}

func TestRunSharedSequenceKeepsFirstRequest(t *testing.T) {
	const src = `
[[composition]]
id = 1
name = "Main"
width = 1280
height = 720
frame_rate = 30
duration = 30

  [[composition.layer]]
  id = 10
  name = "Near"
  kind = "precomp"
  source = "Smoke_bmp"
  scale = 0.5

  [[composition.layer]]
  id = 11
  name = "Sky"
  kind = "solid"
  effects = ["Lens Flare", "Lens Flare"]

  [[composition.layer]]
  id = 12
  name = "Far"
  kind = "precomp"
  source = "Smoke_bmp"
  scale = 0.25

[[composition]]
id = 2
name = "Smoke_bmp"
width = 400
height = 400
frame_rate = 30
duration = 30

  [[composition.layer]]
  id = 20
  name = "Puff"
  kind = "shape"
`
	cfg := testsupport.NewConfig(t)
	report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, src),
		Output:  filepath.Join(testsupport.BaseDir(cfg), "smoke.pag"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Sequences) != 1 {
		t.Fatalf("expected one sampled sequence, got %+v", report.Sequences)
	}
	seq := report.Sequences[0]
	if seq.CompositionID != 2 || seq.Name != "Smoke_bmp" || seq.Policy != sequence.PolicySample {
		t.Fatalf("unexpected sequence %+v", seq)
	}
	if seq.Requested.Scale != 0.5 || seq.Factor.Scale != 0.5 {
		t.Fatalf("first parent's request must win, got requested %v factor %v", seq.Requested, seq.Factor)
	}
	if seq.Ignored != 1 {
		t.Fatalf("ignored requests = %d, want 1", seq.Ignored)
	}

	if got := kinds(report); got[diag.UnsupportedEffects] != 2 {
		t.Fatalf("every record stays in the raw drain, got %v", got)
	}
	var folded *exporter.Group
	for i := range report.Groups {
		if report.Groups[i].Kind == diag.UnsupportedEffects {
			if folded != nil {
				t.Fatal("identical records must fold into one group")
			}
			folded = &report.Groups[i]
		}
	}
	if folded == nil || folded.Count != 2 || folded.LayerID != 11 || folded.Message == "" {
		t.Fatalf("unexpected group %+v", folded)
	}
}

func TestRunBoundsDiagnostics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Export.MaxDiagnostics = 2
	report, err := exporter.New(cfg, nil).Run(context.Background(), exporter.Request{
		Project: parse(t, demoProject),
		Output:  filepath.Join(testsupport.BaseDir(cfg), "bounded.pag"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Diagnostics) != 2 || report.Dropped < 1 {
		t.Fatalf("kept %d records, dropped %d", len(report.Diagnostics), report.Dropped)
	}
	if report.Diagnostics[1].Kind != diag.CameraLayer {
		t.Fatalf("the newest record must survive, got %v", report.Diagnostics[1].Kind)
	}
}
