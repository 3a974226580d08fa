package exportctx_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"animexport/internal/compat"
	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/exportctx"
	"animexport/internal/host"
	"animexport/internal/host/manifest"
	"animexport/internal/sequence"
	"animexport/internal/tagcode"
	"animexport/internal/testsupport"
)

const project = `
[[composition]]
id = 1
name = "Main"
width = 1920
height = 1080
frame_rate = 30
duration = 60

  [[composition.layer]]
  id = 10
  name = "Title"
  kind = "text"

[[composition]]
id = 2
name = "Broken_bmp"
width = 1920
height = 0
frame_rate = 30
`

func mustProject(t *testing.T) *manifest.Project {
	t.Helper()
	p, err := manifest.Parse(strings.NewReader(project))
	if err != nil {
		t.Fatalf("parse project: %v", err)
	}
	return p
}

func newContext(t *testing.T, mutate func(*config.ExportParam), opts ...exportctx.Option) *exportctx.Context {
	t.Helper()
	param := testsupport.NewConfig(t).ExportParam()
	if mutate != nil {
		mutate(&param)
	}
	opts = append([]exportctx.Option{exportctx.WithSessionID("test-session")}, opts...)
	ctx, err := exportctx.New(param, "out.pag", opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ctx
}

func TestNewRejectsOutOfRangeCustomLevel(t *testing.T) {
	param := testsupport.NewConfig(t).ExportParam()
	param.TagMode = config.TagModeCustom
	param.TagLevel = int(tagcode.Max) + 1
	ctx, err := exportctx.New(param, "out.pag")
	if !errors.Is(err, compat.ErrTagLevelOutOfRange) {
		t.Fatalf("expected ErrTagLevelOutOfRange, got %v", err)
	}
	if ctx != nil {
		t.Fatal("no context may be built from invalid parameters")
	}
}

func TestCustomLevelBelowTagDeniesQuietly(t *testing.T) {
	ctx := newContext(t, func(p *config.ExportParam) {
		p.TagMode = config.TagModeCustom
		p.TagLevel = int(tagcode.GlowEffect) - 1
	})
	if ctx.Allows(tagcode.GlowEffect) {
		t.Fatal("GlowEffect must be denied")
	}
	for rec := range ctx.Diagnostics().Drain() {
		if rec.Kind == diag.TagLevelOutOfRange {
			t.Fatal("TagLevelOutOfRange must not be recorded for a valid level")
		}
	}
}

func TestPermitAndResolveRecordAgainstCursor(t *testing.T) {
	ctx := newContext(t, func(p *config.ExportParam) {
		p.TagMode = config.TagModeCustom
		p.TagLevel = int(tagcode.TextSourceV2)
	})
	restore := ctx.Enter(1)
	restoreLayer := ctx.EnterLayer(10)

	if ctx.Permit(tagcode.MosaicEffect, diag.TagLevelFeature) {
		t.Fatal("MosaicEffect must be denied")
	}
	d := ctx.Resolve(tagcode.TextSourceV3)
	if !d.Emit || d.Tag != tagcode.TextSourceV2 {
		t.Fatalf("unexpected decision %+v", d)
	}
	restoreLayer()
	restore()

	recs := ctx.Diagnostics().Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.CompositionID != 1 || rec.LayerID != 10 {
			t.Fatalf("record not tied to cursor: %+v", rec)
		}
	}
	if recs[1].Kind != diag.TagLevelVerticalText {
		t.Fatalf("unexpected kind %v", recs[1].Kind)
	}
	ctx.Record(diag.Expression, "")
	last := ctx.Diagnostics().Records()[2]
	if last.CompositionID != host.NoID || last.LayerID != host.NoID {
		t.Fatalf("cursor not restored: %+v", last)
	}
}

func TestNestedEnterRestoresParent(t *testing.T) {
	ctx := newContext(t, nil)
	outer := ctx.Enter(1)
	ctx.EnterLayer(10)
	inner := ctx.Enter(2)
	ctx.Record(diag.OtherWarning, "inner")
	inner()
	ctx.Record(diag.OtherWarning, "parent")
	outer()
	ctx.Record(diag.OtherWarning, "top")

	want := []struct{ comp, layer host.ID }{{2, host.NoID}, {1, 10}, {host.NoID, host.NoID}}
	recs := ctx.Diagnostics().Records()
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].CompositionID != w.comp || recs[i].LayerID != w.layer {
			t.Fatalf("record %q tied to %v/%v, want %v/%v", recs[i].Extra, recs[i].CompositionID, recs[i].LayerID, w.comp, w.layer)
		}
	}
}

func TestSessionIDAndDiagnosticsBound(t *testing.T) {
	ctx := newContext(t, nil, exportctx.WithMaxDiagnostics(2))
	if ctx.SessionID() != "test-session" {
		t.Fatalf("session id = %q", ctx.SessionID())
	}
	for range 5 {
		ctx.Record(diag.OtherWarning, "")
	}
	if ctx.Diagnostics().Len() != 2 || ctx.Diagnostics().Dropped() != 3 {
		t.Fatalf("len = %d dropped = %d, want 2 and 3", ctx.Diagnostics().Len(), ctx.Diagnostics().Dropped())
	}

	unbounded := newContext(t, nil, exportctx.WithMaxDiagnostics(0))
	for range 5 {
		unbounded.Record(diag.OtherWarning, "")
	}
	if unbounded.Diagnostics().Dropped() != 0 {
		t.Fatal("zero must keep the default bound")
	}
}

func TestLookupTables(t *testing.T) {
	ctx := newContext(t, nil)
	p := mustProject(t)
	for _, comp := range p.Compositions() {
		ctx.RegisterComposition(comp)
		for _, layer := range comp.Layers() {
			ctx.RegisterLayer(layer)
		}
	}
	if comp, ok := ctx.Composition(1); !ok || comp.Name() != "Main" {
		t.Fatalf("composition lookup failed")
	}
	if ctx.LayerName(10) != "Title" || ctx.CompositionName(2) != "Broken_bmp" {
		t.Fatal("name lookup failed")
	}
	if _, ok := ctx.Composition(99); ok {
		t.Fatal("expected miss")
	}
	recs := ctx.Diagnostics().Records()
	if len(recs) != 1 || recs[0].Kind != diag.CompositionHandleNotFound || recs[0].CompositionID != 99 {
		t.Fatalf("expected CompositionHandleNotFound, got %+v", recs)
	}
}

func TestReconcileSequenceExcludesBrokenComposition(t *testing.T) {
	ctx := newContext(t, nil)
	p := mustProject(t)
	broken, _ := p.Composition("Broken_bmp")

	out, err := ctx.ReconcileSequence(broken, sequence.Request{})
	if !errors.Is(err, sequence.ErrSequenceOutOfRange) {
		t.Fatalf("expected ErrSequenceOutOfRange, got %v", err)
	}
	if !out.Factor.IsExcluded() || out.Policy != sequence.PolicySkip {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if _, err := ctx.ReconcileSequence(broken, sequence.Request{Scale: 0.5}); err == nil {
		t.Fatal("expected cached error")
	}
	recs := ctx.Diagnostics().Records()
	if len(recs) != 1 || recs[0].Kind != diag.SequenceOutOfRange || recs[0].CompositionID != broken.ID() {
		t.Fatalf("expected one SequenceOutOfRange record, got %+v", recs)
	}
	if ctx.EarlyExit() {
		t.Fatal("data errors must not stop the export")
	}
}

func TestRevisitSequenceKeepsFirstFactor(t *testing.T) {
	ctx := newContext(t, nil)
	p := mustProject(t)
	main, _ := p.Composition("Main")

	if _, ok := ctx.RevisitSequence(main, sequence.Request{}); ok {
		t.Fatal("revisit before the first reconcile must miss")
	}
	first, err := ctx.ReconcileSequence(main, sequence.Request{})
	if err != nil {
		t.Fatalf("ReconcileSequence: %v", err)
	}
	// A zero request means the default request the first call used.
	if out, ok := ctx.RevisitSequence(main, sequence.Request{}); !ok || out.Ignored != 0 {
		t.Fatalf("default request counted as ignored: %+v", out)
	}
	out, ok := ctx.RevisitSequence(main, sequence.Request{Scale: 0.25})
	if !ok || out.Factor != first.Factor || out.Ignored != 1 {
		t.Fatalf("unexpected revisit outcome %+v", out)
	}
	if len(ctx.Diagnostics().Records()) != 0 {
		t.Fatal("an ignored request is not a diagnostic")
	}
}

func TestReconcileSequenceUsesResolutionCeilingAndSamples(t *testing.T) {
	ctx := newContext(t, func(p *config.ExportParam) {
		*p = p.WithScaleFps(config.ScaleFps{Scale: 1, FPS: 30}, config.ScaleFps{Scale: 0.5, FPS: 15})
	})
	p := mustProject(t)
	main, _ := p.Composition("Main")

	out, err := ctx.ReconcileSequence(main, sequence.Request{})
	if err != nil {
		t.Fatalf("ReconcileSequence: %v", err)
	}
	w, h := out.Factor.OutputSize(main.Width(), main.Height())
	if w != 1280 || h != 720 || out.Factor.FPS != 1 {
		t.Fatalf("unexpected factor %v (%dx%d)", out.Factor, w, h)
	}

	samples := ctx.Samples(main, out)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %v", samples)
	}
	if samples[1].Scale >= samples[0].Scale || samples[1].FPS != 0.5 {
		t.Fatalf("unexpected derived sample %v", samples[1])
	}
}

func TestElevatingDiagnosticSetsEarlyExit(t *testing.T) {
	ctx := newContext(t, nil)
	ctx.Record(diag.Expression, "")
	if ctx.EarlyExit() {
		t.Fatal("warning must not stop the export")
	}
	ctx.RecordAt(diag.ExportRenderError, 1, 10, "renderer crashed")
	if !ctx.EarlyExit() {
		t.Fatal("expected early exit")
	}
}

func TestEarlyExitIsSafeAcrossGoroutines(t *testing.T) {
	ctx := newContext(t, nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.RequestEarlyExit()
			_ = ctx.EarlyExit()
		}()
	}
	wg.Wait()
	if !ctx.EarlyExit() {
		t.Fatal("expected early exit")
	}
}

func TestWatchContextRecordsCancellation(t *testing.T) {
	ec := newContext(t, nil)
	parent, cancel := context.WithCancel(context.Background())
	ec.WatchContext(parent)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for !ec.EarlyExit() {
		if time.Now().After(deadline) {
			t.Fatal("cancellation did not raise early exit")
		}
		time.Sleep(time.Millisecond)
	}
	var canceled bool
	for rec := range ec.Diagnostics().Drain() {
		canceled = canceled || rec.Kind == diag.ExportCanceled
	}
	if !canceled {
		t.Fatal("expected ExportCanceled record")
	}
}

func TestWatchContextAlreadyCanceled(t *testing.T) {
	ec := newContext(t, nil)
	parent, cancel := context.WithCancel(context.Background())
	cancel()
	ec.WatchContext(parent)
	if !ec.EarlyExit() {
		t.Fatal("a done context must raise early exit before WatchContext returns")
	}
}
