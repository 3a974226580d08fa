package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"animexport/internal/compat"
	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/exportctx"
	"animexport/internal/fileutil"
	"animexport/internal/history"
	"animexport/internal/host"
	"animexport/internal/language"
	"animexport/internal/logging"
	"animexport/internal/preflight"
	"animexport/internal/scratch"
	"animexport/internal/sequence"
	"animexport/internal/tagcode"
	"animexport/internal/tagstream"
)

var (
	// ErrAborted is returned when the export stopped before producing output.
	ErrAborted = errors.New("export aborted")
	// ErrOutputLocked is returned when another export holds the output path.
	ErrOutputLocked = errors.New("output path is locked by another export")
)

const (
	scratchFile = "export.pag"
	outputMode  = 0o644
)

// Request selects what to export.
type Request struct {
	Project host.Project
	// Manifest is the project's source path, kept for the report only.
	Manifest string
	Output   string
	// Compositions names the root compositions. Empty selects every
	// composition no other composition references.
	Compositions []string
}

// Exporter runs exports with a fixed configuration.
type Exporter struct {
	cfg     *config.Config
	logger  *slog.Logger
	history *history.Store
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithHistory stores every report in store.
func WithHistory(store *history.Store) Option {
	return func(e *Exporter) { e.history = store }
}

// New constructs an exporter for cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Exporter{cfg: cfg, logger: logging.NewComponentLogger(logger, "exporter")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one export. Configuration problems are returned without a
// report, except for an out-of-range tag level which is reported as an
// aborted session. When the walk stops early, the returned report explains why
// and the error wraps ErrAborted.
func (e *Exporter) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Project == nil {
		return nil, errors.New("export: project is required")
	}
	output, err := filepath.Abs(strings.TrimSpace(req.Output))
	if err != nil || strings.TrimSpace(req.Output) == "" {
		return nil, fmt.Errorf("export: invalid output path %q", req.Output)
	}
	roots, err := selectRoots(req.Project, req.Compositions)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	sessionID := uuid.NewString()
	param := e.cfg.ExportParam()
	ectx, err := exportctx.New(param, output,
		exportctx.WithLogger(e.logger),
		exportctx.WithSessionID(sessionID),
		exportctx.WithMaxDiagnostics(param.MaxDiagnostics),
	)
	if err != nil {
		if errors.Is(err, compat.ErrTagLevelOutOfRange) {
			return e.rejectLevel(ctx, req, sessionID, output, param, started, err)
		}
		return nil, err
	}
	logger := ectx.Logger()

	report := &Report{
		SessionID: ectx.SessionID(),
		Manifest:  req.Manifest,
		Output:    output,
		TagMode:   ectx.Gate().Mode().String(),
		TagLevel:  int(ectx.Gate().Level()),
		Language:  string(language.Resolve(param.Language)),
		StartedAt: started,
	}

	if err := e.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := preflight.Err(preflight.RunAll(e.cfg, output)); err != nil {
		return nil, fmt.Errorf("export preflight: %w", err)
	}

	lock := flock.New(output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock output: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	cleaned := scratch.CleanStale(ctx, e.cfg.Paths.ScratchDir, scratch.DefaultMaxAge, logger)
	for _, ce := range cleaned.Errors {
		logger.Debug("scratch cleanup error", logging.String("path", ce.Path), logging.Error(ce.Error))
	}
	guard, err := scratch.New(e.cfg.Paths.ScratchDir, ectx.SessionID())
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer func() {
		if err := guard.Close(); err != nil {
			logger.Warn("scratch cleanup failed", logging.Error(err))
		}
	}()

	stop := ectx.WatchContext(ctx)

	logger.Info("export started",
		logging.String(logging.FieldEventType, "export_start"),
		logging.String("output", output),
		logging.String("tag_mode", report.TagMode),
		logging.Int("tag_level", report.TagLevel),
		logging.Int("compositions", len(roots)),
	)

	written, tags := e.produce(ectx, guard, req.Project, roots)
	stop()

	report.Dropped = ectx.Diagnostics().Dropped()
	report.Diagnostics = drain(ectx.Diagnostics(), ectx)
	report.Groups = group(report.Diagnostics)
	report.Sequences = sequences(ectx.Reconciler(), ectx)
	report.FinishedAt = time.Now()

	if !written {
		report.Status = history.StatusAborted
		report.Error = abortReason(report.Diagnostics)
		logging.WarnWithContext(logger, "export aborted", "export_aborted",
			logging.String("reason", report.Error),
			logging.String(logging.FieldImpact, "no output file was written"),
			logging.String(logging.FieldErrorHint, "review the diagnostics of this session"),
		)
		e.store(ctx, report)
		return report, fmt.Errorf("%w: %s", ErrAborted, report.Error)
	}

	report.Status = history.StatusCompleted
	if info, err := os.Stat(output); err == nil {
		report.Bytes = info.Size()
	}
	report.Tags = tags
	warnings, errs := ectx.Diagnostics().Counts()
	logger.Info("export completed",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("output", output),
		logging.Int64("bytes", report.Bytes),
		logging.Int("warnings", warnings),
		logging.Int("errors", errs),
		logging.Duration("elapsed", report.FinishedAt.Sub(started)),
	)
	e.store(ctx, report)
	return report, nil
}

// produce walks the project, writes and verifies the file in scratch and
// publishes it. Failures are recorded as elevating diagnostics.
func (e *Exporter) produce(ectx *exportctx.Context, guard *scratch.Guard, project host.Project, roots []host.Composition) (written bool, tags int) {
	var body bytes.Buffer
	top := tagstream.NewWriter(&body, ectx.Gate())

	lang := language.Tag(language.Resolve(ectx.Param().Language))
	top.WriteTag(tagcode.FileAttributes, fileAttributesPayload(project.Name(), lang.String(), ectx.Param().Scene))

	w := newWalker(ectx, top)
	exported := false
	for _, root := range roots {
		if ectx.EarlyExit() {
			return false, 0
		}
		if w.walk(root, sequence.Request{}) {
			exported = true
		}
	}
	if ectx.EarlyExit() {
		return false, 0
	}
	if !exported {
		ectx.RecordAt(diag.OtherError, host.NoID, host.NoID, "no composition could be exported")
		return false, 0
	}
	if !w.check(top.WriteEnd()) {
		return false, 0
	}
	ectx.Logger().Debug("tag stream assembled", logging.Int64("body_bytes", top.Written()))

	path := guard.Path(scratchFile)
	f, err := guard.Create(scratchFile)
	if err != nil {
		ectx.RecordAt(diag.OutputWriteError, host.NoID, host.NoID, err.Error())
		return false, 0
	}
	_, err = tagstream.WriteFile(f, body.Bytes())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		ectx.RecordAt(diag.OutputWriteError, host.NoID, host.NoID, err.Error())
		return false, 0
	}

	data, err := os.ReadFile(path)
	if err != nil {
		ectx.RecordAt(diag.FileVerifyError, host.NoID, host.NoID, err.Error())
		return false, 0
	}
	summary, err := tagstream.Verify(data, ectx.Gate().Level())
	if err != nil {
		ectx.RecordAt(diag.FileVerifyError, host.NoID, host.NoID, err.Error())
		return false, 0
	}

	// Last point at which a cancellation still prevents the output.
	if ectx.EarlyExit() {
		return false, 0
	}
	if err := fileutil.Publish(path, ectx.Output(), outputMode); err != nil {
		ectx.RecordAt(diag.OutputWriteError, host.NoID, host.NoID, err.Error())
		return false, 0
	}
	return true, summary.Tags
}

// rejectLevel reports a session that never started because the custom tag
// level is outside the writable range.
func (e *Exporter) rejectLevel(ctx context.Context, req Request, sessionID, output string, param config.ExportParam, started time.Time, cause error) (*Report, error) {
	c := diag.NewCollector(diag.WithLogger(e.logger))
	c.Record(diag.TagLevelOutOfRange, host.NoID, host.NoID, fmt.Sprint(param.TagLevel))
	report := &Report{
		SessionID:   sessionID,
		Manifest:    req.Manifest,
		Output:      output,
		Status:      history.StatusAborted,
		TagMode:     string(param.TagMode),
		TagLevel:    param.TagLevel,
		Language:    string(language.Resolve(param.Language)),
		Error:       cause.Error(),
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Diagnostics: drain(c, nil),
	}
	report.Groups = group(report.Diagnostics)
	e.store(ctx, report)
	return report, cause
}

func (e *Exporter) store(ctx context.Context, report *Report) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(context.WithoutCancel(ctx), report.session()); err != nil {
		logging.WarnWithContext(e.logger, "export history not recorded", "history_write_failed",
			logging.String(logging.FieldSessionID, report.SessionID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "session missing from history list"),
			logging.String(logging.FieldErrorHint, "check paths.history_db"),
		)
	}
}

func abortReason(diags []Diagnostic) string {
	for _, d := range diags {
		if d.Kind.ElevatesEarlyExit() {
			return d.Kind.String()
		}
	}
	for _, d := range diags {
		if d.Kind.IsError() {
			return d.Kind.String()
		}
	}
	return "nothing exported"
}

// selectRoots resolves names, or picks every unreferenced composition when
// names is empty.
func selectRoots(project host.Project, names []string) ([]host.Composition, error) {
	if len(names) > 0 {
		roots := make([]host.Composition, 0, len(names))
		for _, name := range names {
			comp, ok := project.Composition(name)
			if !ok {
				return nil, fmt.Errorf("export: composition %q not found", name)
			}
			roots = append(roots, comp)
		}
		return roots, nil
	}

	all := project.Compositions()
	referenced := make(map[host.ID]struct{})
	for _, comp := range all {
		for _, layer := range comp.Layers() {
			if src, ok := layer.Source(); ok && src != nil && src.ID() != comp.ID() {
				referenced[src.ID()] = struct{}{}
			}
		}
	}
	var roots []host.Composition
	for _, comp := range all {
		if _, ok := referenced[comp.ID()]; !ok {
			roots = append(roots, comp)
		}
	}
	if len(roots) == 0 {
		return nil, errors.New("export: no root composition found; name one explicitly")
	}
	return roots, nil
}
