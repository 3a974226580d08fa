package exportctx

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"animexport/internal/compat"
	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/host"
	"animexport/internal/logging"
	"animexport/internal/sequence"
	"animexport/internal/tagcode"
)

// Option configures a Context.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	sessionID  string
	maxRecords int
}

// WithLogger routes context and diagnostic logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// WithMaxDiagnostics bounds the diagnostics collector. Values below one keep
// diag.DefaultMaxRecords.
func WithMaxDiagnostics(n int) Option {
	return func(o *options) { o.maxRecords = n }
}

// Context is the state of one export. Apart from the early-exit flag it is
// owned by the single export worker.
type Context struct {
	param   config.ExportParam
	output  string
	session string
	logger  *slog.Logger

	gate   compat.Gate
	recon  *sequence.Reconciler
	diags  *diag.Collector
	comps  map[host.ID]host.Composition
	layers map[host.ID]host.Layer

	comp  host.ID
	layer host.ID

	exit atomic.Bool
}

// New validates param and builds a session writing to output. Configuration
// errors, including a custom tag level outside the writable range, are
// returned before any state is created.
func New(param config.ExportParam, output string, opts ...Option) (*Context, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := param.Validate(); err != nil {
		return nil, fmt.Errorf("export parameters: %w", err)
	}
	mode, err := compat.ModeOf(param)
	if err != nil {
		return nil, fmt.Errorf("export parameters: %w", err)
	}
	gate, err := compat.NewGate(mode)
	if err != nil {
		return nil, fmt.Errorf("export parameters: %w", err)
	}

	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	logger := o.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldSessionID, o.sessionID))

	c := &Context{
		param:   param,
		output:  output,
		session: o.sessionID,
		logger:  logger,
		gate:    gate,
		comps:   make(map[host.ID]host.Composition),
		layers:  make(map[host.ID]host.Layer),
	}
	c.diags = diag.NewCollector(
		diag.WithMaxRecords(o.maxRecords),
		diag.WithEarlyExit(c),
		diag.WithLogger(logging.NewComponentLogger(logger, "diag")),
	)
	c.recon = sequence.NewReconciler(c.diags, param.ForceStaticBitmap)

	logger.Debug("export context created",
		logging.String("tag_mode", mode.String()),
		logging.Int("tag_level", int(gate.Level())),
		logging.String("output", output),
	)
	return c, nil
}

func (c *Context) Param() config.ExportParam        { return c.param }
func (c *Context) Output() string                   { return c.output }
func (c *Context) SessionID() string                { return c.session }
func (c *Context) Gate() compat.Gate                { return c.gate }
func (c *Context) Diagnostics() *diag.Collector     { return c.diags }
func (c *Context) Reconciler() *sequence.Reconciler { return c.recon }
func (c *Context) Logger() *slog.Logger             { return c.logger }

// RequestEarlyExit asks the walker to stop. Safe from any goroutine.
func (c *Context) RequestEarlyExit() {
	if c.exit.CompareAndSwap(false, true) {
		c.logger.Info("early exit requested")
	}
}

// EarlyExit reports whether the export should stop. Safe from any goroutine.
func (c *Context) EarlyExit() bool { return c.exit.Load() }

// WatchContext raises the early-exit flag, recording ExportCanceled, once ctx
// is done. A context that is already done is handled before WatchContext
// returns. The returned function stops watching.
func (c *Context) WatchContext(ctx context.Context) (stop func() bool) {
	cancel := func() {
		c.diags.Record(diag.ExportCanceled, host.NoID, host.NoID, context.Cause(ctx).Error())
	}
	if ctx.Err() != nil {
		cancel()
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, cancel)
}

// Allows reports whether tag may be written at the session's level.
func (c *Context) Allows(tag tagcode.Code) bool { return c.gate.Allows(tag) }

// Permit is Allows that records kind against the current cursor when the tag
// is denied.
func (c *Context) Permit(tag tagcode.Code, kind diag.Kind) bool {
	if c.gate.Allows(tag) {
		return true
	}
	c.Record(kind, tag.String())
	return false
}

// Select returns the newest allowed variant of chain.
func (c *Context) Select(chain ...tagcode.Code) (tagcode.Code, bool) {
	return c.gate.Select(chain...)
}

// Resolve decides how feature is written and records the downgrade or
// omission diagnostic against the current cursor.
func (c *Context) Resolve(feature tagcode.Code) compat.Decision {
	d := c.gate.Resolve(feature)
	if d.Downgraded() {
		c.logger.Debug("feature downgraded", logging.Tag(feature), logging.String("written_as", d.Tag.String()))
	}
	if d.Report {
		c.Record(d.Kind, feature.String())
	}
	return d
}
