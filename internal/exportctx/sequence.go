package exportctx

import (
	"animexport/internal/host"
	"animexport/internal/logging"
	"animexport/internal/sequence"
)

// DefaultRequest is the factor requested when a call site supplies none: the
// first entry of the configured scale/fps list.
func (c *Context) DefaultRequest() sequence.Request {
	list := c.param.ScaleFps()
	if len(list) == 0 {
		return sequence.Request{Scale: 1}
	}
	return sequence.Request{Scale: list[0].Scale, FPS: list[0].FPS}
}

// ReconcileSequence returns the cached sampling outcome for comp, computing
// it from the composition's native values on first use. A zero req falls back
// to DefaultRequest.
func (c *Context) ReconcileSequence(comp host.Composition, req sequence.Request) (sequence.Outcome, error) {
	if req == (sequence.Request{}) {
		req = c.DefaultRequest()
	}
	if cached, ok := c.recon.Lookup(comp.ID()); ok {
		return cached, cached.Err
	}
	out, err := c.recon.Resolve(comp.ID(), sequence.Input{
		Width:        comp.Width(),
		Height:       comp.Height(),
		FrameRate:    comp.FrameRate(),
		MaxShortSide: c.param.BitmapMaxResolution,
		Request:      req,
	})
	if err != nil {
		logging.WarnWithContext(c.logger, "sequence excluded", "sequence_out_of_range",
			logging.Composition(comp.ID()),
			logging.String("policy", out.Policy.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "composition is not exported as a sequence"),
			logging.String(logging.FieldErrorHint, "give the composition a non-zero size and a positive frame rate"),
		)
		return out, err
	}
	c.logger.Debug("sequence reconciled",
		logging.Composition(comp.ID()),
		logging.Float64("scale", out.Factor.Scale),
		logging.Float64("fps_ratio", out.Factor.FPS),
	)
	return out, nil
}

// RevisitSequence handles a sequence composition reached again from another
// parent. The first parent's factor stays; a later request that differs from
// it is logged and counted on the cached outcome.
func (c *Context) RevisitSequence(comp host.Composition, req sequence.Request) (sequence.Outcome, bool) {
	if req == (sequence.Request{}) {
		req = c.DefaultRequest()
	}
	out, differs, ok := c.recon.Revisit(comp.ID(), req)
	if differs {
		c.logger.Debug("sequence request ignored",
			logging.Composition(comp.ID()),
			logging.Float64("requested_scale", req.Scale),
			logging.Float64("requested_fps", req.FPS),
			logging.Float64("cached_scale", out.Requested.Scale),
			logging.Float64("cached_fps", out.Requested.FPS),
		)
	}
	return out, ok
}

// Samples returns every factor comp is sampled at: the reconciled factor
// followed by one derived sample per further scale/fps list entry.
func (c *Context) Samples(comp host.Composition, out sequence.Outcome) []sequence.Factor {
	if out.Factor.IsExcluded() {
		return nil
	}
	list := c.param.ScaleFps()
	samples := []sequence.Factor{out.Factor}
	for _, entry := range list[min(1, len(list)):] {
		samples = append(samples, out.Factor.Derive(entry.Scale, entry.FPS, comp.FrameRate()))
	}
	return samples
}
