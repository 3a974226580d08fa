package exporter

import (
	"bytes"
	"log/slog"
	"slices"

	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/exportctx"
	"animexport/internal/host"
	"animexport/internal/logging"
	"animexport/internal/sequence"
	"animexport/internal/tagcode"
	"animexport/internal/tagstream"
)

type compState int

const (
	stateNone compState = iota
	stateVisiting
	stateWritten
	stateSkipped
)

// factorRequester is implemented by layers that carry their own sampling
// request for the composition they reference.
type factorRequester interface {
	RequestedFactor() (scale, fps float64)
}

// walker writes the composition tree into the top-level tag stream.
type walker struct {
	ectx   *exportctx.Context
	param  config.ExportParam
	top    *tagstream.Writer
	state  map[host.ID]compState
	logger *slog.Logger
}

func newWalker(ectx *exportctx.Context, top *tagstream.Writer) *walker {
	return &walker{
		ectx:   ectx,
		param:  ectx.Param(),
		top:    top,
		state:  make(map[host.ID]compState),
		logger: logging.NewComponentLogger(ectx.Logger(), "walker"),
	}
}

func (w *walker) newBlock() (*bytes.Buffer, *tagstream.Writer) {
	var buf bytes.Buffer
	return &buf, tagstream.NewWriter(&buf, w.ectx.Gate())
}

// check turns a tag writer failure into an elevating diagnostic. The gate is
// consulted before every write, so a denial here is a walker defect.
func (w *walker) check(err error) bool {
	if err == nil {
		return true
	}
	w.ectx.Record(diag.ExportRenderError, err.Error())
	return false
}

// walk writes comp and everything it references. It reports whether comp is
// present in the output and may therefore be referenced.
func (w *walker) walk(comp host.Composition, req sequence.Request) bool {
	if w.ectx.EarlyExit() {
		return false
	}
	id := comp.ID()
	switch w.state[id] {
	case stateVisiting:
		w.ectx.RecordAt(diag.OtherError, id, host.NoID, "composition \""+comp.Name()+"\" references itself")
		return false
	case stateWritten:
		if w.param.IsSequenceName(comp.Name()) {
			w.ectx.RevisitSequence(comp, req)
		}
		return true
	case stateSkipped:
		return false
	}

	w.state[id] = stateVisiting
	w.ectx.RegisterComposition(comp)
	restore := w.ectx.Enter(id)
	defer restore()

	var ok bool
	if w.param.IsSequenceName(comp.Name()) {
		ok = w.writeSequence(comp, req)
	} else {
		ok = w.writeVector(comp)
	}
	if ok {
		w.state[id] = stateWritten
	} else {
		w.state[id] = stateSkipped
	}
	w.logger.Debug("composition walked",
		logging.Composition(id),
		logging.String("composition", comp.Name()),
		logging.Bool("written", ok),
	)
	return ok
}

func (w *walker) writeVector(comp host.Composition) bool {
	buf, bw := w.newBlock()
	bw.WriteTag(tagcode.CompositionAttributes, compositionPayload(comp))

	prevSequence := false
	for _, layer := range comp.Layers() {
		if w.ectx.EarlyExit() {
			return false
		}
		prevSequence = w.writeLayer(bw, layer, prevSequence)
	}
	bw.WriteEnd()
	if !w.check(bw.Err()) {
		return false
	}
	return w.check(w.top.WriteTag(tagcode.VectorCompositionBlock, buf.Bytes()))
}

// writeLayer writes one layer block into the composition block and reports
// whether the layer references a sequence composition.
func (w *walker) writeLayer(cw *tagstream.Writer, layer host.Layer, prevSequence bool) bool {
	w.ectx.RegisterLayer(layer)
	restore := w.ectx.EnterLayer(layer.ID())
	defer restore()

	switch layer.Kind() {
	case host.LayerCamera:
		w.ectx.Record(diag.CameraLayer, "")
		return false
	case host.LayerAdjustment:
		w.ectx.Record(diag.AdjustmentLayer, "")
		return false
	}
	if layer.HasExpression() {
		w.ectx.Record(diag.Expression, "")
	}
	if layer.Kind() != host.LayerPreCompose && w.param.IsSequenceName(layer.Name()) {
		w.ectx.Record(diag.NoPrecompLayerWithBmpName, layer.Name())
	}

	buf, lw := w.newBlock()
	if d := w.ectx.Resolve(tagcode.LayerAttributesV3); d.Emit {
		lw.WriteTag(d.Tag, layerPayload(layer, w.param.ExportLayerName))
	}
	lw.WriteTag(tagcode.Transform2D, nil)

	features := layer.Features()
	sequenceRef := false
	switch layer.Kind() {
	case host.LayerSolid:
		lw.WriteTag(tagcode.SolidColor, nil)
	case host.LayerText:
		if !slices.ContainsFunc(features, isTextSource) {
			lw.WriteTag(tagcode.TextSource, nil)
		}
	case host.LayerImage:
		lw.WriteTag(tagcode.ImageReference, nil)
	case host.LayerShape:
		lw.WriteTag(tagcode.ShapeGroup, nil)
	case host.LayerAudio:
		if w.ectx.Permit(tagcode.AudioBytes, diag.ExportAudioError) {
			lw.WriteTag(tagcode.AudioBytes, nil)
		}
	case host.LayerPreCompose:
		sequenceRef = w.writeReference(lw, layer)
	}

	if sequenceRef && prevSequence {
		w.ectx.Record(diag.ContinuousSequence, "")
	}

	w.writeFeatures(lw, layer, features)
	w.writeEffects(lw, layer)
	lw.WriteEnd()
	if w.check(lw.Err()) {
		w.check(cw.WriteTag(tagcode.LayerBlock, buf.Bytes()))
	}
	return sequenceRef
}

func (w *walker) writeReference(lw *tagstream.Writer, layer host.Layer) (sequenceRef bool) {
	src, ok := layer.Source()
	if !ok || src == nil {
		w.ectx.Record(diag.OtherWarning, "pre-composition layer has no source")
		return false
	}
	sequenceRef = w.param.IsSequenceName(src.Name())
	if !sequenceRef && w.param.IsSequenceName(layer.Name()) {
		w.ectx.Record(diag.BmpLayerButVectorComp, layer.Name())
	}

	if !w.walk(src, requestOf(layer)) {
		return sequenceRef
	}
	if _, found := w.ectx.Composition(src.ID()); found {
		lw.WriteTag(tagcode.CompositionReference, referencePayload(src.ID()))
	}
	return sequenceRef
}

func (w *walker) writeFeatures(lw *tagstream.Writer, layer host.Layer, features []tagcode.Code) {
	fillRules := 0
	for _, feature := range features {
		if isImageFillRule(feature) {
			if layer.Kind() != host.LayerImage {
				w.ectx.Record(diag.ImageFillRuleOnlyImageLayer, "")
				continue
			}
			if fillRules++; fillRules > 1 {
				w.ectx.Record(diag.ImageFillRuleOnlyOne, "")
				continue
			}
		}
		if d := w.ectx.Resolve(feature); d.Emit {
			lw.WriteTag(d.Tag, nil)
		}
	}
}

func (w *walker) writeEffects(lw *tagstream.Writer, layer host.Layer) {
	for _, name := range layer.Effects() {
		tag, ok := effectTag(name)
		if !ok {
			w.ectx.Record(diag.UnsupportedEffects, name)
			continue
		}
		if d := w.ectx.Resolve(tag); d.Emit {
			lw.WriteTag(d.Tag, nil)
		}
	}
}

func (w *walker) writeSequence(comp host.Composition, req sequence.Request) bool {
	if len(comp.Layers()) == 0 {
		w.ectx.Record(diag.VideoSequenceNoContent, "")
		return false
	}

	out, err := w.ectx.ReconcileSequence(comp, req)
	if err != nil {
		if out.Policy == sequence.PolicyStaticBitmap {
			return w.writeStatic(comp)
		}
		return false
	}

	block, sample, ok := w.sequenceTags()
	if !ok {
		return false
	}
	if block == tagcode.VideoCompositionBlock && w.param.Scene == config.SceneUI {
		w.ectx.Record(diag.VideoSequenceInUIScene, "")
	}

	buf, sw := w.newBlock()
	sw.WriteTag(tagcode.CompositionAttributes, compositionPayload(comp))
	for _, f := range w.ectx.Samples(comp, out) {
		sw.WriteTag(sample, samplePayload(comp, f, w.param))
	}
	sw.WriteEnd()
	if !w.check(sw.Err()) {
		return false
	}
	return w.check(w.top.WriteTag(block, buf.Bytes()))
}

// sequenceTags picks the block and sample tags for sequence compositions.
// Video falls back to bitmap when the level predates video sequences.
func (w *walker) sequenceTags() (block, sample tagcode.Code, ok bool) {
	if w.param.SequenceType == config.SequenceVideo &&
		w.ectx.Allows(tagcode.VideoCompositionBlock) && w.ectx.Allows(tagcode.VideoSequence) {
		return tagcode.VideoCompositionBlock, tagcode.VideoSequence, true
	}
	if w.bitmapAllowed() {
		return tagcode.BitmapCompositionBlock, tagcode.BitmapSequence, true
	}
	return 0, 0, false
}

func (w *walker) bitmapAllowed() bool {
	return w.ectx.Permit(tagcode.BitmapCompositionBlock, diag.TagLevelFeature) &&
		w.ectx.Permit(tagcode.BitmapSequence, diag.TagLevelFeature)
}

func (w *walker) writeStatic(comp host.Composition) bool {
	w.ectx.Record(diag.StaticBitmapFallback, "")
	if !w.bitmapAllowed() {
		return false
	}
	buf, sw := w.newBlock()
	sw.WriteTag(tagcode.CompositionAttributes, compositionPayload(comp))
	sw.WriteTag(tagcode.BitmapSequence, staticPayload(comp, w.param))
	sw.WriteEnd()
	if !w.check(sw.Err()) {
		return false
	}
	return w.check(w.top.WriteTag(tagcode.BitmapCompositionBlock, buf.Bytes()))
}

func requestOf(layer host.Layer) sequence.Request {
	r, ok := layer.(factorRequester)
	if !ok {
		return sequence.Request{}
	}
	scale, fps := r.RequestedFactor()
	return sequence.Request{Scale: scale, FPS: fps}
}
