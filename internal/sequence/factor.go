package sequence

import (
	"errors"
	"fmt"
	"math"
)

// ErrSequenceOutOfRange is returned for compositions with zero area or a
// non-positive frame rate.
var ErrSequenceOutOfRange = errors.New("sequence parameters out of range")

// RangeError carries the offending value. It unwraps to ErrSequenceOutOfRange.
type RangeError struct {
	Detail string
}

func (e *RangeError) Error() string { return ErrSequenceOutOfRange.Error() + ": " + e.Detail }

func (e *RangeError) Unwrap() error { return ErrSequenceOutOfRange }

const (
	minScale  = 0.01
	maxScale  = 1.0
	minFPS    = 0.01
	maxFPS    = 120.0
	roundSlop = 1e-9
)

// Factor is the effective (scale ratio, frame-rate ratio) a sequence is
// sampled at. Both ratios are relative to the composition's native values.
type Factor struct {
	Scale float64
	FPS   float64
}

// Identity samples at native size and cadence.
var Identity = Factor{Scale: 1, FPS: 1}

// Excluded is returned for compositions that cannot be sampled.
var Excluded = Factor{}

// IsExcluded reports whether f is the Excluded sentinel.
func (f Factor) IsExcluded() bool { return f == Excluded }

func (f Factor) String() string {
	if f.IsExcluded() {
		return "excluded"
	}
	return fmt.Sprintf("scale=%.4f fps=%.4f", f.Scale, f.FPS)
}

// OutputSize returns the sampled frame size, rounding up and never below one
// pixel.
func (f Factor) OutputSize(width, height int) (int, int) {
	return scaledDim(width, f.Scale), scaledDim(height, f.Scale)
}

// FrameCount returns how many frames a sequence of duration native frames
// yields at the factor's frame-rate ratio.
func (f Factor) FrameCount(duration int) int {
	if duration <= 0 || f.FPS <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(float64(duration)*f.FPS-roundSlop)))
}

// Derive returns an additional, never larger sample: the scale is multiplied
// by scale and the frame rate is capped at fps frames per second. Non-positive
// arguments leave the corresponding ratio unchanged.
func (f Factor) Derive(scale, fps, nativeFPS float64) Factor {
	out := f
	if scale > 0 {
		out.Scale = f.Scale * clamp(scale, minScale, maxScale)
	}
	if fps > 0 && nativeFPS > 0 {
		out.FPS = min(f.FPS, fpsRatio(fps, nativeFPS))
	}
	return out
}

func scaledDim(n int, scale float64) int {
	if n <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(float64(n)*scale-roundSlop)))
}

// Request is what the caller asked for. A zero Scale means 1.0; a zero FPS
// means "keep the native frame rate".
type Request struct {
	Scale float64
	FPS   float64
}

// Input collects everything Reconcile needs for one composition.
type Input struct {
	Width        int
	Height       int
	FrameRate    float64
	MaxShortSide int
	Request      Request
}

// Reconcile computes the effective factor. The scale starts at the requested
// value clamped to (0.01, 1.0] and shrinks further only when the short side
// would otherwise exceed MaxShortSide; a zero MaxShortSide disables the
// ceiling. The frame-rate ratio is 1.0 unless a target is requested, in which
// case it is min(target, native) / native with the target clamped to
// [0.01, 120].
func Reconcile(in Input) (Factor, error) {
	if in.Width <= 0 || in.Height <= 0 {
		return Excluded, &RangeError{Detail: fmt.Sprintf("size %dx%d", in.Width, in.Height)}
	}
	if in.FrameRate <= 0 || math.IsNaN(in.FrameRate) || math.IsInf(in.FrameRate, 0) {
		return Excluded, &RangeError{Detail: fmt.Sprintf("frame rate %g", in.FrameRate)}
	}

	scale := maxScale
	if in.Request.Scale > 0 {
		scale = clamp(in.Request.Scale, minScale, maxScale)
	}
	short := float64(min(in.Width, in.Height))
	if in.MaxShortSide > 0 && short*scale > float64(in.MaxShortSide) {
		scale = float64(in.MaxShortSide) / short
	}

	fps := 1.0
	if in.Request.FPS > 0 {
		fps = fpsRatio(in.Request.FPS, in.FrameRate)
	}
	return Factor{Scale: scale, FPS: fps}, nil
}

func fpsRatio(target, native float64) float64 {
	target = clamp(target, minFPS, maxFPS)
	return min(target, native) / native
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
