package diag

// Kind classifies one diagnostic. Kinds declared after OtherWarning are errors.
type Kind int

const (
	UnknownWarning Kind = iota
	UnsupportedEffects
	UnsupportedLayerStyle
	Expression
	VideoSequenceNoContent
	ContinuousSequence
	BmpLayerButVectorComp
	NoPrecompLayerWithBmpName
	SameSequence
	StaticVideoSequence
	AudioEncodeFail
	TextBackgroundOnlyTextLayer
	ImageFillRuleOnlyImageLayer
	ImageFillRuleOnlyOne
	TagLevelImageFillRule
	TagLevelImageFillRuleV2
	TagLevelVerticalText
	TagLevelMotionBlur
	TagLevelFeature
	VideoTrackLayerRepeatRef
	VideoTrackRefSameSource
	VideoTrackPeakNum
	VideoPlayBackward
	VideoSpeedTooFast
	VideoTimeTooShort
	VideoTrackTimeCover
	AdjustmentLayer
	CameraLayer
	Layer3D
	LayerTimeRemapping
	EffectAndStylePickNum
	LayerNum
	VideoSequenceInUIScene
	MarkerJSONHasChinese
	MarkerJSONGrammar
	RangeSelectorUnitsIndex
	RangeSelectorBasedOn
	RangeSelectorSmoothness
	WigglySelectorBasedOn
	GraphicsMemory
	GraphicsMemoryUI
	ImageNum
	BmpCompositionNum
	FontSmallAndScaleLarge
	FontFileTooBig
	TextPathParamPerpendicularToPath
	TextPathParamForceAlignment
	TextPathVertical
	TextPathBoxText
	TextPathAnimator
	VideoCompositionOverlap
	StaticBitmapFallback
	OtherWarning

	UnknownError
	ExportAEError
	ExportBitmapSequenceError
	ExportVideoSequenceError
	ExportAudioError
	WebpEncodeError
	ExportRenderError
	CompositionHandleNotFound
	DisplacementMapRefSelf
	ExportRangeSelectorError
	FileVerifyError
	SequenceOutOfRange
	TagLevelOutOfRange
	OutputWriteError
	ExportCanceled
	OtherError

	kindCount
)

// Severity splits kinds into warnings and errors.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Severity classifies k.
func (k Kind) Severity() Severity {
	if k > OtherWarning {
		return SeverityError
	}
	return SeverityWarning
}

// IsError reports whether k is an error kind.
func (k Kind) IsError() bool { return k.Severity() == SeverityError }

// ElevatesEarlyExit reports whether recording k must stop the export walk.
// These are host or encoder failures after which the output cannot be trusted.
func (k Kind) ElevatesEarlyExit() bool {
	switch k {
	case ExportAEError,
		ExportBitmapSequenceError,
		ExportVideoSequenceError,
		WebpEncodeError,
		ExportRenderError,
		FileVerifyError,
		OutputWriteError,
		ExportCanceled:
		return true
	default:
		return false
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k >= UnknownWarning && k < kindCount
}

func (k Kind) String() string {
	if e, ok := catalogue[k]; ok {
		return e.name
	}
	return "UnknownKind"
}

// ParseKind resolves a kind by its String form.
func ParseKind(name string) (Kind, bool) {
	for k, e := range catalogue {
		if e.name == name {
			return k, true
		}
	}
	return 0, false
}
