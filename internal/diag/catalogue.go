package diag

import (
	"fmt"
	"strings"
)

const adjustTagLevelHint = `Raise the tag level: set export.tag_mode = "beta" (files may then need a newer player).`

type entry struct {
	name    string
	info    string // may contain one %s for the record's extra text
	suggest string
}

var catalogue = map[Kind]entry{
	UnknownWarning:                   {"UnknownWarning", "%s", ""},
	UnsupportedEffects:               {"UnsupportedEffects", `Effect not supported: "%s".`, "Remove this effect or rebuild the look with supported features."},
	UnsupportedLayerStyle:            {"UnsupportedLayerStyle", `Layer style not supported: "%s".`, "Remove this layer style or rebuild the look with supported features."},
	Expression:                       {"Expression", "Expressions are not supported.", "Convert expressions to keyframes before exporting."},
	VideoSequenceNoContent:           {"VideoSequenceNoContent", "Sequence composition is empty.", "Remove this composition."},
	ContinuousSequence:               {"ContinuousSequence", "Multiple adjacent sequence compositions detected.", "Merge them into one sequence composition for better playback performance."},
	BmpLayerButVectorComp:            {"BmpLayerButVectorComp", "Layer name carries the sequence suffix but points to a vector composition.", "Rename the pre-composition instead of the layer."},
	NoPrecompLayerWithBmpName:        {"NoPrecompLayerWithBmpName", "Non-precomposition layer uses the sequence suffix.", "Pre-compose the layer and put the suffix on the new composition name."},
	SameSequence:                     {"SameSequence", "Multiple identical sequence compositions detected.", "Keep only one of them."},
	StaticVideoSequence:              {"StaticVideoSequence", "Static video sequence composition detected.", "Use an image layer instead."},
	AudioEncodeFail:                  {"AudioEncodeFail", "Audio encoding failed; audio has been dropped.", "Remove the audio layer or retry the export."},
	TextBackgroundOnlyTextLayer:      {"TextBackgroundOnlyTextLayer", "Text background can only be applied to text layers.", "Move the effect onto a text layer."},
	ImageFillRuleOnlyImageLayer:      {"ImageFillRuleOnlyImageLayer", "Image fill rule can only be applied to image layers.", "Move the effect onto an image layer."},
	ImageFillRuleOnlyOne:             {"ImageFillRuleOnlyOne", "Only one image fill rule effect is allowed per layer.", "Keep a single image fill rule effect."},
	TagLevelImageFillRule:            {"TagLevelImageFillRule", "Image fill rule requires a newer tag level and was dropped.", adjustTagLevelHint},
	TagLevelImageFillRuleV2:          {"TagLevelImageFillRuleV2", "Image fill rule was downgraded to the previous revision.", adjustTagLevelHint},
	TagLevelVerticalText:             {"TagLevelVerticalText", "Vertical text requires a newer tag level and was exported horizontally.", adjustTagLevelHint},
	TagLevelMotionBlur:               {"TagLevelMotionBlur", "Motion blur requires a newer tag level and was dropped.", adjustTagLevelHint},
	TagLevelFeature:                  {"TagLevelFeature", "Feature %s is above the target tag level and was omitted.", adjustTagLevelHint},
	VideoTrackLayerRepeatRef:         {"VideoTrackLayerRepeatRef", "Video placeholder layer is referenced more than once.", "Reference each video placeholder from a single layer."},
	VideoTrackRefSameSource:          {"VideoTrackRefSameSource", "Several video placeholders reference the same source.", "Give each placeholder its own source."},
	VideoTrackPeakNum:                {"VideoTrackPeakNum", "Too many simultaneous video tracks: %s.", "Reduce overlapping video placeholders."},
	VideoPlayBackward:                {"VideoPlayBackward", "Video placeholder plays backwards.", "Play placeholders forwards."},
	VideoSpeedTooFast:                {"VideoSpeedTooFast", "Video placeholder speed is too fast.", "Reduce the time stretch."},
	VideoTimeTooShort:                {"VideoTimeTooShort", "Video placeholder duration is too short.", "Lengthen the placeholder layer."},
	VideoTrackTimeCover:              {"VideoTrackTimeCover", "Video placeholder time ranges overlap.", "Separate the placeholder time ranges."},
	AdjustmentLayer:                  {"AdjustmentLayer", "Adjustment layers are not supported.", "Apply the effect to the affected layers directly."},
	CameraLayer:                      {"CameraLayer", "Camera layers are not supported.", "Remove the camera layer."},
	Layer3D:                          {"Layer3D", "3D layers are exported as 2D.", "Disable the 3D switch."},
	LayerTimeRemapping:               {"LayerTimeRemapping", "Time remapping is not supported on this layer.", "Pre-compose the layer and remap the composition."},
	EffectAndStylePickNum:            {"EffectAndStylePickNum", "Too many effects and layer styles: %s.", "Reduce the number of effects for better rendering performance."},
	LayerNum:                         {"LayerNum", "Too many layers: %s.", "Reduce the layer count."},
	VideoSequenceInUIScene:           {"VideoSequenceInUIScene", "Video sequences are not recommended in UI scenes.", "Use a bitmap sequence instead."},
	MarkerJSONHasChinese:             {"MarkerJSONHasChinese", "Marker JSON contains non-ASCII punctuation.", "Use ASCII punctuation in marker JSON."},
	MarkerJSONGrammar:                {"MarkerJSONGrammar", "Marker JSON is malformed.", "Fix the marker JSON syntax."},
	RangeSelectorUnitsIndex:          {"RangeSelectorUnitsIndex", "Range selector index units are not supported.", "Use percentage units."},
	RangeSelectorBasedOn:             {"RangeSelectorBasedOn", "Range selector basis is not supported.", "Base the selector on characters."},
	RangeSelectorSmoothness:          {"RangeSelectorSmoothness", "Range selector smoothness is not supported.", "Set smoothness to 100%."},
	WigglySelectorBasedOn:            {"WigglySelectorBasedOn", "Wiggly selector basis is not supported.", "Base the selector on characters."},
	GraphicsMemory:                   {"GraphicsMemory", "Estimated graphics memory is high: %s.", "Reduce image and sequence sizes."},
	GraphicsMemoryUI:                 {"GraphicsMemoryUI", "Estimated graphics memory is high for a UI scene: %s.", "Reduce image and sequence sizes."},
	ImageNum:                         {"ImageNum", "Too many images: %s.", "Reduce the number of images."},
	BmpCompositionNum:                {"BmpCompositionNum", "Too many sequence compositions: %s.", "Reduce the number of sequence compositions."},
	FontSmallAndScaleLarge:           {"FontSmallAndScaleLarge", "Small font scaled up heavily.", "Increase the font size and reduce the scale."},
	FontFileTooBig:                   {"FontFileTooBig", "Font file is too big: %s.", "Use a subset font file."},
	TextPathParamPerpendicularToPath: {"TextPathParamPerpendicularToPath", "Text path 'perpendicular to path' is not supported.", "Enable 'perpendicular to path'."},
	TextPathParamForceAlignment:      {"TextPathParamForceAlignment", "Text path 'force alignment' is not supported.", "Disable 'force alignment'."},
	TextPathVertical:                 {"TextPathVertical", "Vertical text on a path is not supported.", "Use horizontal text."},
	TextPathBoxText:                  {"TextPathBoxText", "Box text on a path is not supported.", "Use point text."},
	TextPathAnimator:                 {"TextPathAnimator", "Text animators on a path are not supported.", "Remove the text animator."},
	VideoCompositionOverlap:          {"VideoCompositionOverlap", "Video sequence compositions overlap in time.", "Separate the sequence compositions."},
	StaticBitmapFallback:             {"StaticBitmapFallback", "Sequence could not be sampled; exported as a static bitmap.", "Check the composition size and frame rate."},
	OtherWarning:                     {"OtherWarning", "%s", ""},
	UnknownError:                     {"UnknownError", "%s", ""},
	ExportAEError:                    {"ExportAEError", "Host query failed: %s.", "Retry the export; restart the host if it persists."},
	ExportBitmapSequenceError:        {"ExportBitmapSequenceError", "Bitmap sequence export error.", ""},
	ExportVideoSequenceError:         {"ExportVideoSequenceError", "Video sequence export error.", ""},
	ExportAudioError:                 {"ExportAudioError", "Audio export error.", ""},
	WebpEncodeError:                  {"WebpEncodeError", "WebP encoding error.", ""},
	ExportRenderError:                {"ExportRenderError", "Export rendering error.", ""},
	CompositionHandleNotFound:        {"CompositionHandleNotFound", "Composition handle not found for ID %s.", "Retry the export; the project structure may have changed."},
	DisplacementMapRefSelf:           {"DisplacementMapRefSelf", "Displacement map cannot reference its own layer.", "Point the displacement map at another layer."},
	ExportRangeSelectorError:         {"ExportRangeSelectorError", "Text range selector export error.", ""},
	FileVerifyError:                  {"FileVerifyError", "Exported file verification failed: %s.", ""},
	SequenceOutOfRange:               {"SequenceOutOfRange", "Sequence parameters out of range: %s.", "Give the composition a non-zero size and a positive frame rate."},
	TagLevelOutOfRange:               {"TagLevelOutOfRange", "Configured tag level %s is outside the supported range.", "Pick a tag level inside the supported range or use the stable mode."},
	OutputWriteError:                 {"OutputWriteError", "Writing the output failed: %s.", "Check free disk space and permissions of the output directory."},
	ExportCanceled:                   {"ExportCanceled", "Export canceled.", ""},
	OtherError:                       {"OtherError", "%s", ""},
}

// Info returns the one-line description for a kind, filling in extra.
func Info(k Kind, extra string) string {
	e, ok := catalogue[k]
	if !ok {
		return extra
	}
	if strings.Contains(e.info, "%s") {
		return fmt.Sprintf(e.info, extra)
	}
	return e.info
}

// Suggestion returns the remediation hint for a kind, if any.
func Suggestion(k Kind) string {
	if e, ok := catalogue[k]; ok {
		return e.suggest
	}
	return "Undefined error message."
}
