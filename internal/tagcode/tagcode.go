package tagcode

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrLevelOutOfRange reports a compatibility level outside [Min, Max].
var ErrLevelOutOfRange = errors.New("tag level out of range")

// Code identifies one versioned feature tag of the binary animation format.
// Codes are assigned in introduction order and never reused, so a numeric
// comparison against a compatibility level is a valid gate.
type Code uint16

const (
	End                    Code = 0
	FontTables             Code = 1
	VectorCompositionBlock Code = 2
	CompositionAttributes  Code = 3
	ImageTables            Code = 4
	LayerBlock             Code = 5
	LayerAttributes        Code = 6
	SolidColor             Code = 7
	TextSource             Code = 8
	TextMoreOption         Code = 10
	ImageReference         Code = 11
	CompositionReference   Code = 12
	Transform2D            Code = 13
	MaskBlock              Code = 14
	ShapeGroup             Code = 15
	Rectangle              Code = 16
	Ellipse                Code = 17
	PolyStar               Code = 18
	ShapePath              Code = 19
	Fill                   Code = 20
	Stroke                 Code = 21
	GradientFill           Code = 22
	GradientStroke         Code = 23
	MergePaths             Code = 24
	TrimPaths              Code = 25
	Repeater               Code = 26
	RoundCorners           Code = 27
	Performance            Code = 28
	DropShadowStyle        Code = 29
	CachePolicy            Code = 30
	FileAttributes         Code = 31
	TimeStretchMode        Code = 32
	Mp4Header              Code = 33

	// 34 ~ 44 are reserved.

	BitmapCompositionBlock Code = 45
	BitmapSequence         Code = 46
	ImageBytes             Code = 47
	ImageBytesV2           Code = 48
	ImageBytesV3           Code = 49

	VideoCompositionBlock Code = 50
	VideoSequence         Code = 51

	LayerAttributesV2      Code = 52
	MarkerList             Code = 53
	ImageFillRule          Code = 54
	AudioBytes             Code = 55
	MotionTileEffect       Code = 56
	LevelsIndividualEffect Code = 57
	CornerPinEffect        Code = 58
	BulgeEffect            Code = 59
	FastBlurEffect         Code = 60
	GlowEffect             Code = 61

	LayerAttributesV3    Code = 62
	LayerAttributesExtra Code = 63

	TextSourceV2 Code = 64

	DropShadowStyleV2     Code = 65
	DisplacementMapEffect Code = 66
	ImageFillRuleV2       Code = 67

	TextSourceV3   Code = 68
	TextPathOption Code = 69

	TextAnimator                         Code = 70
	TextRangeSelector                    Code = 71
	TextAnimatorPropertiesTrackingType   Code = 72
	TextAnimatorPropertiesTrackingAmount Code = 73
	TextAnimatorPropertiesFillColor      Code = 74
	TextAnimatorPropertiesStrokeColor    Code = 75
	TextAnimatorPropertiesPosition       Code = 76
	TextAnimatorPropertiesScale          Code = 77
	TextAnimatorPropertiesRotation       Code = 78
	TextAnimatorPropertiesOpacity        Code = 79
	TextWigglySelector                   Code = 80

	RadialBlurEffect Code = 81
	MosaicEffect     Code = 82
	EditableIndices  Code = 83
)

// Preset compatibility levels.
const (
	// Min is the oldest level an export may target: the complete first
	// revision of the format, before the reserved gap.
	Min = Mp4Header
	// Stable is the newest level known to be broadly supported by deployed
	// players.
	Stable = TextWigglySelector
	// Max is the newest level this build knows how to write.
	Max = EditableIndices
)

// MaxEncodable is the largest code representable in a tag header.
const MaxEncodable Code = 1023

var names = map[Code]string{
	End:                                  "End",
	FontTables:                           "FontTables",
	VectorCompositionBlock:               "VectorCompositionBlock",
	CompositionAttributes:                "CompositionAttributes",
	ImageTables:                          "ImageTables",
	LayerBlock:                           "LayerBlock",
	LayerAttributes:                      "LayerAttributes",
	SolidColor:                           "SolidColor",
	TextSource:                           "TextSource",
	TextMoreOption:                       "TextMoreOption",
	ImageReference:                       "ImageReference",
	CompositionReference:                 "CompositionReference",
	Transform2D:                          "Transform2D",
	MaskBlock:                            "MaskBlock",
	ShapeGroup:                           "ShapeGroup",
	Rectangle:                            "Rectangle",
	Ellipse:                              "Ellipse",
	PolyStar:                             "PolyStar",
	ShapePath:                            "ShapePath",
	Fill:                                 "Fill",
	Stroke:                               "Stroke",
	GradientFill:                         "GradientFill",
	GradientStroke:                       "GradientStroke",
	MergePaths:                           "MergePaths",
	TrimPaths:                            "TrimPaths",
	Repeater:                             "Repeater",
	RoundCorners:                         "RoundCorners",
	Performance:                          "Performance",
	DropShadowStyle:                      "DropShadowStyle",
	CachePolicy:                          "CachePolicy",
	FileAttributes:                       "FileAttributes",
	TimeStretchMode:                      "TimeStretchMode",
	Mp4Header:                            "Mp4Header",
	BitmapCompositionBlock:               "BitmapCompositionBlock",
	BitmapSequence:                       "BitmapSequence",
	ImageBytes:                           "ImageBytes",
	ImageBytesV2:                         "ImageBytesV2",
	ImageBytesV3:                         "ImageBytesV3",
	VideoCompositionBlock:                "VideoCompositionBlock",
	VideoSequence:                        "VideoSequence",
	LayerAttributesV2:                    "LayerAttributesV2",
	MarkerList:                           "MarkerList",
	ImageFillRule:                        "ImageFillRule",
	AudioBytes:                           "AudioBytes",
	MotionTileEffect:                     "MotionTileEffect",
	LevelsIndividualEffect:               "LevelsIndividualEffect",
	CornerPinEffect:                      "CornerPinEffect",
	BulgeEffect:                          "BulgeEffect",
	FastBlurEffect:                       "FastBlurEffect",
	GlowEffect:                           "GlowEffect",
	LayerAttributesV3:                    "LayerAttributesV3",
	LayerAttributesExtra:                 "LayerAttributesExtra",
	TextSourceV2:                         "TextSourceV2",
	DropShadowStyleV2:                    "DropShadowStyleV2",
	DisplacementMapEffect:                "DisplacementMapEffect",
	ImageFillRuleV2:                      "ImageFillRuleV2",
	TextSourceV3:                         "TextSourceV3",
	TextPathOption:                       "TextPathOption",
	TextAnimator:                         "TextAnimator",
	TextRangeSelector:                    "TextRangeSelector",
	TextAnimatorPropertiesTrackingType:   "TextAnimatorPropertiesTrackingType",
	TextAnimatorPropertiesTrackingAmount: "TextAnimatorPropertiesTrackingAmount",
	TextAnimatorPropertiesFillColor:      "TextAnimatorPropertiesFillColor",
	TextAnimatorPropertiesStrokeColor:    "TextAnimatorPropertiesStrokeColor",
	TextAnimatorPropertiesPosition:       "TextAnimatorPropertiesPosition",
	TextAnimatorPropertiesScale:          "TextAnimatorPropertiesScale",
	TextAnimatorPropertiesRotation:       "TextAnimatorPropertiesRotation",
	TextAnimatorPropertiesOpacity:        "TextAnimatorPropertiesOpacity",
	TextWigglySelector:                   "TextWigglySelector",
	RadialBlurEffect:                     "RadialBlurEffect",
	MosaicEffect:                         "MosaicEffect",
	EditableIndices:                      "EditableIndices",
}

var byName map[string]Code

func init() {
	byName = make(map[string]Code, len(names))
	for code, name := range names {
		byName[name] = code
	}
}

// Known reports whether c is a compiled-in tag.
func Known(c Code) bool {
	_, ok := names[c]
	return ok
}

// String returns the tag name, or a numeric placeholder for unknown codes.
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return "Tag(" + strconv.Itoa(int(c)) + ")"
}

// Parse resolves a tag by name or by decimal code.
func Parse(value string) (Code, error) {
	if code, ok := byName[value]; ok {
		return code, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 || n > int(MaxEncodable) {
		return 0, fmt.Errorf("unknown feature tag %q", value)
	}
	code := Code(n)
	if !Known(code) {
		return 0, fmt.Errorf("unknown feature tag %q", value)
	}
	return code, nil
}

// All returns every known tag in ascending order.
func All() []Code {
	out := make([]Code, 0, len(names))
	for c := End; c <= Max; c++ {
		if Known(c) {
			out = append(out, c)
		}
	}
	return out
}

// InRange reports whether level lies within [Min, Max].
func InRange(level int) bool {
	return level >= int(Min) && level <= int(Max)
}

// CheckLevel returns ErrLevelOutOfRange, wrapped with the accepted range, when
// level is not a level this build can write.
func CheckLevel(level int) error {
	if InRange(level) {
		return nil
	}
	return fmt.Errorf("%w: %d not in [%d, %d]", ErrLevelOutOfRange, level, Min, Max)
}
