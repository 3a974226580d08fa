package exporter

import (
	"strings"
	"unicode"

	"animexport/internal/tagcode"
)

// effectTags maps host effect names, reduced to lower-case letters, to the
// tag that carries them.
var effectTags = map[string]tagcode.Code{
	"motiontile":               tagcode.MotionTileEffect,
	"levelsindividualcontrols": tagcode.LevelsIndividualEffect,
	"cornerpin":                tagcode.CornerPinEffect,
	"bulge":                    tagcode.BulgeEffect,
	"fastblur":                 tagcode.FastBlurEffect,
	"fastboxblur":              tagcode.FastBlurEffect,
	"glow":                     tagcode.GlowEffect,
	"displacementmap":          tagcode.DisplacementMapEffect,
	"radialblur":               tagcode.RadialBlurEffect,
	"mosaic":                   tagcode.MosaicEffect,
	"dropshadow":               tagcode.DropShadowStyleV2,
}

func effectTag(name string) (tagcode.Code, bool) {
	key := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, name)
	tag, ok := effectTags[key]
	return tag, ok
}

func isImageFillRule(tag tagcode.Code) bool {
	return tag == tagcode.ImageFillRule || tag == tagcode.ImageFillRuleV2
}

func isTextSource(tag tagcode.Code) bool {
	switch tag {
	case tagcode.TextSource, tagcode.TextSourceV2, tagcode.TextSourceV3:
		return true
	}
	return false
}
