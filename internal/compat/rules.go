package compat

import (
	"slices"

	"animexport/internal/diag"
	"animexport/internal/tagcode"
)

// NoRecord marks a downgrade or omission that is not reported.
const NoRecord diag.Kind = -1

// Rule describes one feature family: its variants newest first and the
// diagnostics to record when the gate forces an older variant or none.
type Rule struct {
	Chain     []tagcode.Code
	Downgrade diag.Kind
	Omit      diag.Kind
}

var rules = []Rule{
	{
		Chain:     []tagcode.Code{tagcode.ImageFillRuleV2, tagcode.ImageFillRule},
		Downgrade: diag.TagLevelImageFillRuleV2,
		Omit:      diag.TagLevelImageFillRule,
	},
	{
		// Vertical text falls back to horizontal layout.
		Chain:     []tagcode.Code{tagcode.TextSourceV3, tagcode.TextSourceV2, tagcode.TextSource},
		Downgrade: diag.TagLevelVerticalText,
		Omit:      diag.TagLevelVerticalText,
	},
	{
		// Motion blur lives in the extra attribute block.
		Chain:     []tagcode.Code{tagcode.LayerAttributesExtra},
		Downgrade: NoRecord,
		Omit:      diag.TagLevelMotionBlur,
	},
	{
		Chain:     []tagcode.Code{tagcode.LayerAttributesV3, tagcode.LayerAttributesV2, tagcode.LayerAttributes},
		Downgrade: NoRecord,
		Omit:      diag.TagLevelFeature,
	},
	{
		Chain:     []tagcode.Code{tagcode.ImageBytesV3, tagcode.ImageBytesV2, tagcode.ImageBytes},
		Downgrade: NoRecord,
		Omit:      diag.TagLevelFeature,
	},
	{
		Chain:     []tagcode.Code{tagcode.DropShadowStyleV2, tagcode.DropShadowStyle},
		Downgrade: NoRecord,
		Omit:      diag.TagLevelFeature,
	},
}

// RuleFor returns the rule covering tag, with the chain trimmed so it starts
// at tag. Tags outside every family get a single-entry chain that reports
// TagLevelFeature when omitted.
func RuleFor(tag tagcode.Code) Rule {
	for _, r := range rules {
		if i := slices.Index(r.Chain, tag); i >= 0 {
			r.Chain = slices.Clone(r.Chain[i:])
			return r
		}
	}
	return Rule{Chain: []tagcode.Code{tag}, Downgrade: NoRecord, Omit: diag.TagLevelFeature}
}

// Decision is the outcome of resolving one requested feature.
type Decision struct {
	Requested tagcode.Code
	// Tag is the variant to write; meaningful only when Emit is true.
	Tag  tagcode.Code
	Emit bool
	// Kind is recorded when Report is true.
	Kind   diag.Kind
	Report bool
}

// Downgraded reports whether an older variant than requested was chosen.
func (d Decision) Downgraded() bool { return d.Emit && d.Tag != d.Requested }

// Resolve picks the variant of feature the gate permits and the diagnostic
// that goes with the choice.
func (g Gate) Resolve(feature tagcode.Code) Decision {
	rule := RuleFor(feature)
	d := Decision{Requested: feature}
	if tag, ok := g.Select(rule.Chain...); ok {
		d.Tag, d.Emit = tag, true
		if tag != feature && rule.Downgrade.Valid() {
			d.Kind, d.Report = rule.Downgrade, true
		}
		return d
	}
	if rule.Omit.Valid() {
		d.Kind, d.Report = rule.Omit, true
	}
	return d
}
