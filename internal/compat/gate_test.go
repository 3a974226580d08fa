package compat_test

import (
	"errors"
	"testing"

	"animexport/internal/compat"
	"animexport/internal/config"
	"animexport/internal/diag"
	"animexport/internal/tagcode"
)

func TestResolveLevelPresets(t *testing.T) {
	tests := []struct {
		mode compat.Mode
		want tagcode.Code
	}{
		{compat.Stable, tagcode.Stable},
		{compat.Beta, tagcode.Max},
		{compat.Custom(int(tagcode.Min)), tagcode.Min},
		{compat.Custom(60), tagcode.Code(60)},
	}
	for _, tt := range tests {
		got, err := compat.ResolveLevel(tt.mode)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tt.mode, err)
		}
		if got != tt.want {
			t.Fatalf("%v: level = %d, want %d", tt.mode, got, tt.want)
		}
	}
}

func TestCustomLevelOutOfRangeIsConfigurationError(t *testing.T) {
	for _, level := range []int{0, int(tagcode.Min) - 1, int(tagcode.Max) + 1, 1023} {
		if _, err := compat.NewGate(compat.Custom(level)); !errors.Is(err, compat.ErrTagLevelOutOfRange) {
			t.Fatalf("level %d: expected ErrTagLevelOutOfRange, got %v", level, err)
		}
	}
}

func TestAllowsMatchesDefinitionAndIsMonotonic(t *testing.T) {
	tags := tagcode.All()
	for level := int(tagcode.Min); level <= int(tagcode.Max); level++ {
		gate := compat.MustGate(compat.Custom(level))
		for _, tag := range tags {
			want := int(tag) <= level
			if got := gate.Allows(tag); got != want {
				t.Fatalf("level %d tag %v: allows = %v, want %v", level, tag, got, want)
			}
			if !gate.Allows(tag) {
				continue
			}
			for higher := level + 1; higher <= int(tagcode.Max); higher++ {
				if !compat.MustGate(compat.Custom(higher)).Allows(tag) {
					t.Fatalf("tag %v allowed at %d but not at %d", tag, level, higher)
				}
			}
		}
	}
}

func TestAllowsUnknownTagPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown tag")
		}
	}()
	compat.MustGate(compat.Beta).Allows(tagcode.Code(40))
}

func TestCustomBelowTagDeniesWithoutLevelDiagnostic(t *testing.T) {
	gate := compat.MustGate(compat.Custom(int(tagcode.TextSourceV3) - 1))
	if gate.Allows(tagcode.TextSourceV3) {
		t.Fatal("expected TextSourceV3 to be denied")
	}
	d := gate.Resolve(tagcode.TextSourceV3)
	if d.Report && d.Kind == diag.TagLevelOutOfRange {
		t.Fatal("a valid custom level must not report TagLevelOutOfRange")
	}
}

func TestSelectPicksNewestAllowed(t *testing.T) {
	gate := compat.MustGate(compat.Custom(int(tagcode.ImageBytesV2)))
	tag, ok := gate.Select(tagcode.ImageBytesV3, tagcode.ImageBytesV2, tagcode.ImageBytes)
	if !ok || tag != tagcode.ImageBytesV2 {
		t.Fatalf("Select = %v, %v; want ImageBytesV2", tag, ok)
	}
	if _, ok := compat.MustGate(compat.Custom(int(tagcode.Min))).Select(tagcode.ImageBytesV3, tagcode.ImageBytes); ok {
		t.Fatal("expected no variant at the minimum level")
	}
}

func TestResolveDowngradesAndOmits(t *testing.T) {
	tests := []struct {
		name       string
		level      int
		feature    tagcode.Code
		wantEmit   bool
		wantTag    tagcode.Code
		wantReport bool
		wantKind   diag.Kind
	}{
		{"fill rule v2 allowed", int(tagcode.Max), tagcode.ImageFillRuleV2, true, tagcode.ImageFillRuleV2, false, 0},
		{"fill rule v2 downgraded", int(tagcode.ImageFillRule), tagcode.ImageFillRuleV2, true, tagcode.ImageFillRule, true, diag.TagLevelImageFillRuleV2},
		{"fill rule dropped", int(tagcode.Min), tagcode.ImageFillRuleV2, false, 0, true, diag.TagLevelImageFillRule},
		{"vertical text", int(tagcode.TextSourceV2), tagcode.TextSourceV3, true, tagcode.TextSourceV2, true, diag.TagLevelVerticalText},
		{"motion blur", int(tagcode.LayerAttributesV3), tagcode.LayerAttributesExtra, false, 0, true, diag.TagLevelMotionBlur},
		{"image bytes silent downgrade", int(tagcode.ImageBytesV2), tagcode.ImageBytesV3, true, tagcode.ImageBytesV2, false, 0},
		{"plain feature", int(tagcode.GlowEffect) - 1, tagcode.GlowEffect, false, 0, true, diag.TagLevelFeature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := compat.MustGate(compat.Custom(tt.level)).Resolve(tt.feature)
			if d.Emit != tt.wantEmit || (tt.wantEmit && d.Tag != tt.wantTag) {
				t.Fatalf("emit = %v tag = %v, want %v %v", d.Emit, d.Tag, tt.wantEmit, tt.wantTag)
			}
			if d.Report != tt.wantReport || (tt.wantReport && d.Kind != tt.wantKind) {
				t.Fatalf("report = %v kind = %v, want %v %v", d.Report, d.Kind, tt.wantReport, tt.wantKind)
			}
		})
	}
}

func TestRuleForTrimsChain(t *testing.T) {
	r := compat.RuleFor(tagcode.TextSourceV2)
	if len(r.Chain) != 2 || r.Chain[0] != tagcode.TextSourceV2 {
		t.Fatalf("unexpected chain: %v", r.Chain)
	}
	r.Chain[0] = tagcode.End
	if compat.RuleFor(tagcode.TextSourceV2).Chain[0] == tagcode.End {
		t.Fatal("RuleFor must return a copy of the chain")
	}
}

func TestModeOfParam(t *testing.T) {
	cfg := config.Default()
	param := cfg.ExportParam()
	param.TagMode = config.TagModeCustom
	param.TagLevel = 70
	mode, err := compat.ModeOf(param)
	if err != nil {
		t.Fatalf("ModeOf: %v", err)
	}
	if !mode.IsCustom() || mode.String() != "custom(70)" {
		t.Fatalf("unexpected mode %v", mode)
	}
	if _, err := compat.ParseMode("nightly", 0); err == nil {
		t.Fatal("expected unknown mode error")
	}
}
