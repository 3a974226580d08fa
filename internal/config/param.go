package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"animexport/internal/tagcode"
)

// TagMode selects how the target compatibility level is chosen.
type TagMode string

const (
	TagModeStable TagMode = "stable"
	TagModeBeta   TagMode = "beta"
	TagModeCustom TagMode = "custom"
)

// SequenceType selects the encoding used for sequence compositions.
type SequenceType string

const (
	SequenceVideo  SequenceType = "video"
	SequenceBitmap SequenceType = "bitmap"
)

// Scene tunes resource warnings for the playback context.
type Scene string

const (
	SceneGeneral Scene = "general"
	SceneUI      Scene = "ui"
)

// Language selects the language of user-facing export reports.
type Language string

const (
	LanguageAuto    Language = "auto"
	LanguageEnglish Language = "english"
	LanguageChinese Language = "chinese"
)

// ExportParam is the immutable set of options one export runs with. Values
// are copied out of Config, so later edits to the Config do not leak into a
// running export.
type ExportParam struct {
	TagMode  TagMode
	TagLevel int

	ImageQuality         int
	ImagePixelRatio      float64
	ExportLayerName      bool
	ExportFontFile       bool
	ShowCompressionPanel bool
	Scene                Scene
	Language             Language
	// MaxDiagnostics bounds the records one export holds; zero keeps the
	// collector default.
	MaxDiagnostics int

	SequenceType           SequenceType
	SequenceSuffix         string
	SequenceQuality        int
	BitmapKeyFrameInterval int
	BitmapMaxResolution    int
	ForceStaticBitmap      bool

	scaleFps []ScaleFps
}

// ExportParam snapshots the export-related sections.
func (c *Config) ExportParam() ExportParam {
	return ExportParam{
		TagMode:                TagMode(c.Export.TagMode),
		TagLevel:               c.Export.TagLevel,
		ImageQuality:           c.Export.ImageQuality,
		ImagePixelRatio:        c.Export.ImagePixelRatio,
		ExportLayerName:        c.Export.EnableLayerName,
		ExportFontFile:         c.Export.EnableFontFile,
		ShowCompressionPanel:   c.Export.EnableCompressionPanel,
		Scene:                  Scene(c.Export.Scene),
		Language:               Language(c.Export.Language),
		MaxDiagnostics:         c.Export.MaxDiagnostics,
		SequenceType:           SequenceType(c.Sequence.Type),
		SequenceSuffix:         c.Sequence.Suffix,
		SequenceQuality:        c.Sequence.Quality,
		BitmapKeyFrameInterval: c.Sequence.KeyFrameInterval,
		BitmapMaxResolution:    c.Sequence.MaxResolution,
		ForceStaticBitmap:      c.Sequence.ForceStaticBitmap,
		scaleFps:               slices.Clone(c.Sequence.ScaleFps),
	}
}

// ScaleFps returns a copy of the requested sample list.
func (p ExportParam) ScaleFps() []ScaleFps {
	return slices.Clone(p.scaleFps)
}

// WithScaleFps returns a copy of p using list as the requested samples,
// clamped the same way the config loader clamps them.
func (p ExportParam) WithScaleFps(list ...ScaleFps) ExportParam {
	p.scaleFps = normalizeScaleFps(list)
	return p
}

// IsSequenceName reports whether a composition name carries the sequence
// suffix. The comparison ignores case.
func (p ExportParam) IsSequenceName(name string) bool {
	return p.SequenceSuffix != "" && strings.HasSuffix(strings.ToLower(name), p.SequenceSuffix)
}

// Validate rejects parameters the exporter cannot run with.
func (p ExportParam) Validate() error {
	switch p.TagMode {
	case TagModeStable, TagModeBeta:
	case TagModeCustom:
		if err := tagcode.CheckLevel(p.TagLevel); err != nil {
			return fmt.Errorf("export.tag_level must be between %d and %d: %w", tagcode.Min, tagcode.Max, err)
		}
	default:
		return fmt.Errorf("export.tag_mode must be one of stable, beta, custom (got %q)", p.TagMode)
	}
	if p.ImageQuality < 0 || p.ImageQuality > 100 {
		return errors.New("export.image_quality must be between 0 and 100")
	}
	if p.ImagePixelRatio < minPixelRatio || p.ImagePixelRatio > maxPixelRatio {
		return errors.New("export.image_pixel_ratio must be between 1.0 and 3.0")
	}
	switch p.Scene {
	case SceneGeneral, SceneUI:
	default:
		return fmt.Errorf("export.scene must be general or ui (got %q)", p.Scene)
	}
	switch p.Language {
	case LanguageAuto, LanguageEnglish, LanguageChinese:
	default:
		return fmt.Errorf("export.language must be one of auto, english, chinese (got %q)", p.Language)
	}
	switch p.SequenceType {
	case SequenceVideo, SequenceBitmap:
	default:
		return fmt.Errorf("sequence.type must be video or bitmap (got %q)", p.SequenceType)
	}
	if p.SequenceSuffix == "" {
		return errors.New("sequence.suffix must be set")
	}
	if p.SequenceQuality < 0 || p.SequenceQuality > 100 {
		return errors.New("sequence.quality must be between 0 and 100")
	}
	if p.BitmapKeyFrameInterval < 1 {
		return errors.New("sequence.key_frame_interval must be at least 1")
	}
	if p.BitmapMaxResolution < 1 {
		return errors.New("sequence.max_resolution must be positive")
	}
	return nil
}
