package config

import (
	"fmt"
	"os"
	"strings"
)

// TagModeEnv overrides export.tag_mode when the file leaves it empty.
const TagModeEnv = "ANIMEXPORT_TAG_MODE"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeSequence()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir()
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.TagMode = strings.ToLower(strings.TrimSpace(c.Export.TagMode))
	if c.Export.TagMode == "" {
		if value, ok := os.LookupEnv(TagModeEnv); ok {
			c.Export.TagMode = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if c.Export.TagMode == "" {
		c.Export.TagMode = string(defaultTagMode)
	}

	c.Export.ImageQuality = clampInt(c.Export.ImageQuality, 0, 100)
	if c.Export.ImagePixelRatio == 0 {
		c.Export.ImagePixelRatio = defaultImagePixelRatio
	}
	c.Export.ImagePixelRatio = clampFloat(c.Export.ImagePixelRatio, minPixelRatio, maxPixelRatio)

	c.Export.Scene = strings.ToLower(strings.TrimSpace(c.Export.Scene))
	if c.Export.Scene == "" {
		c.Export.Scene = string(defaultScene)
	}
	c.Export.Language = strings.ToLower(strings.TrimSpace(c.Export.Language))
	if c.Export.Language == "" {
		c.Export.Language = string(defaultLanguage)
	}
	c.Export.MaxDiagnostics = max(c.Export.MaxDiagnostics, 0)
}

func (c *Config) normalizeSequence() {
	c.Sequence.Type = strings.ToLower(strings.TrimSpace(c.Sequence.Type))
	if c.Sequence.Type == "" {
		c.Sequence.Type = string(defaultSequenceType)
	}
	c.Sequence.Suffix = strings.ToLower(strings.TrimSpace(c.Sequence.Suffix))
	if c.Sequence.Suffix == "" {
		c.Sequence.Suffix = defaultSequenceSuffix
	}
	c.Sequence.Quality = clampInt(c.Sequence.Quality, 0, 100)
	c.Sequence.ScaleFps = normalizeScaleFps(c.Sequence.ScaleFps)
}

// normalizeScaleFps clamps every requested sample. Scale is limited to
// (0.01, 1.0] and frame rate to [0.01, 120]; a missing frame rate falls back
// to 24 fps. An empty list becomes the single default sample.
func normalizeScaleFps(list []ScaleFps) []ScaleFps {
	if len(list) == 0 {
		return []ScaleFps{{Scale: maxScale, FPS: defaultSequenceFPS}}
	}
	out := make([]ScaleFps, 0, len(list))
	for _, item := range list {
		if item.Scale <= 0 {
			item.Scale = maxScale
		}
		item.Scale = clampFloat(item.Scale, minScale, maxScale)
		if item.FPS <= 0 {
			item.FPS = defaultSequenceFPS
		}
		item.FPS = clampFloat(item.FPS, minFPS, maxFPS)
		out = append(out, item)
	}
	return out
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
