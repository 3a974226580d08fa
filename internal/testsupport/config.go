package testsupport

import (
	"path/filepath"
	"testing"

	"animexport/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Export.TagMode = string(config.TagModeStable)
	cfgVal.Paths.ScratchDir = filepath.Join(base, "scratch")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history", "history.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTagMode sets the tag mode and, for custom mode, the tag level.
func WithTagMode(mode config.TagMode, level int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.TagMode = string(mode)
		b.cfg.Export.TagLevel = level
	}
}

// WithForceStaticBitmap toggles the static bitmap fallback for excluded sequences.
func WithForceStaticBitmap(on bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sequence.ForceStaticBitmap = on
	}
}

// WithoutHistory disables the history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.HistoryDB = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScratchDir)
}
