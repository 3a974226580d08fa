package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Export holds the general export options.
type Export struct {
	TagMode                string  `toml:"tag_mode"`
	TagLevel               int     `toml:"tag_level"`
	ImageQuality           int     `toml:"image_quality"`
	ImagePixelRatio        float64 `toml:"image_pixel_ratio"`
	EnableLayerName        bool    `toml:"enable_layer_name"`
	EnableFontFile         bool    `toml:"enable_font_file"`
	EnableCompressionPanel bool    `toml:"enable_compression_panel"`
	Scene                  string  `toml:"scene"`
	Language               string  `toml:"language"`
	MaxDiagnostics         int     `toml:"max_diagnostics"`
}

// ScaleFps is one requested (scale, frame rate) sample for sequences.
type ScaleFps struct {
	Scale float64 `toml:"scale"`
	FPS   float64 `toml:"fps"`
}

// Sequence holds options for compositions exported as bitmap or video
// sequences.
type Sequence struct {
	Type              string     `toml:"type"`
	Suffix            string     `toml:"suffix"`
	KeyFrameInterval  int        `toml:"key_frame_interval"`
	MaxResolution     int        `toml:"max_resolution"`
	Quality           int        `toml:"quality"`
	ForceStaticBitmap bool       `toml:"force_static_bitmap"`
	ScaleFps          []ScaleFps `toml:"scale_fps"`
}

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	HistoryDB  string `toml:"history_db"`
	LogDir     string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for animexport.
//
// Configuration sections:
//   - Export: tag level and general encoding options
//   - Sequence: sequence composition sampling
//   - Paths: scratch, history database and log locations
//   - Logging: log format and level
type Config struct {
	Export   Export   `toml:"export"`
	Sequence Sequence `toml:"sequence"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/animexport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and soft fields clamped.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("animexport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scratch, log and history directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScratchDir, c.Paths.LogDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "animexport", "scratch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/animexport/scratch"
	}
	return filepath.Join(home, ".cache", "animexport", "scratch")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
