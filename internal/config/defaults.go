package config

const (
	defaultTagMode          = TagModeStable
	defaultImageQuality     = 80
	defaultImagePixelRatio  = 2.0
	defaultScene            = SceneGeneral
	defaultLanguage         = LanguageAuto
	defaultSequenceType     = SequenceVideo
	defaultSequenceSuffix   = "_bmp"
	defaultKeyFrameInterval = 60
	defaultMaxResolution    = 720
	defaultSequenceQuality  = 80
	defaultSequenceFPS      = 24.0
	defaultHistoryDB        = "~/.local/share/animexport/history.db"
	defaultLogDir           = "~/.local/share/animexport/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	minPixelRatio = 1.0
	maxPixelRatio = 3.0
	minScale      = 0.01
	maxScale      = 1.0
	minFPS        = 0.01
	maxFPS        = 120.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Export: Export{
			ImageQuality:    defaultImageQuality,
			ImagePixelRatio: defaultImagePixelRatio,
			EnableLayerName: true,
			Scene:           string(defaultScene),
			Language:        string(defaultLanguage),
		},
		Sequence: Sequence{
			Type:             string(defaultSequenceType),
			Suffix:           defaultSequenceSuffix,
			KeyFrameInterval: defaultKeyFrameInterval,
			MaxResolution:    defaultMaxResolution,
			Quality:          defaultSequenceQuality,
			ScaleFps:         []ScaleFps{{Scale: maxScale, FPS: defaultSequenceFPS}},
		},
		Paths: Paths{
			ScratchDir: defaultScratchDir(),
			HistoryDB:  defaultHistoryDB,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
