package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	param := c.ExportParam()
	if err := param.Validate(); err != nil {
		return err
	}
	if err := c.validateSequence(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSequence() error {
	if len(c.Sequence.ScaleFps) == 0 {
		return errors.New("sequence.scale_fps must list at least one entry")
	}
	for i, item := range c.Sequence.ScaleFps {
		if item.Scale <= 0 || item.Scale > maxScale {
			return fmt.Errorf("sequence.scale_fps[%d].scale must be in (0, 1]", i)
		}
		if item.FPS <= 0 || item.FPS > maxFPS {
			return fmt.Errorf("sequence.scale_fps[%d].fps must be in (0, 120]", i)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
