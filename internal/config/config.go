// Package config loads notch's settings from the config file and the command
// line.
package config

import (
	"io"
	"os"
	"time"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Notifications NotificationConfig `mapstructure:"notifications"`
		Timer         TimerConfig        `mapstructure:"timer"`
		Runner        RunnerConfig       `mapstructure:"runner"`
		Display       DisplayConfig      `mapstructure:"display"`
		Log           LogConfig          `mapstructure:"log"`
	}

	// NotificationConfig controls what happens when a timer completes.
	NotificationConfig struct {
		// Sound is "chime", "off" or a path to an audio file.
		Sound   string `mapstructure:"sound"`
		Cmd     string `mapstructure:"cmd"`
		Enabled bool   `mapstructure:"enabled"`
	}

	// TimerConfig holds timer engine settings.
	TimerConfig struct {
		TickInterval time.Duration `mapstructure:"tick_interval"`
	}

	// RunnerConfig controls the background runner and how foreground
	// commands reach it.
	RunnerConfig struct {
		// Socket defaults to a path in the XDG runtime directory.
		Socket      string        `mapstructure:"socket"`
		DialTimeout time.Duration `mapstructure:"dial_timeout"`
		Enabled     bool          `mapstructure:"enabled"`
	}

	// DisplayConfig holds display-related settings.
	DisplayConfig struct {
		TwentyFourHour bool `mapstructure:"twenty_four_hour"`
		DarkTheme      bool `mapstructure:"dark_theme"`
		NoColor        bool `mapstructure:"-"`
	}

	// LogConfig controls the log file and its rotation.
	LogConfig struct {
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.0"

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a Config, applies options in order and validates the result.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}
