package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	SoundChime = "chime"
	SoundOff   = "off"
)

var (
	minTickInterval = 100 * time.Millisecond
	maxTickInterval = 10 * time.Second

	minDialTimeout = 10 * time.Millisecond
	maxDialTimeout = 10 * time.Second

	logLevels = []string{"debug", "info", "warn", "error"}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateTimer(); err != nil {
		return err
	}

	if err := c.validateSound(c.Notifications.Sound); err != nil {
		return err
	}

	return c.validateLog()
}

func (c *Config) validateTimer() error {
	if c.Timer.TickInterval < minTickInterval ||
		c.Timer.TickInterval > maxTickInterval {
		return errInvalidInterval.Fmt(
			minTickInterval,
			maxTickInterval,
			c.Timer.TickInterval,
		)
	}

	if c.Runner.DialTimeout < minDialTimeout ||
		c.Runner.DialTimeout > maxDialTimeout {
		return errInvalidDialTimeout.Fmt(
			minDialTimeout,
			maxDialTimeout,
			c.Runner.DialTimeout,
		)
	}

	return nil
}

// validateSound accepts the built-in names or an existing audio file.
func (c *Config) validateSound(sound string) error {
	if sound == "" || sound == SoundChime || sound == SoundOff {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(sound))
	validExts := []string{".mp3", ".ogg", ".flac", ".wav"}

	if !slices.Contains(validExts, ext) {
		return errInvalidSoundFormat.Fmt(sound)
	}

	_, err := os.Stat(sound)
	if errors.Is(err, os.ErrNotExist) {
		return errUnknownSound.Fmt(sound)
	}

	return nil
}

func (c *Config) validateLog() error {
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return errInvalidLogLevel.Fmt(c.Log.Level)
	}

	switch {
	case c.Log.MaxSizeMB < 0:
		return errInvalidLogRotation.Fmt("max size")
	case c.Log.MaxBackups < 0:
		return errInvalidLogRotation.Fmt("max backups")
	case c.Log.MaxAgeDays < 0:
		return errInvalidLogRotation.Fmt("max age")
	}

	return nil
}
