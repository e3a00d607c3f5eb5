package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

const (
	keyNotificationsEnabled = "notifications.enabled"
	keyNotificationsSound   = "notifications.sound"
	keyNotificationsCmd     = "notifications.cmd"
	keyTickInterval         = "timer.tick_interval"
	keyRunnerEnabled        = "runner.enabled"
	keyRunnerSocket         = "runner.socket"
	keyRunnerDialTimeout    = "runner.dial_timeout"
	keyTwentyFourHour       = "display.twenty_four_hour"
	keyDarkTheme            = "display.dark_theme"
	keyLogLevel             = "log.level"
	keyLogMaxSize           = "log.max_size_mb"
	keyLogMaxBackups        = "log.max_backups"
	keyLogMaxAge            = "log.max_age_days"
)

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath, writing the defaults there first if it does not exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return load(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return load(v, c)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyNotificationsEnabled, true)
	v.SetDefault(keyNotificationsSound, "chime")
	v.SetDefault(keyNotificationsCmd, "")
	v.SetDefault(keyTickInterval, "1s")
	v.SetDefault(keyRunnerEnabled, true)
	v.SetDefault(keyRunnerSocket, "")
	v.SetDefault(keyRunnerDialTimeout, "500ms")
	v.SetDefault(keyTwentyFourHour, true)
	v.SetDefault(keyDarkTheme, true)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSize, 5)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAge, 28)
}

func load(v *viper.Viper, c *Config) error {
	if err := v.Unmarshal(c); err != nil {
		return errDecodeConfig.Wrap(err)
	}

	return nil
}
