package config_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/config"
)

// defaultConfig returns a new Config instance with default values.
func defaultConfig() *config.Config {
	return &config.Config{
		Notifications: config.NotificationConfig{
			Enabled: true,
			Sound:   "chime",
		},
		Timer: config.TimerConfig{
			TickInterval: time.Second,
		},
		Runner: config.RunnerConfig{
			Enabled:     true,
			DialTimeout: 500 * time.Millisecond,
		},
		Display: config.DisplayConfig{
			TwentyFourHour: true,
			DarkTheme:      true,
		},
		Log: config.LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func TestViperWriteConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	b, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "tick_interval: 1s")

	// the written file reads back to the same values
	again, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestViperReadConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	modified := `notifications:
  enabled: false
  sound: "off"
  cmd: "echo done"
timer:
  tick_interval: 250ms
runner:
  socket: /tmp/notch-test.sock
display:
  twenty_four_hour: false
log:
  level: debug
`

	require.NoError(t, os.WriteFile(configPath, []byte(modified), 0o600))

	want := defaultConfig()
	want.Notifications = config.NotificationConfig{
		Sound: "off",
		Cmd:   "echo done",
	}
	want.Timer.TickInterval = 250 * time.Millisecond
	want.Runner.Socket = "/tmp/notch-test.sock"
	want.Display.TwentyFourHour = false
	want.Log.Level = "debug"

	cfg, err := config.New(config.WithViperConfig(configPath))
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}

func TestValidate(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "ding.wav")
	require.NoError(t, os.WriteFile(audio, nil, 0o600))

	cases := []struct {
		Name  string
		Edit  func(*config.Config)
		Valid bool
	}{
		{
			Name:  "defaults",
			Edit:  func(*config.Config) {},
			Valid: true,
		},
		{
			Name:  "custom sound file",
			Edit:  func(c *config.Config) { c.Notifications.Sound = audio },
			Valid: true,
		},
		{
			Name: "missing sound file",
			Edit: func(c *config.Config) {
				c.Notifications.Sound = filepath.Join(filepath.Dir(audio), "none.mp3")
			},
		},
		{
			Name: "unsupported sound format",
			Edit: func(c *config.Config) { c.Notifications.Sound = "bell.aiff" },
		},
		{
			Name: "tick too fast",
			Edit: func(c *config.Config) { c.Timer.TickInterval = time.Millisecond },
		},
		{
			Name: "tick too slow",
			Edit: func(c *config.Config) { c.Timer.TickInterval = time.Minute },
		},
		{
			Name: "no dial timeout",
			Edit: func(c *config.Config) { c.Runner.DialTimeout = 0 },
		},
		{
			Name: "unknown log level",
			Edit: func(c *config.Config) { c.Log.Level = "verbose" },
		},
		{
			Name: "negative backups",
			Edit: func(c *config.Config) { c.Log.MaxBackups = -1 },
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.Edit(cfg)

			err := cfg.Validate()
			if tc.Valid {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, apperr.Validation)
		})
	}
}

func TestCLIConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")

	flags := map[string]string{
		"socket":     "/run/user/1000/notch.sock",
		"sound":      "off",
		"cmd":        "notify-send done",
		"no-notify":  "true",
		"foreground": "true",
		"no-color":   "true",
	}

	f := flag.NewFlagSet("notch", flag.PanicOnError)

	for k, v := range flags {
		if v == "true" {
			_ = f.Bool(k, false, "")
		} else {
			_ = f.String(k, "", "")
		}

		require.NoError(t, f.Set(k, v))
	}

	ctx := cli.NewContext(&cli.App{}, f, nil)

	cfg, err := config.New(
		config.WithViperConfig(configPath),
		config.WithCLIConfig(ctx),
	)
	require.NoError(t, err)

	want := defaultConfig()
	want.Notifications = config.NotificationConfig{
		Sound: "off",
		Cmd:   "notify-send done",
	}
	want.Runner.Socket = "/run/user/1000/notch.sock"
	want.Runner.Enabled = false
	want.Display.NoColor = true

	assert.Equal(t, want, cfg)
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := config.New(func(c *config.Config) error {
		*c = *defaultConfig()
		c.Timer.TickInterval = 0

		return nil
	})

	assert.ErrorIs(t, err, apperr.Validation)
}
