package config

import (
	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Socket     string
	Sound      string
	Cmd        string
	NoNotify   bool
	Foreground bool
	NoColor    bool
}

// WithCLIConfig returns an Option that applies global CLI flags over the
// values loaded so far.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Socket:     ctx.String("socket"),
			Sound:      ctx.String("sound"),
			Cmd:        ctx.String("cmd"),
			NoNotify:   ctx.Bool("no-notify"),
			Foreground: ctx.Bool("foreground"),
			NoColor:    ctx.Bool("no-color"),
		}

		applyCLIOptions(c, opts)

		return nil
	}
}

func applyCLIOptions(c *Config, opts CLIOptions) {
	if opts.NoNotify {
		c.Notifications.Enabled = false
	}

	if opts.Sound != "" {
		c.Notifications.Sound = opts.Sound
	}

	if opts.Cmd != "" {
		c.Notifications.Cmd = opts.Cmd
	}

	if opts.Socket != "" {
		c.Runner.Socket = opts.Socket
	}

	if opts.Foreground {
		c.Runner.Enabled = false
	}

	if opts.NoColor {
		c.Display.NoColor = true
	}
}
