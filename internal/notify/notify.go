// Package notify surfaces timer completions: a desktop notification, a sound
// and an optional user command. Every call is best-effort and failures are
// only logged.
package notify

import (
	"context"
	"log/slog"
	"os/exec"

	"github.com/gen2brain/beeep"
	"github.com/kballard/go-shellquote"

	"github.com/ayoisaiah/notch/internal/apperr"
)

// SoundOff disables the completion sound.
const SoundOff = "off"

// SoundChime is the built-in completion sound.
const SoundChime = "chime"

var errParseCmd = &apperr.Error{
	Kind:    apperr.KindValidation,
	Message: "unable to parse completion command %q",
}

// Alerter notifies the user when a timer completes.
type Alerter struct {
	// Sound is SoundChime, SoundOff, or the path to an audio file.
	Sound string
	// Cmd is run after every completion notification.
	Cmd      string
	IconPath string
	Enabled  bool

	// notifyFunc and play are replaced in tests.
	notifyFunc func(title, body, icon string) error
	play       func(sound string) error
}

// New returns an alerter using the desktop notification service and the
// system audio device.
func New(enabled bool, sound, cmd string) *Alerter {
	return &Alerter{
		Enabled: enabled,
		Sound:   sound,
		Cmd:     cmd,
	}
}

// Notify shows a desktop notification. Notifications that cannot be
// delivered are dropped.
func (a *Alerter) Notify(title, body string) {
	if !a.Enabled {
		return
	}

	send := a.notifyFunc
	if send == nil {
		send = func(title, body, icon string) error {
			return beeep.Notify(title, body, icon)
		}
	}

	if err := send(title, body, a.IconPath); err != nil {
		slog.Warn("unable to display notification", "error", err)
	}

	if err := a.RunCmd(context.Background()); err != nil {
		slog.Warn("completion command failed", "cmd", a.Cmd, "error", err)
	}
}

// PlayCompletionSound plays the configured sound and blocks until it ends.
// Playback failures are swallowed.
func (a *Alerter) PlayCompletionSound() {
	if !a.Enabled || a.Sound == "" || a.Sound == SoundOff {
		return
	}

	play := a.play
	if play == nil {
		play = playSound
	}

	if err := play(a.Sound); err != nil {
		slog.Debug("unable to play completion sound", "sound", a.Sound, "error", err)
	}
}

// RunCmd executes the configured completion command.
func (a *Alerter) RunCmd(ctx context.Context) error {
	if a.Cmd == "" {
		return nil
	}

	cmdSlice, err := shellquote.Split(a.Cmd)
	if err != nil {
		return errParseCmd.Fmt(a.Cmd).Wrap(err)
	}

	if len(cmdSlice) == 0 {
		return nil
	}

	name := cmdSlice[0]
	args := cmdSlice[1:]

	cmd := exec.CommandContext(ctx, name, args...)

	return cmd.Run()
}
