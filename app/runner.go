package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/notch/internal/coordinator"
	"github.com/ayoisaiah/notch/internal/ui"
	"github.com/ayoisaiah/notch/runner"
)

// runnerAction hosts the background runner on a unix socket until it is
// interrupted.
func runnerAction(ctx *cli.Context) error {
	cfg := configFrom(ctx)
	socket := socketPath(cfg)

	dctx, cancel := context.WithTimeout(ctx.Context, cfg.Runner.DialTimeout)
	client, err := runner.Dial(dctx, socket)

	cancel()

	if err == nil {
		_ = client.Close()
		return errRunnerActive.Fmt(socket)
	}

	// nothing answered, so any socket file is left over from a crash
	if err := os.Remove(socket); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errListen.Fmt(socket).Wrap(err)
	}

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return errListen.Fmt(socket).Wrap(err)
	}

	defer os.Remove(socket)

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(
		newNotifier(cfg),
		runner.WithInterval(cfg.Timer.TickInterval),
	)

	go func() {
		_ = r.Run(sigCtx)
	}()

	slog.InfoContext(ctx.Context, "runner listening", "socket", socket)
	pterm.Info.Printfln("Runner listening on %s. Press Ctrl-C to stop", socket)

	return r.Serve(sigCtx, ln)
}

// watchAction shows live countdowns. In foreground mode this process ticks
// the timers for as long as the view is open.
func watchAction(ctx *cli.Context) error {
	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	runCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	w := ui.NewWatch(runCtx, e.coord, coordinator.FormatDisplay)
	defer w.Close()

	p := tea.NewProgram(w)

	runErr := make(chan error, 1)

	go func() {
		err := e.coord.Run(runCtx)
		if err != nil {
			slog.WarnContext(runCtx, "timer engine stopped", "error", err)
			p.Quit()
		}

		runErr <- err
	}()

	if _, err := p.Run(); err != nil {
		return err
	}

	cancel()

	return <-runErr
}
