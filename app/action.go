package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ayoisaiah/notch/internal/config"
	"github.com/ayoisaiah/notch/internal/coordinator"
	"github.com/ayoisaiah/notch/internal/notify"
	"github.com/ayoisaiah/notch/internal/osutil"
	"github.com/ayoisaiah/notch/internal/pathutil"
	"github.com/ayoisaiah/notch/internal/planner"
	"github.com/ayoisaiah/notch/internal/ui"
	"github.com/ayoisaiah/notch/store"
)

const (
	envNoColor      = "NO_COLOR"
	envNotchNoColor = "NOTCH_NO_COLOR"

	metaConfig = "config"
	metaLog    = "log"
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

// env holds what a command needs to reach the calendar and the timers.
type env struct {
	cfg     *config.Config
	db      *store.Client
	planner *planner.Planner
	coord   *coordinator.Coordinator
}

func configFrom(ctx *cli.Context) *config.Config {
	cfg, _ := ctx.App.Metadata[metaConfig].(*config.Config)
	return cfg
}

func newNotifier(cfg *config.Config) *notify.Alerter {
	return notify.New(
		cfg.Notifications.Enabled,
		cfg.Notifications.Sound,
		cfg.Notifications.Cmd,
	)
}

func socketPath(cfg *config.Config) string {
	return firstNonEmptyString(cfg.Runner.Socket, pathutil.SocketPath())
}

// openCalendar opens the database and the task planner.
func openCalendar(ctx *cli.Context) (*env, error) {
	db, err := store.NewClient(pathutil.DBFilePath())
	if err != nil {
		return nil, err
	}

	if err := welcome(ctx.Context, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &env{
		cfg:     configFrom(ctx),
		db:      db,
		planner: planner.New(db),
	}, nil
}

// openTimers opens the calendar and a timer coordinator. The coordinator
// uses the background runner when one answers on the socket.
func openTimers(ctx *cli.Context) (*env, error) {
	e, err := openCalendar(ctx)
	if err != nil {
		return nil, err
	}

	opts := coordinator.Options{
		Socket:      socketPath(e.cfg),
		DialTimeout: e.cfg.Runner.DialTimeout,
		Interval:    e.cfg.Timer.TickInterval,
		Foreground:  !e.cfg.Runner.Enabled,
	}

	e.coord, err = coordinator.New(
		ctx.Context,
		e.db,
		e.db.RunningSet(),
		newNotifier(e.cfg),
		opts,
	)
	if err != nil {
		_ = e.db.Close()
		return nil, err
	}

	slog.DebugContext(ctx.Context, "timer coordinator ready", "mode", e.coord.Mode())

	return e, nil
}

func (e *env) Close() error {
	if e.coord != nil {
		_ = e.coord.Close()
	}

	return e.db.Close()
}

// setupLogging sends structured logs to a rotating file.
func setupLogging(cfg *config.LogConfig) io.Closer {
	w := &lumberjack.Logger{
		Filename:   pathutil.LogFilePath(),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})))

	return w
}

// editConfigAction handles the edit-config command which opens the notch
// config file in the user's default text editor.
func editConfigAction(_ *cli.Context) error {
	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		osutil.DefaultEditor(runtime.GOOS),
	)

	cmd := exec.Command(editor, pathutil.ConfigFilePath())

	cmd.Stderr = config.Stderr
	cmd.Stdin = config.Stdin
	cmd.Stdout = config.Stdout

	return cmd.Run()
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	// Override the default version printer
	oldVersionPrinter := cli.VersionPrinter
	cli.VersionPrinter = func(c *cli.Context) {
		oldVersionPrinter(c)
		fmt.Printf(
			"https://github.com/ayoisaiah/notch/releases/%s\n",
			c.App.Version,
		)
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if NOTCH_NO_COLOR is set
	if _, exists := os.LookupEnv(envNotchNoColor); exists {
		disableStyling()
	}

	if err := pathutil.Initialize(); err != nil {
		return err
	}

	cfg, err := config.New(
		config.WithViperConfig(pathutil.ConfigFilePath()),
		config.WithCLIConfig(ctx),
	)
	if err != nil {
		return err
	}

	if cfg.Display.NoColor {
		disableStyling()
	}

	ui.DarkTheme = cfg.Display.DarkTheme

	ctx.App.Metadata[metaConfig] = cfg
	ctx.App.Metadata[metaLog] = setupLogging(&cfg.Log)

	slog.DebugContext(ctx.Context, "starting notch", "args", ctx.Args().Slice())

	return nil
}

func afterAction(ctx *cli.Context) error {
	slog.DebugContext(ctx.Context, "exiting notch")

	if w, ok := ctx.App.Metadata[metaLog].(io.Closer); ok {
		return w.Close()
	}

	return nil
}
