package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/notch/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the notch app instance.
func Get() *cli.App {
	notchApp := &cli.App{
		Name: "notch",
		Authors: []*cli.Author{
			{
				Name:  "Ayooluwa Isaiah",
				Email: "ayo@freshman.tech",
			},
		},
		Usage: `
		Notch is a timeboxing calendar for the command-line. Plan your day in
		time blocks, repeat them weekly and run a countdown for each block.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Metadata:             map[string]any{},
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a task to the calendar",
				UsageText: "notch add [--title] [--date] [--start] [--end] [--repeat]",
				Flags: []cli.Flag{
					titleFlag,
					dateFlag,
					startFlag,
					endFlag,
					categoryFlag,
					notesFlag,
					repeatFlag,
				},
				Action: addAction,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the tasks for a day or a range of days",
				Flags: []cli.Flag{
					dateFlag,
					fromFlag,
					toFlag,
					categoryFlag,
					recurringFlag,
					jsonFlag,
				},
				Action: listAction,
			},
			{
				Name:      "edit",
				Usage:     "Edit a task. Editing an occurrence edits its recurring task",
				UsageText: "notch edit <id> [--title] [--start] [--end] ...",
				Flags: []cli.Flag{
					titleFlag,
					dateFlag,
					startFlag,
					endFlag,
					categoryFlag,
					notesFlag,
					repeatFlag,
					noRepeatFlag,
				},
				Action: editAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a task",
				UsageText: "notch delete <id>",
				Flags:     []cli.Flag{yesFlag},
				Action:    deleteAction,
			},
			{
				Name:      "done",
				Usage:     "Mark a task as completed",
				UsageText: "notch done <id>",
				Action:    markAction(markDone),
			},
			{
				Name:      "begin",
				Usage:     "Mark a task as started",
				UsageText: "notch begin <id>",
				Action:    markAction(markBegin),
			},
			{
				Name:      "miss",
				Usage:     "Mark a task as missed",
				UsageText: "notch miss <id>",
				Action:    markAction(markMiss),
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a task",
				UsageText: "notch cancel <id>",
				Action:    markAction(markCancel),
			},
			{
				Name:        "timer",
				Usage:       "Manage the countdown timers",
				Subcommands: timerCommands(),
			},
			{
				Name:   "watch",
				Usage:  "Show live countdowns for every timer",
				Action: watchAction,
			},
			{
				Name:   "runner",
				Usage:  "Run the background timer runner",
				Action: runnerAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			disableNotificationFlag,
			foregroundFlag,
			socketFlag,
			soundFlag,
			cmdFlag,
			noColorFlag,
		},
		Before: beforeAction,
		After:  afterAction,
	}

	return notchApp
}
