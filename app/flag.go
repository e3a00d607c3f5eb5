package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	disableNotificationFlag = &cli.BoolFlag{
		Name:  "no-notify",
		Usage: "Disable the system notification and sound that follow a completed timer",
	}

	foregroundFlag = &cli.BoolFlag{
		Name:  "foreground",
		Usage: "Tick timers in this process instead of the background runner",
	}

	socketFlag = &cli.StringFlag{
		Name:  "socket",
		Usage: "Path to the runner's unix socket",
	}

	soundFlag = &cli.StringFlag{
		Name:  "sound",
		Usage: "Sound to play when a timer completes: 'chime', 'off' or the path to an audio file",
	}

	cmdFlag = &cli.StringFlag{
		Name:  "cmd",
		Usage: "Execute an arbitrary command after each completed timer",
	}

	titleFlag = &cli.StringFlag{
		Name:    "title",
		Aliases: []string{"t"},
		Usage:   "Task title",
	}

	dateFlag = &cli.StringFlag{
		Name:    "date",
		Aliases: []string{"d"},
		Usage:   "Calendar date (e.g. '2024-01-08', 'tomorrow', 'next friday'). Defaults to today",
	}

	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "First day of a range (inclusive)",
	}

	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Last day of a range (inclusive)",
	}

	startFlag = &cli.StringFlag{
		Name:    "start",
		Aliases: []string{"s"},
		Usage:   "Start time in 24-hour HH:MM",
	}

	endFlag = &cli.StringFlag{
		Name:    "end",
		Aliases: []string{"e"},
		Usage:   "End time in 24-hour HH:MM",
	}

	categoryFlag = &cli.StringFlag{
		Name:    "category",
		Aliases: []string{"c"},
		Usage:   "Category id (work, school, fun, ...)",
	}

	notesFlag = &cli.StringFlag{
		Name:  "notes",
		Usage: "Free-form notes",
	}

	repeatFlag = &cli.StringFlag{
		Name:    "repeat",
		Aliases: []string{"r"},
		Usage:   "Repeat weekly on comma-delimited days (e.g. 'mon,wed,fri')",
	}

	noRepeatFlag = &cli.BoolFlag{
		Name:  "no-repeat",
		Usage: "Stop a task from repeating",
	}

	recurringFlag = &cli.BoolFlag{
		Name:  "recurring",
		Usage: "List only the tasks that repeat weekly",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	timerNameFlag = &cli.StringFlag{
		Name:     "name",
		Aliases:  []string{"n"},
		Usage:    "Timer name",
		Required: true,
	}

	timerDurationFlag = &cli.DurationFlag{
		Name:    "duration",
		Aliases: []string{"d"},
		Usage:   "Timer duration (e.g. '25m', '1h30m')",
		Value:   defaultTimerDuration,
	}
)
