package app

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/notch/internal/config"
	"github.com/ayoisaiah/notch/internal/coordinator"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/report"
)

const defaultTimerDuration = 25 * time.Minute

const foregroundHint = "No runner is listening, so completions are announced by the next " +
	"notch command. Run 'notch runner' or 'notch watch' to be notified on time"

func timerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "start",
			Usage:     "Start or resume the timer of a task",
			UsageText: "notch timer start <task-id>",
			Action:    timerStartAction,
		},
		{
			Name:      "stop",
			Usage:     "Pause the timer of a task",
			UsageText: "notch timer stop <task-id>",
			Action:    taskTimerAction((*coordinator.Coordinator).StopForTask),
		},
		{
			Name:      "reset",
			Usage:     "Restore the full duration of a task's timer",
			UsageText: "notch timer reset <task-id>",
			Action:    taskTimerAction((*coordinator.Coordinator).ResetForTask),
		},
		{
			Name:      "status",
			Usage:     "Print the time left on a task's timer",
			UsageText: "notch timer status <task-id>",
			Action:    taskTimerAction(nil),
		},
		{
			Name:      "delete",
			Usage:     "Stop and remove the timer of a task",
			UsageText: "notch timer delete <task-id>",
			Action:    timerDeleteAction,
		},
		{
			Name:   "new",
			Usage:  "Create and start a timer that is not linked to a task",
			Flags:  []cli.Flag{timerNameFlag, timerDurationFlag},
			Action: timerNewAction,
		},
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "List every timer",
			Flags:   []cli.Flag{jsonFlag},
			Action:  timerListAction,
		},
		{
			Name:      "focus",
			Usage:     "Bring a timer to the front of every watch view",
			UsageText: "notch timer focus <timer-id>",
			Action:    timerFocusAction,
		},
	}
}

func hintForeground(e *env) {
	if e.coord.Mode() == coordinator.ModeForeground {
		pterm.Info.Println(foregroundHint)
	}
}

// timerStartAction starts the timer of a task, creating it from the task's
// time box the first time.
func timerStartAction(ctx *cli.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}

	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	task, err := e.planner.Resolve(ctx.Context, id)
	if err != nil {
		return err
	}

	t, err := e.coord.StartForTask(ctx.Context, &task)
	if err != nil {
		return err
	}

	report.TimerChanged(&t, coordinator.FormatDisplay(t.TimeLeft))
	hintForeground(e)

	return nil
}

// taskTimerAction applies op to the timer of the task named on the command
// line, then reports the timer. A nil op only reports.
func taskTimerAction(
	op func(*coordinator.Coordinator, context.Context, string) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		id, err := taskID(ctx)
		if err != nil {
			return err
		}

		e, err := openTimers(ctx)
		if err != nil {
			return err
		}

		defer e.Close()

		if op != nil {
			if err := op(e.coord, ctx.Context, id); err != nil {
				return err
			}
		}

		t, err := e.coord.TimerForTask(ctx.Context, id)
		if err != nil {
			return err
		}

		left, err := e.coord.RemainingForTask(ctx.Context, id)
		if err != nil {
			return err
		}

		running, err := e.coord.IsRunningForTask(ctx.Context, id)
		if err != nil {
			return err
		}

		t.TimeLeft = left
		if running {
			t.Status = models.TimerRunning
		}

		report.TimerChanged(&t, coordinator.FormatDisplay(left))

		return nil
	}
}

func timerDeleteAction(ctx *cli.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}

	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	t, err := e.coord.TimerForTask(ctx.Context, id)
	if err != nil {
		return err
	}

	if err := e.coord.DeleteForTask(ctx.Context, id); err != nil {
		return err
	}

	report.TimerDeleted(t.ID)

	return nil
}

// timerNewAction creates an ad hoc timer and starts it.
func timerNewAction(ctx *cli.Context) error {
	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	seconds := int(ctx.Duration("duration").Seconds())

	t, err := e.coord.CreateTimer(ctx.Context, ctx.String("name"), seconds)
	if err != nil {
		return err
	}

	if err := e.coord.StartTimer(ctx.Context, t.ID); err != nil {
		return err
	}

	t, err = e.db.GetTimer(ctx.Context, t.ID)
	if err != nil {
		return err
	}

	report.TimerChanged(&t, coordinator.FormatDisplay(t.TimeLeft))
	hintForeground(e)

	return nil
}

func timerListAction(ctx *cli.Context) error {
	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	timers, err := e.coord.ListTimers(ctx.Context)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(timers)
	}

	if len(timers) == 0 {
		pterm.Info.Println(noTimersMsg)
		return nil
	}

	printTimersTable(config.Stdout, timers)

	return nil
}

func timerFocusAction(ctx *cli.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}

	e, err := openTimers(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	return e.coord.FocusTimer(ctx.Context, id)
}
