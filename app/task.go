package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/notch/internal/config"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/planner"
	"github.com/ayoisaiah/notch/internal/timeutil"
	"github.com/ayoisaiah/notch/report"
)

var weekdays = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tues": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thur": 4, "thurs": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

// parseRepeat turns "mon,wed,fri" into a weekly recurrence.
func parseRepeat(s string) (*models.Recurrence, error) {
	r := &models.Recurrence{Type: models.RecurrenceWeekly}

	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		day, ok := weekdays[name]
		if !ok {
			return nil, errUnknownWeekday.Fmt(name)
		}

		r.Days = append(r.Days, day)
	}

	return r, nil
}

func taskID(ctx *cli.Context) (string, error) {
	id := strings.TrimSpace(ctx.Args().First())
	if id == "" {
		return "", errMissingID.Fmt(ctx.Command.Name)
	}

	return id, nil
}

// addAction handles the add command. Missing fields are collected with an
// interactive form.
func addAction(ctx *cli.Context) error {
	e, err := openCalendar(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	date, err := timeutil.ParseDate(ctx.String("date"), time.Now())
	if err != nil {
		return err
	}

	in := taskInput{
		Title: ctx.String("title"),
		Start: ctx.String("start"),
		End:   ctx.String("end"),
		Notes: ctx.String("notes"),
	}

	category := ctx.String("category")

	if in.incomplete() {
		categories, err := e.db.ListCategories(ctx.Context)
		if err != nil {
			return err
		}

		if err := promptTask(&in, categories, &category); err != nil {
			return err
		}
	}

	task := &models.Task{
		Title:     strings.TrimSpace(in.Title),
		Date:      date,
		StartTime: in.Start,
		EndTime:   in.End,
		Category:  category,
		Notes:     in.Notes,
	}

	if repeat := ctx.String("repeat"); repeat != "" {
		task.Recurrence, err = parseRepeat(repeat)
		if err != nil {
			return err
		}
	}

	created, err := e.planner.Create(ctx.Context, task)
	if err != nil {
		return err
	}

	report.TaskAdded(&created)

	return nil
}

// editAction handles the edit command. Only the flags that were set change.
func editAction(ctx *cli.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}

	var (
		date       time.Time
		recurrence *models.Recurrence
	)

	if ctx.IsSet("date") {
		date, err = timeutil.ParseDate(ctx.String("date"), time.Now())
		if err != nil {
			return err
		}
	}

	if ctx.IsSet("repeat") {
		recurrence, err = parseRepeat(ctx.String("repeat"))
		if err != nil {
			return err
		}
	}

	e, err := openCalendar(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	task, err := e.planner.Update(ctx.Context, id, func(t *models.Task) {
		if ctx.IsSet("title") {
			t.Title = ctx.String("title")
		}

		if ctx.IsSet("date") {
			t.Date = date
		}

		if ctx.IsSet("start") {
			t.StartTime = ctx.String("start")
		}

		if ctx.IsSet("end") {
			t.EndTime = ctx.String("end")
		}

		if ctx.IsSet("category") {
			t.Category = ctx.String("category")
		}

		if ctx.IsSet("notes") {
			t.Notes = ctx.String("notes")
		}

		if recurrence != nil {
			t.Recurrence = recurrence
		}

		if ctx.Bool("no-repeat") {
			t.Recurrence = nil
		}
	})
	if err != nil {
		return err
	}

	report.TaskUpdated(&task)

	return nil
}

// deleteAction handles the delete command. A timer started for the task
// is kept and can still be removed with 'timer delete'.
func deleteAction(ctx *cli.Context) error {
	id, err := taskID(ctx)
	if err != nil {
		return err
	}

	e, err := openCalendar(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	task, err := e.planner.Resolve(ctx.Context, id)
	if err != nil {
		return err
	}

	printTasksTable(config.Stdout, []models.Task{task}, time.Now(), e.cfg.Display.TwentyFourHour)

	ok, err := confirm("The above task will be deleted permanently. Proceed?", ctx.Bool("yes"))
	if err != nil || !ok {
		return err
	}

	if err := e.planner.Delete(ctx.Context, id); err != nil {
		return err
	}

	report.TaskDeleted(id)

	return nil
}

type markKind int

const (
	markDone markKind = iota
	markBegin
	markMiss
	markCancel
)

func (k markKind) apply(ctx *cli.Context, p *planner.Planner, id string) (models.Task, error) {
	switch k {
	case markBegin:
		return p.MarkStarted(ctx.Context, id)
	case markMiss:
		return p.MarkMissed(ctx.Context, id)
	case markCancel:
		return p.MarkCancelled(ctx.Context, id)
	default:
		return p.MarkCompleted(ctx.Context, id)
	}
}

// markAction returns the action for a status command.
func markAction(k markKind) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		id, err := taskID(ctx)
		if err != nil {
			return err
		}

		e, err := openCalendar(ctx)
		if err != nil {
			return err
		}

		defer e.Close()

		task, err := k.apply(ctx, e.planner, id)
		if err != nil {
			return err
		}

		report.StatusChanged(&task)

		return nil
	}
}

func printJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	pterm.Println(string(b))

	return nil
}

// listAction handles the list command and prints a table of the tasks on a
// day or a range of days.
func listAction(ctx *cli.Context) error {
	now := time.Now()

	e, err := openCalendar(ctx)
	if err != nil {
		return err
	}

	defer e.Close()

	tasks, err := queryTasks(ctx, e.planner, now)
	if err != nil {
		return err
	}

	if category := ctx.String("category"); category != "" {
		tasks = planner.ByCategory(tasks, category)
	}

	if ctx.Bool("json") {
		return printJSON(tasks)
	}

	if len(tasks) == 0 {
		pterm.Info.Println(noTasksMsg)
		return nil
	}

	printTasksTable(config.Stdout, tasks, now, e.cfg.Display.TwentyFourHour)

	return nil
}

func queryTasks(ctx *cli.Context, p *planner.Planner, now time.Time) ([]models.Task, error) {
	if ctx.Bool("recurring") {
		return p.Recurring(ctx.Context)
	}

	from, to := ctx.String("from"), ctx.String("to")

	if from == "" && to == "" {
		date, err := timeutil.ParseDate(ctx.String("date"), now)
		if err != nil {
			return nil, err
		}

		return p.TasksForDate(ctx.Context, date)
	}

	if from == "" || to == "" {
		return nil, errIncompleteRange
	}

	start, err := timeutil.ParseDate(from, now)
	if err != nil {
		return nil, err
	}

	end, err := timeutil.ParseDate(to, now)
	if err != nil {
		return nil, err
	}

	if end.Before(start) {
		return nil, errRangeOrder.Fmt(to, from)
	}

	return p.TasksForRange(ctx.Context, start, end)
}
