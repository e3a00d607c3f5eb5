package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ayoisaiah/notch/internal/coordinator"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/status"
	"github.com/ayoisaiah/notch/internal/timeutil"
	"github.com/ayoisaiah/notch/internal/ui"
)

const (
	noTasksMsg  = "No tasks found for the specified day"
	noTimersMsg = "No timers yet. Start one with 'notch timer start <task-id>' or 'notch timer new'"
)

// displayClock renders an "HH:MM" clock in the configured format.
func displayClock(clock string, twentyFourHour bool) string {
	if twentyFourHour {
		return clock
	}

	t, err := timeutil.At(time.Time{}, clock)
	if err != nil {
		return clock
	}

	return t.Format("03:04 PM")
}

func repeatDays(r *models.Recurrence) string {
	if r == nil {
		return ""
	}

	names := make([]string, len(r.Days))
	for i, d := range r.Days {
		names[i] = time.Weekday(d).String()[:3]
	}

	return strings.Join(names, " · ")
}

// printTasksTable prints a task table to the command-line. Statuses are
// derived as of now.
func printTasksTable(w io.Writer, tasks []models.Task, now time.Time, twentyFourHour bool) {
	tableBody := make([][]string, len(tasks))

	for i := range tasks {
		t := &tasks[i]

		category := t.CategoryName
		if t.CategoryColor != "" {
			category = ui.Swatch(t.CategoryColor) + " " + category
		}

		row := []string{
			fmt.Sprintf("%d", i+1),
			ui.Gray(t.ID),
			t.Date.Format("Mon Jan 02, 2006"),
			displayClock(t.StartTime, twentyFourHour) + " - " + displayClock(t.EndTime, twentyFourHour),
			ui.Highlight(t.Title),
			category,
			repeatDays(t.Recurrence),
			ui.Status(status.Derive(t, now)),
		}

		tableBody[i] = row
	}

	tableBody = append([][]string{
		{"#", "ID", "DATE", "TIME", "TITLE", "CATEGORY", "REPEATS", "STATUS"},
	}, tableBody...)

	ui.PrintTable(tableBody, w)
}

// printTimersTable prints a timer table to the command-line.
func printTimersTable(w io.Writer, timers []models.Timer) {
	tableBody := make([][]string, len(timers))

	for i := range timers {
		t := &timers[i]

		category := t.Category
		if t.Color != "" {
			category = ui.Swatch(t.Color) + " " + category
		}

		row := []string{
			t.ID,
			ui.Highlight(t.Name),
			category,
			coordinator.FormatDisplay(t.Duration),
			coordinator.FormatDisplay(t.TimeLeft),
			ui.TimerStatus(t.Status),
			t.TaskID,
		}

		tableBody[i] = row
	}

	tableBody = append([][]string{
		{"ID", "NAME", "CATEGORY", "DURATION", "LEFT", "STATUS", "TASK"},
	}, tableBody...)

	ui.PrintTable(tableBody, w)
}
