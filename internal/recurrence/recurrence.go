// Package recurrence projects weekly recurring tasks onto calendar dates.
// Every function here is pure: the same task and date always produce the
// same result.
package recurrence

import (
	"slices"
	"time"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/timeutil"
)

const daysInAWeek = 7

var (
	errUnsupportedType = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "unsupported recurrence type %q: only weekly is supported",
	}

	errNoDays = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "weekly recurrence needs at least one day",
	}

	errInvalidDay = &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "invalid recurrence day %d: days run from 0 (Sunday) to 6 (Saturday)",
	}
)

// AppliesTo reports whether a recurring task has an occurrence on the
// calendar day of target. Days are compared in target's location, so a task
// anchored on a given day is eligible from that day onwards.
func AppliesTo(t *models.Task, target time.Time) bool {
	if !t.Recurring() {
		return false
	}

	day := timeutil.RoundToStart(target)
	anchor := timeutil.DayIn(t.Date, target.Location())

	if day.Before(anchor) {
		return false
	}

	return slices.Contains(t.Recurrence.Days, int(day.Weekday()))
}

// Materialize returns the occurrence of t on the calendar day of target.
// It does not check eligibility; callers pair it with AppliesTo.
func Materialize(t *models.Task, target time.Time) models.Task {
	day := timeutil.RoundToStart(target)

	occ := *t
	occ.ID = OccurrenceID(t.ID, day)
	occ.Date = day
	occ.IsRecurringInstance = true
	occ.OriginalID = t.ID

	if t.Recurrence != nil {
		occ.Recurrence = &models.Recurrence{
			Type: t.Recurrence.Type,
			Days: slices.Clone(t.Recurrence.Days),
		}
	}

	if t.CompletedAt != nil {
		v := *t.CompletedAt
		occ.CompletedAt = &v
	}

	if t.StartedAt != nil {
		v := *t.StartedAt
		occ.StartedAt = &v
	}

	return occ
}

// OccurrenceID builds the synthetic id of the occurrence of a task on day.
func OccurrenceID(taskID string, day time.Time) string {
	return taskID + "-" + timeutil.DayKey(day)
}

// SplitOccurrenceID extracts the original task id and the calendar day from
// an occurrence id. The day is interpreted in loc.
func SplitOccurrenceID(id string, loc *time.Location) (string, time.Time, bool) {
	n := len(timeutil.DateLayout)
	if len(id) < n+2 || id[len(id)-n-1] != '-' {
		return "", time.Time{}, false
	}

	day, err := time.ParseInLocation(timeutil.DateLayout, id[len(id)-n:], loc)
	if err != nil {
		return "", time.Time{}, false
	}

	return id[:len(id)-n-1], day, true
}

// ForDate returns every task visible on the calendar day of date: tasks
// whose own date matches, plus occurrences of recurring tasks. A direct date
// match wins over materializing the same task. The result is ordered by
// start time; ties keep the order of the input.
func ForDate(tasks []models.Task, date time.Time) []models.Task {
	var out []models.Task

	for i := range tasks {
		t := &tasks[i]

		if t.IsRecurringInstance {
			continue
		}

		switch {
		case timeutil.SameDay(t.Date, date):
			out = append(out, *t)
		case AppliesTo(t, date):
			out = append(out, Materialize(t, date))
		}
	}

	SortByStart(out)

	return out
}

// ForRange returns the visible tasks for every day from from to to
// inclusive, day by day.
func ForRange(tasks []models.Task, from, to time.Time) []models.Task {
	var out []models.Task

	start := timeutil.RoundToStart(from)
	end := timeutil.DayIn(to, from.Location())

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, ForDate(tasks, d)...)
	}

	return out
}

// Recurring returns the stored tasks that repeat weekly.
func Recurring(tasks []models.Task) []models.Task {
	var out []models.Task

	for i := range tasks {
		if tasks[i].Recurring() && !tasks[i].IsRecurringInstance {
			out = append(out, tasks[i])
		}
	}

	return out
}

// SortByStart stably sorts tasks by start time. Unparseable start times
// sort last.
func SortByStart(tasks []models.Task) {
	slices.SortStableFunc(tasks, func(a, b models.Task) int {
		return startMinutes(a.StartTime) - startMinutes(b.StartTime)
	})
}

// Normalize validates a recurrence and returns a copy with its days sorted
// and de-duplicated. A nil recurrence is valid.
func Normalize(r *models.Recurrence) (*models.Recurrence, error) {
	if r == nil {
		return nil, nil
	}

	if r.Type != models.RecurrenceWeekly {
		return nil, errUnsupportedType.Fmt(r.Type)
	}

	if len(r.Days) == 0 {
		return nil, errNoDays
	}

	for _, d := range r.Days {
		if d < 0 || d >= daysInAWeek {
			return nil, errInvalidDay.Fmt(d)
		}
	}

	days := slices.Clone(r.Days)
	slices.Sort(days)

	return &models.Recurrence{
		Type: models.RecurrenceWeekly,
		Days: slices.Compact(days),
	}, nil
}

// NextAnchor returns the first calendar day on or after date that the
// recurrence applies to.
func NextAnchor(date time.Time, r *models.Recurrence) time.Time {
	day := timeutil.RoundToStart(date)

	if r == nil || len(r.Days) == 0 {
		return day
	}

	for i := range daysInAWeek {
		d := day.AddDate(0, 0, i)
		if slices.Contains(r.Days, int(d.Weekday())) {
			return d
		}
	}

	return day
}

func startMinutes(clock string) int {
	mins, err := timeutil.ParseClock(clock)
	if err != nil {
		return timeutil.MinutesInADay
	}

	return mins
}
