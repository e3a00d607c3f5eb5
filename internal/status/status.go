// Package status derives a task's lifecycle state from the clock and applies
// the user's status actions.
package status

import (
	"time"

	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/timeutil"
)

// Derive computes the status of t at now. Completed and cancelled are set by
// the user and returned unchanged. Otherwise the task is upcoming before its
// start, ongoing between start and end (inclusive) and pending once the end
// has passed without a completion being recorded.
//
// The task's calendar day is taken in now's location. A task whose clock
// strings cannot be parsed keeps its stored status.
func Derive(t *models.Task, now time.Time) models.Status {
	if t.Status.Terminal() {
		return t.Status
	}

	day := timeutil.DayIn(t.Date, now.Location())

	start, err := timeutil.At(day, t.StartTime)
	if err != nil {
		return t.Status
	}

	end, err := timeutil.At(day, t.EndTime)
	if err != nil {
		return t.Status
	}

	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case !now.After(end):
		return models.StatusOngoing
	case t.CompletedAt == nil:
		return models.StatusPending
	default:
		return models.StatusCompleted
	}
}

// MarkCompleted records a completion. The completion time is set only the
// first time. The returned bool reports whether t changed.
func MarkCompleted(t *models.Task, now time.Time) bool {
	if t.Status == models.StatusCompleted && t.CompletedAt != nil {
		return false
	}

	t.Status = models.StatusCompleted

	if t.CompletedAt == nil {
		t.CompletedAt = &now
	}

	return true
}

// MarkStarted records that the user began working on t.
func MarkStarted(t *models.Task, now time.Time) bool {
	if t.Status == models.StatusOngoing && t.StartedAt != nil {
		return false
	}

	t.Status = models.StatusOngoing

	if t.StartedAt == nil {
		t.StartedAt = &now
	}

	return true
}

// MarkCancelled cancels t. Marking a task as missed is a cancellation.
func MarkCancelled(t *models.Task) bool {
	if t.Status == models.StatusCancelled {
		return false
	}

	t.Status = models.StatusCancelled

	return true
}
