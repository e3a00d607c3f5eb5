// Package planner manages tasks: validation on write, the calendar view of
// a day or range with recurring occurrences filled in, and the status
// actions a user takes on a task or one of its occurrences.
package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/recurrence"
	"github.com/ayoisaiah/notch/internal/status"
	"github.com/ayoisaiah/notch/internal/timeutil"
)

// Store is the tasks and categories collections.
type Store interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	AddTask(ctx context.Context, t *models.Task) error
	PutTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetCategory(ctx context.Context, id string) (models.Category, error)
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock replaces the planner's clock.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.Now = now
	}
}

// Planner reads and writes tasks.
type Planner struct {
	store Store
	Now   func() time.Time
}

func New(store Store, opts ...Option) *Planner {
	p := &Planner{
		store: store,
		Now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Create validates and stores a new task. Recurring tasks are anchored on
// the first day on or after their date that the recurrence applies to.
func (p *Planner) Create(ctx context.Context, t *models.Task) (models.Task, error) {
	task := *t
	task.IsRecurringInstance = false
	task.OriginalID = ""

	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	if task.Status == "" {
		task.Status = models.StatusUpcoming
	}

	if err := p.prepare(ctx, &task); err != nil {
		return models.Task{}, err
	}

	if task.Recurrence != nil {
		task.Date = recurrence.NextAnchor(task.Date, task.Recurrence)
	}

	if err := p.store.AddTask(ctx, &task); err != nil {
		return models.Task{}, err
	}

	return task, nil
}

// Update applies edit to a task and stores the result. Editing an
// occurrence edits the recurring task it was derived from, so the change
// applies to every occurrence, and the task keeps its anchor date. A
// recurring task is re-anchored on the first day on or after its date that
// the (possibly new) recurrence applies to.
func (p *Planner) Update(
	ctx context.Context,
	id string,
	edit func(*models.Task),
) (models.Task, error) {
	task, err := p.Resolve(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	redirected := task.IsRecurringInstance

	if redirected {
		task, err = p.store.GetTask(ctx, task.OriginalID)
		if err != nil {
			return models.Task{}, err
		}
	}

	anchor, taskID := task.Date, task.ID

	edit(&task)

	task.ID = taskID
	task.IsRecurringInstance = false
	task.OriginalID = ""

	if redirected {
		task.Date = anchor
	}

	if err := p.prepare(ctx, &task); err != nil {
		return models.Task{}, err
	}

	if task.Recurrence != nil {
		task.Date = recurrence.NextAnchor(task.Date, task.Recurrence)
	}

	if err := p.store.PutTask(ctx, &task); err != nil {
		return models.Task{}, err
	}

	return task, nil
}

// Delete removes a task. Occurrences cannot be deleted on their own.
func (p *Planner) Delete(ctx context.Context, id string) error {
	if _, err := p.store.GetTask(ctx, id); err != nil {
		if !errors.Is(err, apperr.NotFound) {
			return err
		}

		occ, rerr := p.Resolve(ctx, id)
		if rerr == nil && occ.IsRecurringInstance {
			return errOccurrenceDelete.Fmt(id, occ.OriginalID)
		}

		return err
	}

	return p.store.DeleteTask(ctx, id)
}

// Resolve finds a stored task by id, or materializes the occurrence an
// occurrence id refers to.
func (p *Planner) Resolve(ctx context.Context, id string) (models.Task, error) {
	task, err := p.store.GetTask(ctx, id)
	if err == nil {
		return task, nil
	}

	if !errors.Is(err, apperr.NotFound) {
		return models.Task{}, err
	}

	origID, day, ok := recurrence.SplitOccurrenceID(id, p.Now().Location())
	if !ok {
		return models.Task{}, err
	}

	orig, oerr := p.store.GetTask(ctx, origID)
	if oerr != nil || !recurrence.AppliesTo(&orig, day) {
		return models.Task{}, errTaskNotFound.Fmt(id)
	}

	return recurrence.Materialize(&orig, day), nil
}

// TasksForDate returns the tasks and occurrences on the calendar day of
// date, ordered by start time.
func (p *Planner) TasksForDate(ctx context.Context, date time.Time) ([]models.Task, error) {
	tasks, err := p.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	return recurrence.ForDate(tasks, date), nil
}

// TasksForRange returns the tasks and occurrences of every day from from to
// to inclusive.
func (p *Planner) TasksForRange(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	tasks, err := p.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	return recurrence.ForRange(tasks, from, to), nil
}

// Recurring returns the stored tasks that repeat weekly.
func (p *Planner) Recurring(ctx context.Context) ([]models.Task, error) {
	tasks, err := p.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	return recurrence.Recurring(tasks), nil
}

// ByCategory keeps the tasks in a category.
func ByCategory(tasks []models.Task, categoryID string) []models.Task {
	var out []models.Task

	for i := range tasks {
		if tasks[i].Category == categoryID {
			out = append(out, tasks[i])
		}
	}

	return out
}

// Status derives the current status of a task or occurrence.
func (p *Planner) Status(ctx context.Context, id string) (models.Status, error) {
	task, err := p.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	return status.Derive(&task, p.Now()), nil
}

// MarkCompleted records that a task was done.
func (p *Planner) MarkCompleted(ctx context.Context, id string) (models.Task, error) {
	now := p.Now()

	return p.mark(ctx, id, func(t *models.Task) bool {
		return status.MarkCompleted(t, now)
	})
}

// MarkStarted records that work on a task began.
func (p *Planner) MarkStarted(ctx context.Context, id string) (models.Task, error) {
	now := p.Now()

	return p.mark(ctx, id, func(t *models.Task) bool {
		return status.MarkStarted(t, now)
	})
}

// MarkCancelled cancels a task.
func (p *Planner) MarkCancelled(ctx context.Context, id string) (models.Task, error) {
	return p.mark(ctx, id, status.MarkCancelled)
}

// MarkMissed records that a task was missed, which cancels it.
func (p *Planner) MarkMissed(ctx context.Context, id string) (models.Task, error) {
	return p.MarkCancelled(ctx, id)
}

// mark applies a status action. Actions on an occurrence are recorded on
// the recurring task it was derived from.
func (p *Planner) mark(
	ctx context.Context,
	id string,
	action func(*models.Task) bool,
) (models.Task, error) {
	task, err := p.Resolve(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if task.IsRecurringInstance {
		task, err = p.store.GetTask(ctx, task.OriginalID)
		if err != nil {
			return models.Task{}, err
		}
	}

	if !action(&task) {
		return task, nil
	}

	if err := p.store.PutTask(ctx, &task); err != nil {
		return models.Task{}, err
	}

	return task, nil
}

// ActiveRunner returns the first task on the calendar day of date that is
// ongoing at now.
func (p *Planner) ActiveRunner(
	ctx context.Context,
	date, now time.Time,
) (models.Task, bool, error) {
	tasks, err := p.TasksForDate(ctx, date)
	if err != nil {
		return models.Task{}, false, err
	}

	for i := range tasks {
		if status.Derive(&tasks[i], now) == models.StatusOngoing {
			return tasks[i], true, nil
		}
	}

	return models.Task{}, false, nil
}

// prepare validates a task and fills in the fields derived from other
// records.
func (p *Planner) prepare(ctx context.Context, t *models.Task) error {
	t.Title = strings.TrimSpace(t.Title)

	switch {
	case t.Title == "":
		return errMissingField.Fmt("title")
	case t.Date.IsZero():
		return errMissingField.Fmt("date")
	case t.StartTime == "":
		return errMissingField.Fmt("start time")
	case t.EndTime == "":
		return errMissingField.Fmt("end time")
	}

	start, err := timeutil.ParseClock(t.StartTime)
	if err != nil {
		return err
	}

	end, err := timeutil.ParseClock(t.EndTime)
	if err != nil {
		return err
	}

	if end <= start {
		return errTimeRange.Fmt(t.EndTime, t.StartTime)
	}

	t.StartTime = timeutil.FormatClock(start)
	t.EndTime = timeutil.FormatClock(end)
	t.Date = timeutil.RoundToStart(t.Date)

	t.Recurrence, err = recurrence.Normalize(t.Recurrence)
	if err != nil {
		return err
	}

	t.CategoryName, t.CategoryColor = "", ""

	if t.Category != "" {
		cat, err := p.store.GetCategory(ctx, t.Category)
		if err != nil {
			return err
		}

		t.CategoryName = cat.Name
		t.CategoryColor = cat.Color
	}

	return nil
}
