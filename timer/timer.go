// Package timer runs countdown timers in the foreground process and resumes
// them after a restart from the persisted running-set
package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
)

// CompletionTitle is the title of the notification sent when a timer
// completes.
const CompletionTitle = "Notch Complete"

// DefaultInterval is the tick cadence.
const DefaultInterval = time.Second

// CompletionMessage is the body of the completion notification.
func CompletionMessage(name string) string {
	return fmt.Sprintf("%s has finished!", name)
}

// Store is the part of the timers collection the engine reads and writes.
type Store interface {
	GetTimer(ctx context.Context, id string) (models.Timer, error)
	PutTimer(ctx context.Context, t *models.Timer) error
}

// Notifier surfaces a completion to the user. Both calls are best-effort.
type Notifier interface {
	Notify(title, body string)
	PlayCompletionSound()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.Now = now
	}
}

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// Engine ticks every running timer from a single loop. Timer state is
// recomputed from the start epoch on each tick, so suspended processes and
// late ticks never skew the time left.
type Engine struct {
	store     Store
	running   RunningSet
	notifier  Notifier
	Now       func() time.Time
	ticking   map[string]struct{}
	wake      chan struct{}
	listeners Listeners
	interval  time.Duration
	alerts    sync.WaitGroup
	mu        sync.Mutex
}

// New creates an engine and resumes every timer recorded in the running-set.
// Timers that ran down while nothing was ticking are completed immediately.
func New(
	ctx context.Context,
	store Store,
	running RunningSet,
	notifier Notifier,
	opts ...Option,
) (*Engine, error) {
	e := &Engine{
		store:    store,
		running:  running,
		notifier: notifier,
		Now:      time.Now,
		ticking:  make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		interval: DefaultInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.resume(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) resume(ctx context.Context) error {
	entries, err := e.running.All(ctx)
	if err != nil {
		return err
	}

	now := e.Now()

	var (
		updates   []Event
		completed []models.Timer
	)

	e.mu.Lock()

	for _, id := range sortedIDs(entries) {
		t, err := e.store.GetTimer(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.NotFound) {
				slog.Warn("dropping running entry for missing timer", "timer_id", id)

				_ = e.running.Delete(ctx, id)

				continue
			}

			e.mu.Unlock()

			return err
		}

		left := Remaining(t.Duration, entries[id], now)
		if left == 0 {
			e.complete(ctx, &t)
			completed = append(completed, t)

			continue
		}

		t.TimeLeft = left
		t.Status = models.TimerRunning

		if err := e.store.PutTimer(ctx, &t); err != nil {
			slog.Error("persisting resumed timer", "timer_id", id, "error", err)
		}

		e.ticking[id] = struct{}{}
		updates = append(updates, Event{Type: EventUpdate, Timer: t})
	}

	e.mu.Unlock()

	e.announce(completed)
	e.listeners.Emit(updates...)

	return nil
}

// Start begins counting down. Starting a running timer does nothing.
func (e *Engine) Start(ctx context.Context, id string) error {
	e.mu.Lock()

	if _, ok := e.ticking[id]; ok {
		e.mu.Unlock()
		return nil
	}

	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if t.TimeLeft <= 0 {
		e.mu.Unlock()
		return ErrNoTimeLeft.Fmt(id)
	}

	epoch := StartEpoch(e.Now(), t.Duration, t.TimeLeft)

	if err := e.running.Set(ctx, id, epoch); err != nil {
		e.mu.Unlock()
		return err
	}

	t.Status = models.TimerRunning

	if err := e.store.PutTimer(ctx, &t); err != nil {
		_ = e.running.Delete(ctx, id)

		e.mu.Unlock()

		return err
	}

	e.ticking[id] = struct{}{}

	e.mu.Unlock()

	e.signal()
	e.listeners.Emit(Event{Type: EventUpdate, Timer: t})

	return nil
}

// Stop pauses a timer, keeping its time left. Stopping a timer that is not
// running does nothing beyond confirming it exists. A timer found to have
// run down when stopped is completed instead.
func (e *Engine) Stop(ctx context.Context, id string) error {
	e.mu.Lock()

	_, wasTicking := e.ticking[id]
	delete(e.ticking, id)

	entries, err := e.running.All(ctx)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	epoch, hadEntry := entries[id]

	if err := e.running.Delete(ctx, id); err != nil {
		e.mu.Unlock()
		return err
	}

	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if !wasTicking && !hadEntry {
		e.mu.Unlock()
		return nil
	}

	if hadEntry {
		t.TimeLeft = Remaining(t.Duration, epoch, e.Now())
	}

	if t.TimeLeft == 0 {
		e.complete(ctx, &t)
		e.mu.Unlock()
		e.announce([]models.Timer{t})

		return nil
	}

	t.Status = models.TimerPaused

	err = e.store.PutTimer(ctx, &t)

	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.listeners.Emit(Event{Type: EventUpdate, Timer: t})

	return nil
}

// Reset stops a timer and restores its full duration.
func (e *Engine) Reset(ctx context.Context, id string) error {
	e.mu.Lock()

	delete(e.ticking, id)

	if err := e.running.Delete(ctx, id); err != nil {
		e.mu.Unlock()
		return err
	}

	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	t.TimeLeft = t.Duration
	t.Status = models.TimerReady

	err = e.store.PutTimer(ctx, &t)

	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.listeners.Emit(Event{Type: EventUpdate, Timer: t})

	return nil
}

// IsRunning reports whether the engine is ticking the timer.
func (e *Engine) IsRunning(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.ticking[id]

	return ok
}

// Running returns the ids of every timer being ticked.
func (e *Engine) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.ticking))
	for id := range e.ticking {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Subscribe registers fn for timer events.
func (e *Engine) Subscribe(fn func(Event)) (cancel func()) {
	return e.listeners.Subscribe(fn)
}

// Focus asks subscribed views to bring a timer to the front.
func (e *Engine) Focus(ctx context.Context, id string) error {
	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		return err
	}

	e.listeners.Emit(Event{Type: EventFocus, Timer: t})

	return nil
}

// Close waits for completion alerts that are still being delivered.
func (e *Engine) Close() error {
	e.alerts.Wait()

	return nil
}

// Tick performs one pass over the running timers: completed timers are
// stopped and announced, the rest have their time left persisted. Missing
// timers are logged and dropped without affecting the rest of the pass.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()

	if len(e.ticking) == 0 {
		e.mu.Unlock()
		return
	}

	entries, err := e.running.All(ctx)
	if err != nil {
		e.mu.Unlock()
		slog.Error("reading running-set", "error", err)

		return
	}

	now := e.Now()

	var (
		updates   []Event
		completed []models.Timer
	)

	for _, id := range sortedIDs(e.ticking) {
		epoch, ok := entries[id]
		if !ok {
			delete(e.ticking, id)
			continue
		}

		t, err := e.store.GetTimer(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.NotFound) {
				slog.Warn("running timer no longer exists", "timer_id", id)

				delete(e.ticking, id)
				_ = e.running.Delete(ctx, id)

				continue
			}

			slog.Error("reading running timer", "timer_id", id, "error", err)

			continue
		}

		left := Remaining(t.Duration, epoch, now)
		if left == 0 {
			e.complete(ctx, &t)
			completed = append(completed, t)

			continue
		}

		t.TimeLeft = left
		t.Status = models.TimerRunning

		if err := e.store.PutTimer(ctx, &t); err != nil {
			slog.Error("persisting timer tick", "timer_id", id, "error", err)
		}

		updates = append(updates, Event{Type: EventUpdate, Timer: t})
	}

	e.mu.Unlock()

	e.listeners.Emit(updates...)
	e.announce(completed)
}

// Run ticks at the configured interval while any timer is running and
// sleeps otherwise. It returns when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if !e.hasRunning() {
			select {
			case <-ctx.Done():
				return nil
			case <-e.wake:
			}
		}

		ticker := time.NewTicker(e.interval)

		for e.hasRunning() {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return nil
			case <-ticker.C:
				e.Tick(ctx)
			}
		}

		ticker.Stop()
	}
}

// complete must be called with e.mu held. Removing the id from both running
// sets under the lock is what makes completion fire once.
func (e *Engine) complete(ctx context.Context, t *models.Timer) {
	delete(e.ticking, t.ID)

	if err := e.running.Delete(ctx, t.ID); err != nil {
		slog.Error("removing completed timer from running-set", "timer_id", t.ID, "error", err)
	}

	t.TimeLeft = 0
	t.Status = models.TimerCompleted

	if err := e.store.PutTimer(ctx, t); err != nil {
		slog.Error("persisting completed timer", "timer_id", t.ID, "error", err)
	}
}

func (e *Engine) announce(completed []models.Timer) {
	for i := range completed {
		t := completed[i]

		slog.Info("timer completed", "timer_id", t.ID, "task_id", t.TaskID)

		e.alert(t)
		e.listeners.Emit(Event{Type: EventCompleted, Timer: t})
	}
}

// alert delivers the notification and sound off the caller's goroutine so
// a slow notifier never holds up a tick.
func (e *Engine) alert(t models.Timer) {
	if e.notifier == nil {
		return
	}

	e.alerts.Add(1)

	go func() {
		defer e.alerts.Done()

		e.notifier.Notify(CompletionTitle, CompletionMessage(t.Name))
		e.notifier.PlayCompletionSound()
	}()
}

func (e *Engine) hasRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.ticking) > 0
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
