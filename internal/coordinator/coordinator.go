// Package coordinator is the single entry point for timers. It picks the
// background runner or the foreground engine once, at construction, and
// links timers to the tasks they were started for.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/maruel/natural"

	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/timeutil"
	"github.com/ayoisaiah/notch/runner"
	"github.com/ayoisaiah/notch/timer"
)

// Engine is implemented by timer.Engine and runner.RemoteEngine.
type Engine interface {
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	Reset(ctx context.Context, id string) error
	Subscribe(fn func(timer.Event)) (cancel func())
	Focus(ctx context.Context, id string) error
	Run(ctx context.Context) error
	Close() error
}

// Store is the timers collection.
type Store interface {
	timer.Store
	ListTimers(ctx context.Context) ([]models.Timer, error)
	AddTimer(ctx context.Context, t *models.Timer) error
	DeleteTimer(ctx context.Context, id string) error
}

// Mode names the engine in use.
type Mode string

const (
	ModeForeground Mode = "foreground"
	ModeBackground Mode = "background"
)

const defaultDialTimeout = 500 * time.Millisecond

// Options control engine selection.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// Dial connects to the runner. It defaults to runner.Dial on Socket.
	Dial func(ctx context.Context) (*runner.Client, error)
	// Socket is where the runner listens. No runner is dialed when it is
	// empty and Dial is nil.
	Socket      string
	DialTimeout time.Duration
	Interval    time.Duration
	// Foreground skips dialing the runner.
	Foreground bool
}

// Coordinator starts, stops and reports on timers.
type Coordinator struct {
	store   Store
	running timer.RunningSet
	engine  Engine
	Now     func() time.Time
	mode    Mode
	mu      sync.Mutex
}

// New looks for a background runner and falls back to a foreground engine
// when none answers.
func New(
	ctx context.Context,
	store Store,
	running timer.RunningSet,
	notifier timer.Notifier,
	opts Options,
) (*Coordinator, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Coordinator{
		store:   store,
		running: running,
		Now:     opts.Now,
	}

	if engine := dialRunner(ctx, store, running, notifier, &opts); engine != nil {
		c.engine = engine
		c.mode = ModeBackground

		return c, nil
	}

	engine, err := timer.New(
		ctx,
		store,
		running,
		notifier,
		timer.WithClock(opts.Now),
		timer.WithInterval(opts.Interval),
	)
	if err != nil {
		return nil, err
	}

	c.engine = engine
	c.mode = ModeForeground

	return c, nil
}

// dialRunner returns a remote engine when a runner is reachable, or nil.
func dialRunner(
	ctx context.Context,
	store Store,
	running timer.RunningSet,
	notifier timer.Notifier,
	opts *Options,
) Engine {
	if opts.Foreground {
		return nil
	}

	dial := opts.Dial
	if dial == nil {
		if opts.Socket == "" {
			return nil
		}

		dial = func(ctx context.Context) (*runner.Client, error) {
			return runner.Dial(ctx, opts.Socket)
		}
	}

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := dial(dctx)
	if err != nil {
		slog.Debug("using foreground timers", "reason", err)
		return nil
	}

	engine, err := runner.NewRemoteEngine(
		ctx,
		client,
		store,
		running,
		notifier,
		runner.WithRemoteClock(opts.Now),
	)
	if err != nil {
		slog.Warn("runner sync failed, using foreground timers", "error", err)

		_ = client.Close()

		return nil
	}

	return engine
}

// Mode reports which engine was selected.
func (c *Coordinator) Mode() Mode {
	return c.mode
}

// TaskDuration is the length of a task in seconds.
func TaskDuration(task *models.Task) (int, error) {
	start, err := timeutil.ParseClock(task.StartTime)
	if err != nil {
		return 0, err
	}

	end, err := timeutil.ParseClock(task.EndTime)
	if err != nil {
		return 0, err
	}

	d := (end - start) * 60
	if d <= 0 {
		return 0, ErrInvalidDuration.Fmt(task.ID, d)
	}

	return d, nil
}

// TimerForTask returns the timer linked to a task.
func (c *Coordinator) TimerForTask(ctx context.Context, taskID string) (models.Timer, error) {
	timers, err := c.store.ListTimers(ctx)
	if err != nil {
		return models.Timer{}, err
	}

	for i := range timers {
		if timers[i].TaskID == taskID {
			return timers[i], nil
		}
	}

	return models.Timer{}, errNoTimer.Fmt(taskID)
}

// StartForTask starts the timer linked to a task, creating it from the
// task's time box the first time.
func (c *Coordinator) StartForTask(ctx context.Context, task *models.Task) (models.Timer, error) {
	t, err := c.findOrCreate(ctx, task)
	if err != nil {
		return models.Timer{}, err
	}

	if err := c.engine.Start(ctx, t.ID); err != nil {
		return models.Timer{}, err
	}

	return c.store.GetTimer(ctx, t.ID)
}

func (c *Coordinator) findOrCreate(ctx context.Context, task *models.Task) (models.Timer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, err := c.TimerForTask(ctx, task.ID)
	if err == nil {
		return t, nil
	}

	if !isNoTimer(err) {
		return models.Timer{}, err
	}

	duration, err := TaskDuration(task)
	if err != nil {
		return models.Timer{}, err
	}

	category := task.CategoryName
	if category == "" {
		category = models.DefaultTimerCategory
	}

	t = models.Timer{
		Name:     task.Title,
		Category: category,
		Color:    task.CategoryColor,
		TaskID:   task.ID,
		Duration: duration,
		TimeLeft: duration,
		Status:   models.TimerReady,
	}

	if err := c.store.AddTimer(ctx, &t); err != nil {
		return models.Timer{}, err
	}

	slog.Debug("created timer", "timer_id", t.ID, "task_id", task.ID, "duration", duration)

	return t, nil
}

// StopForTask pauses the timer linked to a task.
func (c *Coordinator) StopForTask(ctx context.Context, taskID string) error {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		return err
	}

	return c.engine.Stop(ctx, t.ID)
}

// ResetForTask restores the full duration of the timer linked to a task.
func (c *Coordinator) ResetForTask(ctx context.Context, taskID string) error {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		return err
	}

	return c.engine.Reset(ctx, t.ID)
}

// DeleteForTask stops and removes the timer linked to a task.
func (c *Coordinator) DeleteForTask(ctx context.Context, taskID string) error {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		return err
	}

	return c.DeleteTimer(ctx, t.ID)
}

// IsRunningForTask reports whether the task's timer is counting down. A task
// without a timer is not running.
func (c *Coordinator) IsRunningForTask(ctx context.Context, taskID string) (bool, error) {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		if isNoTimer(err) {
			return false, nil
		}

		return false, err
	}

	entries, err := c.running.All(ctx)
	if err != nil {
		return false, err
	}

	_, ok := entries[t.ID]

	return ok, nil
}

// RemainingForTask returns the seconds left on the task's timer.
func (c *Coordinator) RemainingForTask(ctx context.Context, taskID string) (int, error) {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		return 0, err
	}

	live, err := c.live(ctx, []models.Timer{t})
	if err != nil {
		return 0, err
	}

	return live[0].TimeLeft, nil
}

// DurationForTask returns the duration of the task's timer.
func (c *Coordinator) DurationForTask(ctx context.Context, taskID string) (int, error) {
	t, err := c.TimerForTask(ctx, taskID)
	if err != nil {
		return 0, err
	}

	return t.Duration, nil
}

// CreateTimer adds a timer that is not linked to any task.
func (c *Coordinator) CreateTimer(ctx context.Context, name string, duration int) (models.Timer, error) {
	if name == "" {
		return models.Timer{}, errTimerName
	}

	if duration <= 0 {
		return models.Timer{}, ErrInvalidDuration.Fmt(name, duration)
	}

	t := models.Timer{
		Name:     name,
		Category: models.DefaultTimerCategory,
		Duration: duration,
		TimeLeft: duration,
		Status:   models.TimerReady,
	}

	if err := c.store.AddTimer(ctx, &t); err != nil {
		return models.Timer{}, err
	}

	return t, nil
}

func (c *Coordinator) StartTimer(ctx context.Context, id string) error {
	return c.engine.Start(ctx, id)
}

func (c *Coordinator) StopTimer(ctx context.Context, id string) error {
	return c.engine.Stop(ctx, id)
}

func (c *Coordinator) ResetTimer(ctx context.Context, id string) error {
	return c.engine.Reset(ctx, id)
}

// DeleteTimer stops a timer and removes its record.
func (c *Coordinator) DeleteTimer(ctx context.Context, id string) error {
	if err := c.engine.Stop(ctx, id); err != nil {
		return err
	}

	return c.store.DeleteTimer(ctx, id)
}

// FocusTimer asks watching views to bring a timer to the front.
func (c *Coordinator) FocusTimer(ctx context.Context, id string) error {
	return c.engine.Focus(ctx, id)
}

// ListTimers returns every timer in natural name order with the time left
// on running timers computed as of now.
func (c *Coordinator) ListTimers(ctx context.Context) ([]models.Timer, error) {
	timers, err := c.store.ListTimers(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(timers, func(a, b models.Timer) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		default:
			return 0
		}
	})

	return c.live(ctx, timers)
}

func (c *Coordinator) live(ctx context.Context, timers []models.Timer) ([]models.Timer, error) {
	entries, err := c.running.All(ctx)
	if err != nil {
		return nil, err
	}

	now := c.Now()

	for i := range timers {
		epoch, ok := entries[timers[i].ID]
		if !ok {
			continue
		}

		timers[i].TimeLeft = timer.Remaining(timers[i].Duration, epoch, now)
		timers[i].Status = models.TimerRunning
	}

	return timers, nil
}

// Subscribe registers fn for timer events.
func (c *Coordinator) Subscribe(fn func(timer.Event)) (cancel func()) {
	return c.engine.Subscribe(fn)
}

// Run drives the selected engine until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	return c.engine.Run(ctx)
}

func (c *Coordinator) Close() error {
	return c.engine.Close()
}

// FormatDisplay renders seconds as H:MM:SS from one hour up and M:SS below.
func FormatDisplay(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}
