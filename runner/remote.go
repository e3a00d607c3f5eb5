package runner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/timer"
)

// RemoteOption configures a RemoteEngine.
type RemoteOption func(*RemoteEngine)

// WithRemoteClock replaces the remote engine's clock.
func WithRemoteClock(now func() time.Time) RemoteOption {
	return func(e *RemoteEngine) {
		e.Now = now
	}
}

// RemoteEngine leaves the ticking to a runner and mirrors what it reports
// into the local store and running-set. The runner sends the completion
// notification; the engine plays the sound.
type RemoteEngine struct {
	client    *Client
	store     timer.Store
	running   timer.RunningSet
	notifier  timer.Notifier
	Now       func() time.Time
	listeners timer.Listeners
	handlers  []ListenerID
	// mu guards every read-check-write of a timer record, so a completion
	// pushed by the runner and a local stop cannot both complete it.
	mu sync.Mutex
}

// NewRemoteEngine subscribes to the runner's events and synchronizes it with
// the persisted running-set once.
func NewRemoteEngine(
	ctx context.Context,
	client *Client,
	store timer.Store,
	running timer.RunningSet,
	notifier timer.Notifier,
	opts ...RemoteOption,
) (*RemoteEngine, error) {
	e := &RemoteEngine{
		client:   client,
		store:    store,
		running:  running,
		notifier: notifier,
		Now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.handlers = []ListenerID{
		client.On(TimerUpdate, e.onUpdate),
		client.On(TimerCompleted, e.onCompleted),
		client.On(FocusTimer, e.onFocus),
	}

	if err := e.sync(ctx); err != nil {
		e.off()
		return nil, err
	}

	return e, nil
}

func (e *RemoteEngine) sync(ctx context.Context) error {
	entries, err := e.running.All(ctx)
	if err != nil {
		return err
	}

	req := SyncRequest{
		StartedAt:       make(map[string]int64, len(entries)),
		RunningTimerIDs: make([]string, 0, len(entries)),
	}

	for _, id := range sortedIDs(entries) {
		t, err := e.store.GetTimer(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.NotFound) {
				slog.Warn("dropping running entry for missing timer", "timer_id", id)

				_ = e.running.Delete(ctx, id)

				continue
			}

			return err
		}

		req.StartedAt[id] = entries[id]
		req.RunningTimerIDs = append(req.RunningTimerIDs, id)
		req.Timers = append(req.Timers, stateOf(&t, true))
	}

	states, err := e.client.SyncTimerData(ctx, req)
	if err != nil {
		return err
	}

	for _, st := range states {
		if st.TimeLeft == 0 && !st.IsRunning {
			e.completeLocal(ctx, st.TimerID)
			continue
		}

		e.applyState(ctx, st)
	}

	return nil
}

// Start asks the runner to count a timer down from its time left.
func (e *RemoteEngine) Start(ctx context.Context, id string) error {
	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		return err
	}

	entries, err := e.running.All(ctx)
	if err != nil {
		return err
	}

	if _, ok := entries[id]; ok {
		return nil
	}

	if t.TimeLeft <= 0 {
		return timer.ErrNoTimeLeft.Fmt(id)
	}

	epoch := timer.StartEpoch(e.Now(), t.Duration, t.TimeLeft)

	if err := e.running.Set(ctx, id, epoch); err != nil {
		return err
	}

	err = e.client.StartTimer(ctx, StartTimerRequest{
		TimerID:   t.ID,
		Name:      t.Name,
		TaskID:    t.TaskID,
		Duration:  t.Duration,
		StartedAt: epoch,
	})
	if err != nil {
		_ = e.running.Delete(ctx, id)
		return err
	}

	e.mu.Lock()

	t, err = e.store.GetTimer(ctx, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	t.Status = models.TimerRunning

	err = e.store.PutTimer(ctx, &t)

	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.listeners.Emit(timer.Event{Type: timer.EventUpdate, Timer: t})

	return nil
}

// Stop pauses a timer on the runner and records its time left.
func (e *RemoteEngine) Stop(ctx context.Context, id string) error {
	if _, err := e.store.GetTimer(ctx, id); err != nil {
		return err
	}

	entries, err := e.running.All(ctx)
	if err != nil {
		return err
	}

	epoch, hadEntry := entries[id]

	// Leaving the running-set first makes late updates for this timer
	// ignorable.
	if err := e.running.Delete(ctx, id); err != nil {
		return err
	}

	resp, err := e.client.StopTimer(ctx, id)
	if err != nil {
		if hadEntry {
			_ = e.running.Set(ctx, id, epoch)
		}

		return err
	}

	if !hadEntry && !resp.WasRunning {
		return nil
	}

	e.mu.Lock()

	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if t.Status == models.TimerCompleted {
		e.mu.Unlock()
		return nil
	}

	left := resp.TimeLeft
	if !resp.WasRunning {
		left = timer.Remaining(t.Duration, epoch, e.Now())
	}

	if left == 0 {
		done, ok := e.completeLocked(ctx, id)
		e.mu.Unlock()

		if ok {
			e.announce(done)
		}

		return nil
	}

	t.TimeLeft = left
	t.Status = models.TimerPaused

	err = e.store.PutTimer(ctx, &t)

	e.mu.Unlock()

	if err != nil {
		return err
	}

	e.listeners.Emit(timer.Event{Type: timer.EventUpdate, Timer: t})

	return nil
}

// Reset stops a timer on the runner and restores its full duration.
func (e *RemoteEngine) Reset(ctx context.Context, id string) error {
	if _, err := e.store.GetTimer(ctx, id); err != nil {
		return err
	}

	if err := e.running.Delete(ctx, id); err != nil {
		return err
	}

	if _, err := e.client.StopTimer(ctx, id); err != nil {
		return err
	}

	e.mu.Lock()

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

	e.listeners.Emit(timer.Event{Type: timer.EventUpdate, Timer: t})

	return nil
}

// Subscribe registers fn for timer events.
func (e *RemoteEngine) Subscribe(fn func(timer.Event)) (cancel func()) {
	return e.listeners.Subscribe(fn)
}

// Focus asks every connected view, this one included, to bring a timer to
// the front.
func (e *RemoteEngine) Focus(ctx context.Context, id string) error {
	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		return err
	}

	return e.client.FocusTimer(ctx, FocusPayload{TimerID: t.ID, TaskID: t.TaskID})
}

// Run blocks until ctx is done or the runner goes away.
func (e *RemoteEngine) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-e.client.Done():
		return errClientClosed
	}
}

// Close disconnects from the runner. Timers keep running there.
func (e *RemoteEngine) Close() error {
	e.off()

	return e.client.Close()
}

func (e *RemoteEngine) off() {
	for _, id := range e.handlers {
		e.client.Off(id)
	}
}

func (e *RemoteEngine) onUpdate(env Envelope) {
	var p TimersPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		slog.Warn("runner: malformed update", "error", err)
		return
	}

	ctx := context.Background()

	e.mu.Lock()

	entries, err := e.running.All(ctx)
	if err != nil {
		e.mu.Unlock()
		slog.Error("reading running-set", "error", err)

		return
	}

	var updates []timer.Event

	for _, st := range p.Timers {
		if _, ok := entries[st.TimerID]; !ok {
			continue
		}

		if t, ok := e.applyLocked(ctx, st); ok {
			updates = append(updates, timer.Event{Type: timer.EventUpdate, Timer: t})
		}
	}

	e.mu.Unlock()

	e.listeners.Emit(updates...)
}

func (e *RemoteEngine) onCompleted(env Envelope) {
	var p CompletedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		slog.Warn("runner: malformed completion", "error", err)
		return
	}

	e.completeLocal(context.Background(), p.TimerID)
}

func (e *RemoteEngine) onFocus(env Envelope) {
	var p FocusPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		slog.Warn("runner: malformed focus request", "error", err)
		return
	}

	t, err := e.store.GetTimer(context.Background(), p.TimerID)
	if err != nil {
		slog.Warn("focus on unknown timer", "timer_id", p.TimerID, "error", err)
		return
	}

	e.listeners.Emit(timer.Event{Type: timer.EventFocus, Timer: t})
}

func (e *RemoteEngine) applyState(ctx context.Context, st TimerState) {
	e.mu.Lock()
	t, ok := e.applyLocked(ctx, st)
	e.mu.Unlock()

	if ok {
		e.listeners.Emit(timer.Event{Type: timer.EventUpdate, Timer: t})
	}
}

// applyLocked must be called with e.mu held.
func (e *RemoteEngine) applyLocked(ctx context.Context, st TimerState) (models.Timer, bool) {
	t, err := e.store.GetTimer(ctx, st.TimerID)
	if err != nil {
		slog.Warn("runner reported unknown timer", "timer_id", st.TimerID, "error", err)
		return t, false
	}

	if t.Status == models.TimerCompleted {
		return t, false
	}

	t.TimeLeft = st.TimeLeft
	t.Status = models.TimerRunning

	if err := e.store.PutTimer(ctx, &t); err != nil {
		slog.Error("persisting timer tick", "timer_id", t.ID, "error", err)
	}

	return t, true
}

// completeLocal records a completion reported by the runner. A timer that is
// already completed is left alone, so a completion is acted on once.
func (e *RemoteEngine) completeLocal(ctx context.Context, id string) {
	e.mu.Lock()
	t, ok := e.completeLocked(ctx, id)
	e.mu.Unlock()

	if ok {
		e.announce(t)
	}
}

// completeLocked must be called with e.mu held. It reports whether this
// call is the one that completed the timer.
func (e *RemoteEngine) completeLocked(ctx context.Context, id string) (models.Timer, bool) {
	if err := e.running.Delete(ctx, id); err != nil {
		slog.Error("removing completed timer from running-set", "timer_id", id, "error", err)
	}

	t, err := e.store.GetTimer(ctx, id)
	if err != nil {
		slog.Warn("runner completed unknown timer", "timer_id", id, "error", err)
		return t, false
	}

	if t.Status == models.TimerCompleted {
		return t, false
	}

	t.TimeLeft = 0
	t.Status = models.TimerCompleted

	if err := e.store.PutTimer(ctx, &t); err != nil {
		slog.Error("persisting completed timer", "timer_id", id, "error", err)
	}

	return t, true
}

func (e *RemoteEngine) announce(t models.Timer) {
	slog.Info("timer completed", "timer_id", t.ID, "task_id", t.TaskID)

	if e.notifier != nil {
		go e.notifier.PlayCompletionSound()
	}

	e.listeners.Emit(timer.Event{Type: timer.EventCompleted, Timer: t})
}

func stateOf(t *models.Timer, running bool) TimerState {
	return TimerState{
		TimerID:   t.ID,
		Name:      t.Name,
		TaskID:    t.TaskID,
		Duration:  t.Duration,
		TimeLeft:  t.TimeLeft,
		IsRunning: running,
	}
}
