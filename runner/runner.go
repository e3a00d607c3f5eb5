// Package runner keeps timers ticking in a long-lived host process and talks
// to foreground processes over a JSON message protocol. It also provides the
// client side of that protocol and an engine that delegates to it.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/notch/timer"
)

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the runner's clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.Now = now
	}
}

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

type entry struct {
	state TimerState
	epoch int64
}

// Runner is the background host. It owns the timers it was asked to run,
// ticks them, notifies on completion and pushes events to every connected
// client.
type Runner struct {
	notifier timer.Notifier
	Now      func() time.Time
	timers   map[string]*entry
	known    map[string]TimerState
	peers    map[*conn]struct{}
	wake     chan struct{}
	interval time.Duration
	alerts   sync.WaitGroup
	mu       sync.Mutex
}

// New creates a runner. notifier may be nil.
func New(notifier timer.Notifier, opts ...Option) *Runner {
	r := &Runner{
		notifier: notifier,
		Now:      time.Now,
		timers:   make(map[string]*entry),
		known:    make(map[string]TimerState),
		peers:    make(map[*conn]struct{}),
		wake:     make(chan struct{}, 1),
		interval: timer.DefaultInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Serve accepts clients on ln until ctx is done, then waits for completion
// alerts still being delivered.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()
	defer r.alerts.Wait()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		go r.ServeConn(ctx, nc)
	}
}

// ServeConn handles requests from one client until it disconnects or ctx
// is done.
func (r *Runner) ServeConn(ctx context.Context, nc net.Conn) {
	c := newConn(nc)

	r.mu.Lock()
	r.peers[c] = struct{}{}
	r.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = c.close()
	})

	defer func() {
		stop()

		r.mu.Lock()
		delete(r.peers, c)
		r.mu.Unlock()

		_ = c.close()
	}()

	for {
		env, err := c.recv()
		if err != nil {
			return
		}

		resp := r.handle(env)

		if env.MessageID == 0 {
			continue
		}

		if err := c.send(resp); err != nil {
			slog.Warn("runner: unable to send response", "type", env.Type, "error", err)
			return
		}
	}
}

// handle dispatches a request and builds its response.
func (r *Runner) handle(env Envelope) Envelope {
	payload, err := r.dispatch(env)

	resp, encErr := NewEnvelope(Response, env.MessageID, payload)
	if encErr != nil {
		err = encErr
	}

	if err != nil {
		resp.Payload = nil
		resp.Error = err.Error()
		resp.Code = codeOf(err)
	}

	return resp
}

func (r *Runner) dispatch(env Envelope) (any, error) {
	switch env.Type {
	case StartTimer:
		var req StartTimerRequest
		if err := decode(env, &req); err != nil {
			return nil, err
		}

		return nil, r.start(req)
	case StopTimer:
		var req TimerRequest
		if err := decode(env, &req); err != nil {
			return nil, err
		}

		return r.stop(req.TimerID), nil
	case GetTimerStatus:
		var req TimerRequest
		if err := decode(env, &req); err != nil {
			return nil, err
		}

		return r.status(req.TimerID)
	case GetAllTimers:
		return TimersPayload{Timers: r.all()}, nil
	case SyncTimerData:
		var req SyncRequest
		if err := decode(env, &req); err != nil {
			return nil, err
		}

		return TimersPayload{Timers: r.sync(req)}, nil
	case FocusTimer:
		var req FocusPayload
		if err := decode(env, &req); err != nil {
			return nil, err
		}

		r.broadcast(FocusTimer, req)

		return nil, nil
	default:
		return nil, errUnknownMessage.Fmt(env.Type)
	}
}

func decode(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return errInvalidRequest.Fmt(env.Type, "missing payload")
	}

	if err := json.Unmarshal(env.Payload, v); err != nil {
		return errInvalidRequest.Fmt(env.Type, "malformed payload").Wrap(err)
	}

	slog.Debug(
		"runner: request",
		"type", env.Type,
		"message_id", env.MessageID,
		"payload", spew.Sdump(v),
	)

	return nil
}

func (r *Runner) start(req StartTimerRequest) error {
	if req.TimerID == "" {
		return errInvalidRequest.Fmt(StartTimer, "missing timerId")
	}

	if req.Duration <= 0 {
		return errInvalidRequest.Fmt(StartTimer, "duration must be greater than zero")
	}

	r.mu.Lock()

	if _, ok := r.timers[req.TimerID]; ok {
		r.mu.Unlock()
		return nil
	}

	now := r.Now()

	epoch := req.StartedAt
	if epoch == 0 {
		epoch = now.UnixMilli()
	}

	r.timers[req.TimerID] = &entry{
		epoch: epoch,
		state: TimerState{
			TimerID:   req.TimerID,
			Name:      req.Name,
			TaskID:    req.TaskID,
			Duration:  req.Duration,
			TimeLeft:  timer.Remaining(req.Duration, epoch, now),
			IsRunning: true,
		},
	}

	delete(r.known, req.TimerID)

	r.mu.Unlock()

	r.signal()

	return nil
}

func (r *Runner) stop(id string) StopResponse {
	r.mu.Lock()

	e, ok := r.timers[id]
	if !ok {
		r.mu.Unlock()
		return StopResponse{TimeLeft: r.knownTimeLeft(id)}
	}

	delete(r.timers, id)

	st := e.state
	st.TimeLeft = timer.Remaining(st.Duration, e.epoch, r.Now())
	st.IsRunning = false
	r.known[id] = st

	r.mu.Unlock()

	resp := StopResponse{TimeLeft: st.TimeLeft, WasRunning: true}

	if st.TimeLeft == 0 {
		resp.Completed = true
		r.announce([]TimerState{st})
	}

	return resp
}

func (r *Runner) knownTimeLeft(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.known[id].TimeLeft
}

func (r *Runner) status(id string) (StatusResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.timers[id]; ok {
		return StatusResponse{
			IsRunning: true,
			TimeLeft:  timer.Remaining(e.state.Duration, e.epoch, r.Now()),
		}, nil
	}

	if st, ok := r.known[id]; ok {
		return StatusResponse{TimeLeft: st.TimeLeft}, nil
	}

	return StatusResponse{}, errUnknownTimer.Fmt(id)
}

func (r *Runner) all() []TimerState {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Now()
	states := make([]TimerState, 0, len(r.timers))

	for _, id := range sortedIDs(r.timers) {
		e := r.timers[id]
		st := e.state
		st.TimeLeft = timer.Remaining(st.Duration, e.epoch, now)
		states = append(states, st)
	}

	return states
}

// sync merges a client's persisted view into the runner. Timers the runner
// is already ticking keep their epoch. Timers it already completed are
// reported as such without a second notification. Anything else is adopted
// from the client's epochs, completing at once if it has run down.
func (r *Runner) sync(req SyncRequest) []TimerState {
	r.mu.Lock()

	now := r.Now()

	byID := make(map[string]TimerState, len(req.Timers))
	for _, st := range req.Timers {
		byID[st.TimerID] = st
	}

	running := make(map[string]bool, len(req.RunningTimerIDs))

	var results, completed []TimerState

	for _, id := range req.RunningTimerIDs {
		running[id] = true

		if e, ok := r.timers[id]; ok {
			st := e.state
			st.TimeLeft = timer.Remaining(st.Duration, e.epoch, now)
			results = append(results, st)

			continue
		}

		if st, ok := r.known[id]; ok && st.TimeLeft == 0 {
			results = append(results, st)
			continue
		}

		st, ok := byID[id]
		if !ok || st.Duration <= 0 {
			slog.Warn("runner: sync skipped timer without data", "timer_id", id)
			continue
		}

		epoch, ok := req.StartedAt[id]
		if !ok {
			epoch = timer.StartEpoch(now, st.Duration, st.TimeLeft)
		}

		st.TimeLeft = timer.Remaining(st.Duration, epoch, now)

		if st.TimeLeft == 0 {
			st.IsRunning = false
			r.known[id] = st
			completed = append(completed, st)
			results = append(results, st)

			continue
		}

		st.IsRunning = true
		r.timers[id] = &entry{state: st, epoch: epoch}
		delete(r.known, id)
		results = append(results, st)
	}

	for id, st := range byID {
		if running[id] {
			continue
		}

		if _, ok := r.timers[id]; ok {
			continue
		}

		if _, ok := r.known[id]; !ok {
			st.IsRunning = false
			r.known[id] = st
		}
	}

	r.mu.Unlock()

	r.announce(completed)
	r.signal()

	return results
}

// Tick performs one pass over the running timers, broadcasting the time
// left of each and completing those that have run down.
func (r *Runner) Tick() {
	r.mu.Lock()

	if len(r.timers) == 0 {
		r.mu.Unlock()
		return
	}

	now := r.Now()

	var updates, completed []TimerState

	for _, id := range sortedIDs(r.timers) {
		e := r.timers[id]
		e.state.TimeLeft = timer.Remaining(e.state.Duration, e.epoch, now)

		if e.state.TimeLeft == 0 {
			st := e.state
			st.IsRunning = false

			delete(r.timers, id)
			r.known[id] = st
			completed = append(completed, st)

			continue
		}

		updates = append(updates, e.state)
	}

	r.mu.Unlock()

	if len(updates) > 0 {
		r.broadcast(TimerUpdate, TimersPayload{Timers: updates})
	}

	r.announce(completed)
}

// Run ticks while any timer is running and returns when ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if !r.hasRunning() {
			select {
			case <-ctx.Done():
				return nil
			case <-r.wake:
			}
		}

		ticker := time.NewTicker(r.interval)

		for r.hasRunning() {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return nil
			case <-ticker.C:
				r.Tick()
			}
		}

		ticker.Stop()
	}
}

// Running returns the ids of the timers being ticked.
func (r *Runner) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return sortedIDs(r.timers)
}

func (r *Runner) announce(completed []TimerState) {
	for _, st := range completed {
		slog.Info("runner: timer completed", "timer_id", st.TimerID, "task_id", st.TaskID)

		r.alert(st.Name)
		r.broadcast(TimerCompleted, CompletedPayload{TimerID: st.TimerID, Timer: st})
	}
}

func (r *Runner) alert(name string) {
	if r.notifier == nil {
		return
	}

	r.alerts.Add(1)

	go func() {
		defer r.alerts.Done()

		r.notifier.Notify(timer.CompletionTitle, timer.CompletionMessage(name))
	}()
}

// broadcast pushes an event to every client. Clients that cannot keep up
// are disconnected.
func (r *Runner) broadcast(t MessageType, payload any) {
	env, err := NewEnvelope(t, 0, payload)
	if err != nil {
		slog.Error("runner: encoding event", "type", t, "error", err)
		return
	}

	r.mu.Lock()

	peers := make([]*conn, 0, len(r.peers))
	for c := range r.peers {
		peers = append(peers, c)
	}

	r.mu.Unlock()

	for _, c := range peers {
		if err := c.send(env); err != nil {
			if !errors.Is(err, net.ErrClosed) {
				slog.Warn("runner: dropping client", "type", t, "error", err)
			}

			_ = c.close()
		}
	}
}

func (r *Runner) hasRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.timers) > 0
}

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
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
