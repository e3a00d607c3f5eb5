package runner_test

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/internal/testutil"
	"github.com/ayoisaiah/notch/runner"
	"github.com/ayoisaiah/notch/store"
	"github.com/ayoisaiah/notch/timer"
)

var t0 = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

const wait = 2 * time.Second

type host struct {
	runner   *runner.Runner
	clock    *testutil.Clock
	notifier *testutil.Notifier
	ctx      context.Context
}

func newHost(t *testing.T) *host {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &host{
		clock:    testutil.NewClock(t0),
		notifier: &testutil.Notifier{},
		ctx:      ctx,
	}

	h.runner = runner.New(h.notifier, runner.WithClock(h.clock.Now))

	return h
}

// connect attaches a new client to the runner over an in-memory pipe.
func (h *host) connect(t *testing.T) *runner.Client {
	t.Helper()

	server, client := net.Pipe()

	go h.runner.ServeConn(h.ctx, server)

	cl := runner.NewClient(client)
	t.Cleanup(func() {
		_ = cl.Close()
	})

	return cl
}

func standup(duration int) runner.StartTimerRequest {
	return runner.StartTimerRequest{
		TimerID:   "3",
		Name:      "Standup",
		TaskID:    "standup-2024-01-10",
		Duration:  duration,
		StartedAt: t0.UnixMilli(),
	}
}

func collect(cl *runner.Client, t runner.MessageType) <-chan runner.Envelope {
	ch := make(chan runner.Envelope, 16)

	cl.On(t, func(env runner.Envelope) {
		ch <- env
	})

	return ch
}

func receive(t *testing.T, ch <-chan runner.Envelope) runner.Envelope {
	t.Helper()

	select {
	case env := <-ch:
		return env
	case <-time.After(wait):
		t.Fatal("timed out waiting for event")
	}

	return runner.Envelope{}
}

func TestStartStatusStop(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	require.NoError(t, cl.StartTimer(ctx, standup(900)))
	// starting twice keeps the first epoch
	require.NoError(t, cl.StartTimer(ctx, runner.StartTimerRequest{
		TimerID:  "3",
		Name:     "Standup",
		Duration: 900,
	}))

	h.clock.Advance(45 * time.Second)

	status, err := cl.TimerStatus(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusResponse{IsRunning: true, TimeLeft: 855}, status)

	all, err := cl.AllTimers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "standup-2024-01-10", all[0].TaskID)

	stopped, err := cl.StopTimer(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, runner.StopResponse{TimeLeft: 855, WasRunning: true}, stopped)

	status, err = cl.TimerStatus(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusResponse{TimeLeft: 855}, status)

	stopped, err = cl.StopTimer(ctx, "3")
	require.NoError(t, err)
	assert.False(t, stopped.WasRunning)
	assert.Empty(t, h.runner.Running())
}

func TestRequestErrors(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	_, err := cl.TimerStatus(ctx, "9")
	assert.ErrorIs(t, err, apperr.NotFound)

	err = cl.StartTimer(ctx, runner.StartTimerRequest{TimerID: "3"})
	assert.ErrorIs(t, err, apperr.Validation)

	err = cl.StartTimer(ctx, runner.StartTimerRequest{Duration: 60})
	assert.ErrorIs(t, err, apperr.Validation)
}

func TestTickCompletesOnce(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	updates := collect(cl, runner.TimerUpdate)
	completed := collect(cl, runner.TimerCompleted)

	require.NoError(t, cl.StartTimer(ctx, standup(900)))

	h.clock.Advance(100 * time.Second)
	h.runner.Tick()

	var update runner.TimersPayload
	require.NoError(t, json.Unmarshal(receive(t, updates).Payload, &update))
	require.Len(t, update.Timers, 1)
	assert.Equal(t, 800, update.Timers[0].TimeLeft)

	h.clock.Advance(800 * time.Second)
	h.runner.Tick()
	h.runner.Tick()

	var done runner.CompletedPayload
	require.NoError(t, json.Unmarshal(receive(t, completed).Payload, &done))
	assert.Equal(t, "3", done.TimerID)
	assert.Equal(t, 0, done.Timer.TimeLeft)
	assert.False(t, done.Timer.IsRunning)

	select {
	case <-completed:
		t.Fatal("timer completed twice")
	case <-time.After(50 * time.Millisecond):
	}

	require.Eventually(t, func() bool {
		return len(h.notifier.Notifications()) == 1
	}, wait, 5*time.Millisecond)

	assert.Equal(t, []string{timer.CompletionTitle}, h.notifier.Titles())
	assert.Equal(t, []string{"Standup has finished!"}, h.notifier.Notifications())
	assert.Zero(t, h.notifier.Sounds())
}

type heldNotifier struct {
	testutil.Notifier
	release chan struct{}
}

func (n *heldNotifier) Notify(title, body string) {
	<-n.release
	n.Notifier.Notify(title, body)
}

func TestTickDoesNotWaitForNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := testutil.NewClock(t0)
	n := &heldNotifier{release: make(chan struct{})}
	r := runner.New(n, runner.WithClock(clk.Now))

	server, client := net.Pipe()

	go r.ServeConn(ctx, server)

	cl := runner.NewClient(client)
	t.Cleanup(func() {
		_ = cl.Close()
	})

	completed := collect(cl, runner.TimerCompleted)

	require.NoError(t, cl.StartTimer(ctx, standup(60)))
	clk.Advance(2 * time.Minute)

	ticked := make(chan struct{})

	go func() {
		r.Tick()
		close(ticked)
	}()

	select {
	case <-ticked:
	case <-time.After(wait):
		t.Fatal("tick blocked on the notifier")
	}

	receive(t, completed)
	assert.Empty(t, n.Notifications())

	close(n.release)

	require.Eventually(t, func() bool {
		return len(n.Notifications()) == 1
	}, wait, 5*time.Millisecond)
}

func TestStopCompletesRunDownTimer(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	completed := collect(cl, runner.TimerCompleted)

	require.NoError(t, cl.StartTimer(ctx, standup(60)))
	h.clock.Advance(2 * time.Minute)

	stopped, err := cl.StopTimer(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, runner.StopResponse{WasRunning: true, Completed: true}, stopped)

	receive(t, completed)

	require.Eventually(t, func() bool {
		return len(h.notifier.Notifications()) == 1
	}, wait, 5*time.Millisecond)
}

func TestSyncTimerData(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	h.clock.Advance(5 * time.Minute)

	req := runner.SyncRequest{
		StartedAt: map[string]int64{
			"expired": t0.UnixMilli(),
			"live":    t0.UnixMilli(),
		},
		Timers: []runner.TimerState{
			{TimerID: "expired", Name: "Read", Duration: 60, TimeLeft: 60},
			{TimerID: "live", Name: "Write", Duration: 600, TimeLeft: 600},
			{TimerID: "idle", Name: "Rest", Duration: 60, TimeLeft: 30},
		},
		RunningTimerIDs: []string{"expired", "live", "ghost"},
	}

	states, err := cl.SyncTimerData(ctx, req)
	require.NoError(t, err)
	require.Len(t, states, 2)

	assert.Equal(t, "expired", states[0].TimerID)
	assert.Equal(t, 0, states[0].TimeLeft)
	assert.False(t, states[0].IsRunning)
	assert.Equal(t, "live", states[1].TimerID)
	assert.Equal(t, 300, states[1].TimeLeft)
	assert.True(t, states[1].IsRunning)

	assert.Equal(t, []string{"live"}, h.runner.Running())

	require.Eventually(t, func() bool {
		return len(h.notifier.Notifications()) == 1
	}, wait, 5*time.Millisecond)

	status, err := cl.TimerStatus(ctx, "idle")
	require.NoError(t, err)
	assert.Equal(t, runner.StatusResponse{TimeLeft: 30}, status)

	// a second sync does not notify again or restart the live timer
	h.clock.Advance(time.Minute)
	req.StartedAt["live"] = h.clock.Now().UnixMilli()

	states, err = cl.SyncTimerData(ctx, req)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, 240, states[1].TimeLeft)
	assert.Len(t, h.notifier.Notifications(), 1)
}

func TestFocusBroadcast(t *testing.T) {
	h := newHost(t)
	sender := h.connect(t)
	viewer := h.connect(t)

	focus := collect(viewer, runner.FocusTimer)

	require.NoError(t, sender.FocusTimer(context.Background(), runner.FocusPayload{
		TimerID: "3",
		TaskID:  "standup",
	}))

	var p runner.FocusPayload
	require.NoError(t, json.Unmarshal(receive(t, focus).Payload, &p))
	assert.Equal(t, runner.FocusPayload{TimerID: "3", TaskID: "standup"}, p)
}

func TestListenerOff(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)
	ctx := context.Background()

	var calls int

	id := cl.On(runner.TimerUpdate, func(runner.Envelope) {
		calls++
	})
	cl.Off(id)

	seen := collect(cl, runner.TimerUpdate)

	require.NoError(t, cl.StartTimer(ctx, standup(900)))
	h.clock.Advance(time.Second)
	h.runner.Tick()

	receive(t, seen)
	assert.Zero(t, calls)
}

func TestClientClosed(t *testing.T) {
	h := newHost(t)
	cl := h.connect(t)

	require.NoError(t, cl.Close())

	select {
	case <-cl.Done():
	case <-time.After(wait):
		t.Fatal("client not done after close")
	}

	err := cl.StartTimer(context.Background(), standup(60))
	assert.ErrorIs(t, err, apperr.Unsupported)
}

func TestDialUnavailable(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")

	_, err := runner.Dial(context.Background(), socket)
	assert.ErrorIs(t, err, runner.ErrUnavailable)
	assert.ErrorIs(t, err, apperr.Unsupported)
}

func TestWireFormat(t *testing.T) {
	start, err := runner.NewEnvelope(runner.StartTimer, 1, standup(900))
	require.NoError(t, err)

	completed, err := runner.NewEnvelope(runner.TimerCompleted, 0, runner.CompletedPayload{
		TimerID: "3",
		Timer: runner.TimerState{
			TimerID:  "3",
			Name:     "Standup",
			TaskID:   "standup-2024-01-10",
			Duration: 900,
		},
	})
	require.NoError(t, err)

	notFound := runner.Envelope{
		Type:      runner.Response,
		Error:     "timer 9 is unknown to the runner",
		Code:      "not_found",
		MessageID: 4,
	}

	cases := map[string]runner.Envelope{
		"start_timer":        start,
		"timer_completed":    completed,
		"not_found_response": notFound,
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := json.Marshal(env)
			require.NoError(t, err)

			testutil.CompareGoldenFile(t, testutil.Golden{Name: name, Data: b})
		})
	}
}

type remoteEnv struct {
	host    *host
	store   *store.Client
	running *store.RunningSet
	engine  *runner.RemoteEngine
	sounds  *testutil.Notifier
}

func newRemoteEnv(t *testing.T) *remoteEnv {
	t.Helper()

	db, err := store.NewClient(filepath.Join(t.TempDir(), "notch.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return &remoteEnv{
		host:    newHost(t),
		store:   db,
		running: db.RunningSet(),
		sounds:  &testutil.Notifier{},
	}
}

func (e *remoteEnv) open(t *testing.T) {
	t.Helper()

	engine, err := runner.NewRemoteEngine(
		context.Background(),
		e.host.connect(t),
		e.store,
		e.running,
		e.sounds,
		runner.WithRemoteClock(e.host.clock.Now),
	)
	require.NoError(t, err)

	e.engine = engine
}

func (e *remoteEnv) timer(t *testing.T, id string) models.Timer {
	t.Helper()

	tm, err := e.store.GetTimer(context.Background(), id)
	require.NoError(t, err)

	return tm
}

func (e *remoteEnv) addTimer(t *testing.T, name string, duration int) string {
	t.Helper()

	tm := models.Timer{
		Name:     name,
		TaskID:   "standup",
		Duration: duration,
		TimeLeft: duration,
		Status:   models.TimerReady,
	}

	require.NoError(t, e.store.AddTimer(context.Background(), &tm))

	return tm.ID
}

func TestRemoteEngine(t *testing.T) {
	ctx := context.Background()
	e := newRemoteEnv(t)
	id := e.addTimer(t, "Standup", 900)

	e.open(t)

	events := make(chan timer.Event, 16)
	e.engine.Subscribe(func(ev timer.Event) {
		events <- ev
	})

	require.NoError(t, e.engine.Start(ctx, id))

	entries, err := e.running.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{id: t0.UnixMilli()}, entries)
	assert.Equal(t, []string{id}, e.host.runner.Running())

	e.host.clock.Advance(10 * time.Second)
	e.host.runner.Tick()

	require.Eventually(t, func() bool {
		return e.timer(t, id).TimeLeft == 890
	}, wait, 5*time.Millisecond)

	require.NoError(t, e.engine.Stop(ctx, id))

	got := e.timer(t, id)
	assert.Equal(t, 890, got.TimeLeft)
	assert.Equal(t, models.TimerPaused, got.Status)
	assert.Empty(t, e.host.runner.Running())

	require.NoError(t, e.engine.Start(ctx, id))
	e.host.clock.Advance(15 * time.Minute)
	e.host.runner.Tick()

	require.Eventually(t, func() bool {
		return e.timer(t, id).Status == models.TimerCompleted
	}, wait, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return e.sounds.Sounds() == 1
	}, wait, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(e.host.notifier.Notifications()) == 1
	}, wait, 5*time.Millisecond)

	assert.Empty(t, e.sounds.Notifications())

	entries, err = e.running.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, e.engine.Reset(ctx, id))
	assert.Equal(t, 900, e.timer(t, id).TimeLeft)
	assert.Equal(t, models.TimerReady, e.timer(t, id).Status)
}

func TestRemoteEngineSyncOnOpen(t *testing.T) {
	ctx := context.Background()
	e := newRemoteEnv(t)

	expired := e.addTimer(t, "Read", 60)
	live := e.addTimer(t, "Write", 600)

	require.NoError(t, e.running.Set(ctx, expired, t0.UnixMilli()))
	require.NoError(t, e.running.Set(ctx, live, t0.UnixMilli()))
	require.NoError(t, e.running.Set(ctx, "ghost", t0.UnixMilli()))

	e.host.clock.Advance(2 * time.Minute)
	e.open(t)

	assert.Equal(t, models.TimerCompleted, e.timer(t, expired).Status)
	assert.Equal(t, 480, e.timer(t, live).TimeLeft)
	assert.Equal(t, models.TimerRunning, e.timer(t, live).Status)
	assert.Equal(t, []string{live}, e.host.runner.Running())
	require.Eventually(t, func() bool {
		return len(e.host.notifier.Notifications()) == 1
	}, wait, 5*time.Millisecond)

	assert.Equal(t, []string{"Read has finished!"}, e.host.notifier.Notifications())

	entries, err := e.running.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{live: t0.UnixMilli()}, entries)
}

func TestRemoteEngineFocus(t *testing.T) {
	ctx := context.Background()
	e := newRemoteEnv(t)
	id := e.addTimer(t, "Standup", 900)

	e.open(t)

	focused := make(chan timer.Event, 1)
	e.engine.Subscribe(func(ev timer.Event) {
		if ev.Type == timer.EventFocus {
			focused <- ev
		}
	})

	require.NoError(t, e.engine.Focus(ctx, id))

	select {
	case ev := <-focused:
		assert.Equal(t, id, ev.Timer.ID)
	case <-time.After(wait):
		t.Fatal("no focus event")
	}

	assert.ErrorIs(t, e.engine.Focus(ctx, "missing"), apperr.NotFound)
}

// slowStore widens the window between reading a timer and writing it back.
type slowStore struct {
	*store.Client
}

func (s slowStore) GetTimer(ctx context.Context, id string) (models.Timer, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Client.GetTimer(ctx, id)
}

// stopThenComplete is a runner that answers STOP_TIMER with a run-down
// timer and pushes TIMER_COMPLETED for it right after the response.
func stopThenComplete(t *testing.T) *runner.Client {
	t.Helper()

	server, client := net.Pipe()

	go func() {
		dec := json.NewDecoder(server)
		enc := json.NewEncoder(server)

		for {
			var req runner.Envelope
			if err := dec.Decode(&req); err != nil {
				return
			}

			var payload any

			switch req.Type {
			case runner.SyncTimerData:
				payload = runner.TimersPayload{}
			case runner.StopTimer:
				payload = runner.StopResponse{}
			}

			resp, _ := runner.NewEnvelope(runner.Response, req.MessageID, payload)
			if enc.Encode(resp) != nil {
				return
			}

			if req.Type != runner.StopTimer {
				continue
			}

			var tr runner.TimerRequest
			_ = json.Unmarshal(req.Payload, &tr)

			push, _ := runner.NewEnvelope(
				runner.TimerCompleted,
				0,
				runner.CompletedPayload{TimerID: tr.TimerID},
			)
			if enc.Encode(push) != nil {
				return
			}
		}
	}()

	cl := runner.NewClient(client)
	t.Cleanup(func() {
		_ = cl.Close()
		_ = server.Close()
	})

	return cl
}

func TestRemoteStopRacingCompletion(t *testing.T) {
	ctx := context.Background()
	e := newRemoteEnv(t)
	now := func() time.Time { return t0.Add(2 * time.Minute) }

	for range 20 {
		id := e.addTimer(t, "Read", 60)
		require.NoError(t, e.running.Set(ctx, id, t0.UnixMilli()))

		sounds := &testutil.Notifier{}

		engine, err := runner.NewRemoteEngine(
			ctx,
			stopThenComplete(t),
			slowStore{e.store},
			e.running,
			sounds,
			runner.WithRemoteClock(now),
		)
		require.NoError(t, err)

		var (
			mu        sync.Mutex
			completed int
		)

		engine.Subscribe(func(ev timer.Event) {
			if ev.Type == timer.EventCompleted {
				mu.Lock()
				completed++
				mu.Unlock()
			}
		})

		require.NoError(t, engine.Stop(ctx, id))

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()

			return completed > 0
		}, wait, time.Millisecond)

		// closing waits for the pushed completion to be handled
		require.NoError(t, engine.Close())

		mu.Lock()
		assert.Equal(t, 1, completed, "timer %s", id)
		mu.Unlock()

		require.Eventually(t, func() bool {
			return sounds.Sounds() == 1
		}, wait, time.Millisecond)

		assert.Equal(t, models.TimerCompleted, e.timer(t, id).Status)
	}
}
