package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"slices"
	"sync"
)

// Handler receives a pushed event. Handlers run on the client's read
// goroutine, so they must not wait on a request to the runner.
type Handler func(Envelope)

// ListenerID identifies a registered handler.
type ListenerID int

type reply struct {
	env Envelope
	err error
}

// Client speaks the runner protocol from a foreground process. Requests are
// correlated with their responses by messageId, so several may be in flight.
type Client struct {
	c        *conn
	pending  map[int64]chan reply
	handlers map[MessageType]map[ListenerID]Handler
	done     chan struct{}
	nextID   int64
	nextLID  ListenerID
	closed   bool
	mu       sync.Mutex
}

// Dial connects to the runner listening on socket.
func Dial(ctx context.Context, socket string) (*Client, error) {
	var d net.Dialer

	nc, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, ErrUnavailable.Fmt(socket).Wrap(err)
	}

	return NewClient(nc), nil
}

// NewClient wraps an established connection and starts reading from it.
func NewClient(nc net.Conn) *Client {
	cl := &Client{
		c:        newConn(nc),
		pending:  make(map[int64]chan reply),
		handlers: make(map[MessageType]map[ListenerID]Handler),
		done:     make(chan struct{}),
	}

	go cl.readLoop()

	return cl
}

func (cl *Client) readLoop() {
	defer cl.shutdown()

	for {
		env, err := cl.c.recv()
		if err != nil {
			return
		}

		if env.Type == Response {
			cl.resolve(env)
			continue
		}

		cl.dispatch(env)
	}
}

func (cl *Client) resolve(env Envelope) {
	cl.mu.Lock()
	ch, ok := cl.pending[env.MessageID]
	delete(cl.pending, env.MessageID)
	cl.mu.Unlock()

	if !ok {
		slog.Debug("runner: response for unknown message", "message_id", env.MessageID)
		return
	}

	ch <- reply{env: env}
}

func (cl *Client) dispatch(env Envelope) {
	cl.mu.Lock()

	ids := sortedListenerIDs(cl.handlers[env.Type])
	fns := make([]Handler, 0, len(ids))

	for _, id := range ids {
		fns = append(fns, cl.handlers[env.Type][id])
	}

	cl.mu.Unlock()

	for _, fn := range fns {
		fn(env)
	}
}

// shutdown fails every pending request and marks the client closed.
func (cl *Client) shutdown() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.closed {
		return
	}

	cl.closed = true

	for id, ch := range cl.pending {
		ch <- reply{err: errClientClosed}

		delete(cl.pending, id)
	}

	close(cl.done)
}

// On registers a handler for pushed events of type t.
func (cl *Client) On(t MessageType, fn Handler) ListenerID {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.nextLID++

	if cl.handlers[t] == nil {
		cl.handlers[t] = make(map[ListenerID]Handler)
	}

	cl.handlers[t][cl.nextLID] = fn

	return cl.nextLID
}

// Off removes a handler registered with On.
func (cl *Client) Off(id ListenerID) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for _, m := range cl.handlers {
		delete(m, id)
	}
}

// Done is closed once the connection to the runner is lost or closed.
func (cl *Client) Done() <-chan struct{} {
	return cl.done
}

// Close disconnects from the runner.
func (cl *Client) Close() error {
	err := cl.c.close()

	<-cl.done

	return err
}

// call sends a request and decodes the response payload into out, which may
// be nil.
func (cl *Client) call(ctx context.Context, t MessageType, payload, out any) error {
	cl.mu.Lock()

	if cl.closed {
		cl.mu.Unlock()
		return errClientClosed
	}

	cl.nextID++
	id := cl.nextID

	ch := make(chan reply, 1)
	cl.pending[id] = ch

	cl.mu.Unlock()

	env, err := NewEnvelope(t, id, payload)
	if err == nil {
		err = cl.c.send(env)
	}

	if err != nil {
		cl.forget(id)
		return err
	}

	select {
	case <-ctx.Done():
		cl.forget(id)
		return ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return r.err
		}

		if r.env.Error != "" {
			return remoteError(t, r.env)
		}

		if out == nil || len(r.env.Payload) == 0 {
			return nil
		}

		return json.Unmarshal(r.env.Payload, out)
	}
}

func (cl *Client) forget(id int64) {
	cl.mu.Lock()
	delete(cl.pending, id)
	cl.mu.Unlock()
}

// StartTimer asks the runner to start ticking a timer.
func (cl *Client) StartTimer(ctx context.Context, req StartTimerRequest) error {
	return cl.call(ctx, StartTimer, req, nil)
}

// StopTimer asks the runner to stop a timer and reports its time left.
func (cl *Client) StopTimer(ctx context.Context, id string) (StopResponse, error) {
	var resp StopResponse

	err := cl.call(ctx, StopTimer, TimerRequest{TimerID: id}, &resp)

	return resp, err
}

// TimerStatus reports whether the runner is ticking a timer.
func (cl *Client) TimerStatus(ctx context.Context, id string) (StatusResponse, error) {
	var resp StatusResponse

	err := cl.call(ctx, GetTimerStatus, TimerRequest{TimerID: id}, &resp)

	return resp, err
}

// AllTimers lists the timers the runner is ticking.
func (cl *Client) AllTimers(ctx context.Context) ([]TimerState, error) {
	var resp TimersPayload

	err := cl.call(ctx, GetAllTimers, nil, &resp)

	return resp.Timers, err
}

// SyncTimerData reconciles the runner with the persisted running-set.
func (cl *Client) SyncTimerData(ctx context.Context, req SyncRequest) ([]TimerState, error) {
	var resp TimersPayload

	err := cl.call(ctx, SyncTimerData, req, &resp)

	return resp.Timers, err
}

// FocusTimer asks every connected view to bring a timer to the front.
func (cl *Client) FocusTimer(ctx context.Context, p FocusPayload) error {
	return cl.call(ctx, FocusTimer, p, nil)
}

func sortedListenerIDs(m map[ListenerID]Handler) []ListenerID {
	ids := make([]ListenerID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
