package runner

import (
	"encoding/json"
	"net"
	"sync"
	"time"
)

// MessageType names a request, a response or a pushed event.
type MessageType string

// Requests sent by clients. Each carries a messageId that the runner echoes
// in its response.
const (
	StartTimer     MessageType = "START_TIMER"
	StopTimer      MessageType = "STOP_TIMER"
	GetTimerStatus MessageType = "GET_TIMER_STATUS"
	GetAllTimers   MessageType = "GET_ALL_TIMERS"
	SyncTimerData  MessageType = "SYNC_TIMER_DATA"
)

// Events pushed by the runner without a messageId. FocusTimer is also
// accepted as a request, which the runner rebroadcasts.
const (
	TimerUpdate    MessageType = "TIMER_UPDATE"
	TimerCompleted MessageType = "TIMER_COMPLETED"
	FocusTimer     MessageType = "FOCUS_TIMER"
)

// Response answers a request with the same messageId.
const Response MessageType = "RESPONSE"

// Envelope is the unit of the wire protocol, encoded as one JSON value per
// message.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Code      string          `json:"code,omitempty"`
	MessageID int64           `json:"messageId,omitempty"`
}

// TimerState is the runner's view of a timer.
type TimerState struct {
	TimerID   string `json:"timerId"`
	Name      string `json:"name,omitempty"`
	TaskID    string `json:"notchId,omitempty"`
	Duration  int    `json:"duration"`
	TimeLeft  int    `json:"timeLeft"`
	IsRunning bool   `json:"isRunning"`
}

// StartTimerRequest registers a timer with the runner. StartedAt is the
// start epoch in milliseconds; zero means now.
type StartTimerRequest struct {
	TimerID   string `json:"timerId"`
	Name      string `json:"name"`
	TaskID    string `json:"notchId,omitempty"`
	Duration  int    `json:"duration"`
	StartedAt int64  `json:"startedAt,omitempty"`
}

// TimerRequest addresses a single timer.
type TimerRequest struct {
	TimerID string `json:"timerId"`
}

// StopResponse reports the state of a timer when it was stopped.
type StopResponse struct {
	TimeLeft   int  `json:"timeLeft"`
	WasRunning bool `json:"wasRunning"`
	Completed  bool `json:"completed"`
}

// StatusResponse answers GET_TIMER_STATUS.
type StatusResponse struct {
	IsRunning bool `json:"isRunning"`
	TimeLeft  int  `json:"timeLeft"`
}

// SyncRequest reconciles the runner with the persisted running-set.
type SyncRequest struct {
	StartedAt       map[string]int64 `json:"startedAt"`
	Timers          []TimerState     `json:"timers"`
	RunningTimerIDs []string         `json:"runningTimerIds"`
}

// TimersPayload carries a list of timer states. It is the payload of
// TIMER_UPDATE and of the GET_ALL_TIMERS and SYNC_TIMER_DATA responses.
type TimersPayload struct {
	Timers []TimerState `json:"timers"`
}

// CompletedPayload is the payload of TIMER_COMPLETED.
type CompletedPayload struct {
	TimerID string     `json:"timerId"`
	Timer   TimerState `json:"timer"`
}

// FocusPayload is the payload of FOCUS_TIMER.
type FocusPayload struct {
	TimerID string `json:"timerId"`
	TaskID  string `json:"notchId,omitempty"`
}

const writeTimeout = 5 * time.Second

// NewEnvelope encodes payload into an envelope.
func NewEnvelope(t MessageType, messageID int64, payload any) (Envelope, error) {
	env := Envelope{Type: t, MessageID: messageID}

	if payload == nil {
		return env, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}

	env.Payload = b

	return env, nil
}

// conn frames envelopes over a stream connection. Writes are serialized;
// reads must come from a single goroutine.
type conn struct {
	nc  net.Conn
	enc *json.Encoder
	dec *json.Decoder
	mu  sync.Mutex
}

func newConn(nc net.Conn) *conn {
	return &conn{
		nc:  nc,
		enc: json.NewEncoder(nc),
		dec: json.NewDecoder(nc),
	}
}

func (c *conn) send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))

	return c.enc.Encode(env)
}

func (c *conn) recv() (Envelope, error) {
	var env Envelope

	err := c.dec.Decode(&env)

	return env, err
}

func (c *conn) close() error {
	return c.nc.Close()
}
