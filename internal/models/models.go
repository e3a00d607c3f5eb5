// Package models holds the records persisted by the store and passed between
// the planner, the timer engines and the CLI.
package models

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusOngoing   Status = "ongoing"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status was set by the user and must not be
// recomputed from the clock.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RecurrenceWeekly is the only supported recurrence type.
const RecurrenceWeekly = "weekly"

// Recurrence describes a weekly repeat. Days are 0 (Sunday) to 6 (Saturday).
type Recurrence struct {
	Type string `json:"type"`
	Days []int  `json:"days"`
}

// Task is a titled, time-boxed calendar entry (a notch).
type Task struct {
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	Date          time.Time   `json:"date"`
	CompletedAt   *time.Time  `json:"completed_at"`
	StartedAt     *time.Time  `json:"started_at"`
	Recurrence    *Recurrence `json:"recurrence,omitempty"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	StartTime     string      `json:"startTime"`
	EndTime       string      `json:"endTime"`
	Category      string      `json:"category,omitempty"`
	CategoryName  string      `json:"categoryName,omitempty"`
	CategoryColor string      `json:"categoryColor,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Status        Status      `json:"status"`

	// Set only on occurrences projected from a recurring task. Occurrences
	// are never written to the store.
	OriginalID          string `json:"originalNotchId,omitempty"`
	IsRecurringInstance bool   `json:"isRecurringInstance,omitempty"`
}

// Recurring reports whether the task repeats weekly.
func (t *Task) Recurring() bool {
	return t.Recurrence != nil && t.Recurrence.Type == RecurrenceWeekly
}

// TimerStatus is informational. Whether a timer is counting down is decided
// by the running-set.
type TimerStatus string

const (
	TimerReady     TimerStatus = "ready"
	TimerRunning   TimerStatus = "running"
	TimerPaused    TimerStatus = "paused"
	TimerCompleted TimerStatus = "completed"
)

// DefaultTimerCategory labels timers whose task has no category.
const DefaultTimerCategory = "Notch Timer"

// Timer is a countdown optionally linked to a task. Duration and TimeLeft
// are in seconds.
type Timer struct {
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Color     string      `json:"color,omitempty"`
	TaskID    string      `json:"notchId,omitempty"`
	Status    TimerStatus `json:"status"`
	Duration  int         `json:"duration"`
	TimeLeft  int         `json:"timeLeft"`
}

// Category groups tasks under a name and colour.
type Category struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"isDefault"`
}

// Profile is the singleton user profile record.
type Profile struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `json:"name"`
	Onboarded bool      `json:"onboarded"`
}
