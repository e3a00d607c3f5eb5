package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/timer"
)

type fakeController struct {
	listeners timer.Listeners
	timers    []models.Timer
	calls     []string
	err       error
}

func (f *fakeController) ListTimers(context.Context) ([]models.Timer, error) {
	return f.timers, nil
}

func (f *fakeController) StartTimer(_ context.Context, id string) error {
	f.calls = append(f.calls, "start "+id)
	return f.err
}

func (f *fakeController) StopTimer(_ context.Context, id string) error {
	f.calls = append(f.calls, "stop "+id)
	return f.err
}

func (f *fakeController) ResetTimer(_ context.Context, id string) error {
	f.calls = append(f.calls, "reset "+id)
	return f.err
}

func (f *fakeController) Subscribe(fn func(timer.Event)) func() {
	return f.listeners.Subscribe(fn)
}

func formatSeconds(s int) string {
	return map[int]string{0: "0:00", 300: "5:00", 900: "15:00", 600: "10:00"}[s]
}

func newTestWatch(t *testing.T, ctrl *fakeController) *Watch {
	t.Helper()

	w := NewWatch(context.Background(), ctrl, formatSeconds)
	t.Cleanup(w.Close)

	_, _ = w.Update(w.load())

	return w
}

func press(w *Watch, k string) tea.Cmd {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	if k == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(k)}
	}

	_, cmd := w.Update(msg)

	return cmd
}

func TestWatchToggle(t *testing.T) {
	ctrl := &fakeController{
		timers: []models.Timer{
			{ID: "1", Name: "Standup", Duration: 900, TimeLeft: 900, Status: models.TimerReady},
			{ID: "2", Name: "Tea", Duration: 300, TimeLeft: 300, Status: models.TimerRunning},
		},
	}

	w := newTestWatch(t, ctrl)

	cmd := press(w, " ")
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	press(w, "j")
	cmd = press(w, " ")
	require.NotNil(t, cmd)
	cmd()

	cmd = press(w, "r")
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"start 1", "stop 2", "reset 2"}, ctrl.calls)

	// the cursor stops at the last timer
	press(w, "j")

	selected, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", selected.ID)
}

func TestWatchEvents(t *testing.T) {
	ctrl := &fakeController{
		timers: []models.Timer{
			{ID: "1", Name: "Standup", Duration: 900, TimeLeft: 900},
			{ID: "2", Name: "Tea", Duration: 300, TimeLeft: 300},
		},
	}

	w := newTestWatch(t, ctrl)

	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventUpdate,
		Timer: models.Timer{ID: "1", Name: "Standup", Duration: 900, TimeLeft: 600, Status: models.TimerRunning},
	})

	_, cmd := w.Update(w.waitForEvent())
	require.NotNil(t, cmd)
	assert.Contains(t, w.View(), "10:00")

	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventFocus,
		Timer: models.Timer{ID: "2", Name: "Tea", Duration: 300, TimeLeft: 300},
	})

	_, _ = w.Update(w.waitForEvent())

	selected, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", selected.ID)

	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventCompleted,
		Timer: models.Timer{ID: "1", Name: "Standup", Duration: 900, Status: models.TimerCompleted},
	})

	_, _ = w.Update(w.waitForEvent())
	assert.Contains(t, w.View(), "Standup has finished!")

	// timers created elsewhere show up
	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventUpdate,
		Timer: models.Timer{ID: "3", Name: "Walk", Duration: 600, TimeLeft: 600},
	})

	_, _ = w.Update(w.waitForEvent())
	assert.Contains(t, w.View(), "Walk")
}

func TestWatchError(t *testing.T) {
	ctrl := &fakeController{
		timers: []models.Timer{{ID: "1", Name: "Standup", Duration: 900, TimeLeft: 0}},
		err:    errors.New("timer 1 has no time left"),
	}

	w := newTestWatch(t, ctrl)

	cmd := press(w, " ")
	require.NotNil(t, cmd)

	_, _ = w.Update(cmd())
	assert.Contains(t, w.View(), "timer 1 has no time left")
}

func TestWatchQuit(t *testing.T) {
	w := newTestWatch(t, &fakeController{})

	assert.Contains(t, w.View(), "No timers yet")

	cmd := press(w, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestWatchKeepsEventsUnderLoad(t *testing.T) {
	ctrl := &fakeController{}
	w := newTestWatch(t, ctrl)

	for left := 900; left > 600; left-- {
		ctrl.listeners.Emit(timer.Event{
			Type:  timer.EventUpdate,
			Timer: models.Timer{ID: "1", Duration: 900, TimeLeft: left, Status: models.TimerRunning},
		})
	}

	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventCompleted,
		Timer: models.Timer{ID: "1", Duration: 900, Status: models.TimerCompleted},
	})

	for left := 300; left > 100; left-- {
		ctrl.listeners.Emit(timer.Event{
			Type:  timer.EventUpdate,
			Timer: models.Timer{ID: "2", Duration: 300, TimeLeft: left, Status: models.TimerRunning},
		})
	}

	ctrl.listeners.Emit(timer.Event{
		Type:  timer.EventFocus,
		Timer: models.Timer{ID: "2", Duration: 300, TimeLeft: 101},
	})

	var got []timer.Event

	for {
		ev, ok := w.next()
		if !ok {
			break
		}

		got = append(got, ev)
	}

	require.Len(t, got, 4)

	assert.Equal(t, timer.EventUpdate, got[0].Type)
	assert.Equal(t, 601, got[0].Timer.TimeLeft)
	assert.Equal(t, timer.EventCompleted, got[1].Type)
	assert.Equal(t, "1", got[1].Timer.ID)
	assert.Equal(t, timer.EventUpdate, got[2].Type)
	assert.Equal(t, 101, got[2].Timer.TimeLeft)
	assert.Equal(t, timer.EventFocus, got[3].Type)
	assert.Equal(t, "2", got[3].Timer.ID)
}
