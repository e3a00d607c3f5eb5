package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/timer"
)

const (
	padding  = 2
	maxWidth = 60
)

// Controller is what the watch view needs from the timer coordinator.
type Controller interface {
	ListTimers(ctx context.Context) ([]models.Timer, error)
	StartTimer(ctx context.Context, id string) error
	StopTimer(ctx context.Context, id string) error
	ResetTimer(ctx context.Context, id string) error
	Subscribe(fn func(timer.Event)) (cancel func())
}

type keyMap struct {
	up     key.Binding
	down   key.Binding
	toggle key.Binding
	reset  key.Binding
	quit   key.Binding
}

var defaultKeymap = keyMap{
	up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	toggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "start/stop"),
	),
	reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	baseStyle     = lipgloss.NewStyle().Padding(1, padding)
)

type (
	eventMsg  timer.Event
	timersMsg []models.Timer
	errMsg    struct{ err error }
)

// Watch is a live view of every timer. It follows the coordinator's events,
// so it shows the same countdowns whichever engine is ticking.
type Watch struct {
	ctx      context.Context
	ctrl     Controller
	ready    chan struct{}
	cancel   func()
	format   func(int) string
	status   string
	err      error
	timers   []models.Timer
	queue    []timer.Event
	progress progress.Model
	help     help.Model
	selected int
	mu       sync.Mutex
}

// NewWatch subscribes to the controller's events. format renders seconds
// for display.
func NewWatch(ctx context.Context, ctrl Controller, format func(int) string) *Watch {
	w := &Watch{
		ctx:      ctx,
		ctrl:     ctrl,
		ready:    make(chan struct{}, 1),
		format:   format,
		progress: progress.New(progress.WithDefaultGradient()),
		help:     help.New(),
	}

	w.cancel = ctrl.Subscribe(w.push)

	return w
}

// push queues ev without blocking the emitter. Nothing is dropped: an
// update replaces a still-queued update for the same timer, since it
// carries that timer's full state.
func (w *Watch) push(ev timer.Event) {
	w.mu.Lock()

	queued := false

	if ev.Type == timer.EventUpdate {
		for i := len(w.queue) - 1; i >= 0; i-- {
			if w.queue[i].Timer.ID != ev.Timer.ID {
				continue
			}

			if w.queue[i].Type == timer.EventUpdate {
				w.queue[i] = ev
				queued = true
			}

			break
		}
	}

	if !queued {
		w.queue = append(w.queue, ev)
	}

	w.mu.Unlock()

	select {
	case w.ready <- struct{}{}:
	default:
	}
}

func (w *Watch) next() (timer.Event, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.queue) == 0 {
		return timer.Event{}, false
	}

	ev := w.queue[0]
	w.queue = w.queue[1:]

	return ev, true
}

// Close stops listening for events.
func (w *Watch) Close() {
	w.cancel()
}

func (w *Watch) Init() tea.Cmd {
	return tea.Batch(w.load, w.waitForEvent)
}

func (w *Watch) load() tea.Msg {
	timers, err := w.ctrl.ListTimers(w.ctx)
	if err != nil {
		return errMsg{err}
	}

	return timersMsg(timers)
}

func (w *Watch) waitForEvent() tea.Msg {
	for {
		if ev, ok := w.next(); ok {
			return eventMsg(ev)
		}

		select {
		case <-w.ctx.Done():
			return tea.Quit()
		case <-w.ready:
		}
	}
}

func (w *Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timersMsg:
		w.timers = msg
		w.clampSelection()

		return w, nil

	case eventMsg:
		w.apply(timer.Event(msg))

		return w, w.waitForEvent

	case errMsg:
		w.err = msg.err

		return w, nil

	case tea.KeyMsg:
		return w.handleKey(msg)

	case tea.WindowSizeMsg:
		w.progress.Width = msg.Width - padding*2 - 4
		if w.progress.Width > maxWidth {
			w.progress.Width = maxWidth
		}

		return w, nil
	}

	return w, nil
}

func (w *Watch) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, defaultKeymap.quit):
		return w, tea.Quit

	case key.Matches(msg, defaultKeymap.up):
		if w.selected > 0 {
			w.selected--
		}

	case key.Matches(msg, defaultKeymap.down):
		if w.selected < len(w.timers)-1 {
			w.selected++
		}

	case key.Matches(msg, defaultKeymap.toggle):
		t, ok := w.current()
		if !ok {
			return w, nil
		}

		if t.Status == models.TimerRunning {
			return w, w.do(w.ctrl.StopTimer, t.ID)
		}

		return w, w.do(w.ctrl.StartTimer, t.ID)

	case key.Matches(msg, defaultKeymap.reset):
		t, ok := w.current()
		if !ok {
			return w, nil
		}

		return w, w.do(w.ctrl.ResetTimer, t.ID)
	}

	return w, nil
}

func (w *Watch) do(action func(context.Context, string) error, id string) tea.Cmd {
	return func() tea.Msg {
		if err := action(w.ctx, id); err != nil {
			return errMsg{err}
		}

		return nil
	}
}

func (w *Watch) apply(ev timer.Event) {
	i := w.indexOf(ev.Timer.ID)
	if i < 0 {
		w.timers = append(w.timers, ev.Timer)
		i = len(w.timers) - 1
	} else {
		w.timers[i] = ev.Timer
	}

	switch ev.Type {
	case timer.EventCompleted:
		w.status = timer.CompletionMessage(ev.Timer.Name)
	case timer.EventFocus:
		w.selected = i
	case timer.EventUpdate:
		w.err = nil
	}
}

func (w *Watch) indexOf(id string) int {
	for i := range w.timers {
		if w.timers[i].ID == id {
			return i
		}
	}

	return -1
}

func (w *Watch) current() (models.Timer, bool) {
	if w.selected < 0 || w.selected >= len(w.timers) {
		return models.Timer{}, false
	}

	return w.timers[w.selected], true
}

func (w *Watch) clampSelection() {
	if w.selected >= len(w.timers) {
		w.selected = len(w.timers) - 1
	}

	if w.selected < 0 {
		w.selected = 0
	}
}

// Selected returns the timer under the cursor.
func (w *Watch) Selected() (models.Timer, bool) {
	return w.current()
}

func (w *Watch) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Timers"))
	s.WriteString("\n\n")

	if len(w.timers) == 0 {
		s.WriteString(hintStyle.Render("No timers yet. Start one with `notch timer start <task-id>`."))
	}

	for i := range w.timers {
		t := w.timers[i]

		line := fmt.Sprintf("%-24s %8s  %s", t.Name, w.format(t.TimeLeft), t.Status)

		if i == w.selected {
			s.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			s.WriteString("  " + line)
		}

		s.WriteString("\n")
	}

	if t, ok := w.current(); ok && t.Duration > 0 {
		done := 1 - float64(t.TimeLeft)/float64(t.Duration)

		s.WriteString("\n")
		s.WriteString(w.progress.ViewAs(done))
		s.WriteString("\n")
	}

	if w.status != "" {
		s.WriteString("\n" + hintStyle.Render(w.status))
	}

	if w.err != nil {
		s.WriteString("\n" + errorStyle.Render(w.err.Error()))
	}

	s.WriteString("\n\n" + w.help.ShortHelpView([]key.Binding{
		defaultKeymap.up,
		defaultKeymap.down,
		defaultKeymap.toggle,
		defaultKeymap.reset,
		defaultKeymap.quit,
	}))

	return baseStyle.Render(s.String())
}
