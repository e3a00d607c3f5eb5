package app

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
)

func TestParseRepeat(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		days  []int
		err   error
	}{
		{name: "short names", input: "mon,wed,fri", days: []int{1, 3, 5}},
		{name: "long names and spaces", input: " Sunday , saturday", days: []int{0, 6}},
		{name: "trailing comma", input: "tue,", days: []int{2}},
		{name: "unknown day", input: "mon,funday", err: apperr.Validation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := parseRepeat(tc.input)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, models.RecurrenceWeekly, r.Type)
			assert.Equal(t, tc.days, r.Days)
		})
	}
}

func TestDisplayClock(t *testing.T) {
	assert.Equal(t, "14:30", displayClock("14:30", true))
	assert.Equal(t, "02:30 PM", displayClock("14:30", false))
	assert.Equal(t, "12:00 AM", displayClock("00:00", false))
	assert.Equal(t, "bogus", displayClock("bogus", false))
}

func TestRepeatDays(t *testing.T) {
	assert.Empty(t, repeatDays(nil))
	assert.Equal(t, "Mon · Thu", repeatDays(&models.Recurrence{
		Type: models.RecurrenceWeekly,
		Days: []int{1, 4},
	}))
}

func TestPrintTasksTable(t *testing.T) {
	disableStyling()

	now := time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC)

	tasks := []models.Task{
		{
			ID:        "a1",
			Title:     "Deep work",
			Date:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
			EndTime:   "11:00",
			Status:    models.StatusUpcoming,
		},
		{
			ID:        "b2",
			Title:     "Gym",
			Date:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
			StartTime: "18:00",
			EndTime:   "19:00",
			Status:    models.StatusUpcoming,
		},
	}

	var buf bytes.Buffer

	printTasksTable(&buf, tasks, now, true)

	out := buf.String()
	assert.Contains(t, out, "Deep work")
	assert.Contains(t, out, "09:00 - 11:00")
	assert.Contains(t, out, string(models.StatusOngoing))
	assert.Contains(t, out, string(models.StatusUpcoming))
}

func TestTaskInputIncomplete(t *testing.T) {
	assert.True(t, (&taskInput{Title: "Read"}).incomplete())
	assert.False(t, (&taskInput{Title: "Read", Start: "08:00", End: "09:00"}).incomplete())
}

func TestCommands(t *testing.T) {
	a := Get()

	for _, name := range []string{
		"add", "list", "edit", "delete", "done", "begin", "miss",
		"cancel", "timer", "watch", "runner", "edit-config",
	} {
		assert.NotNil(t, a.Command(name), name)
	}

	var names []string
	for _, c := range a.Command("timer").Subcommands {
		names = append(names, c.Name)
	}

	assert.ElementsMatch(
		t,
		[]string{"start", "stop", "reset", "status", "delete", "new", "list", "focus"},
		names,
	)
}
