package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/notch/internal/apperr"
	"github.com/ayoisaiah/notch/internal/models"
	"github.com/ayoisaiah/notch/store"
)

func newClient(t *testing.T) *store.Client {
	t.Helper()

	c, err := store.NewClient(filepath.Join(t.TempDir(), "notch.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func fixedClock(c *store.Client, at time.Time) *time.Time {
	now := at
	c.Now = func() time.Time { return now }

	return &now
}

func TestDefaultCategories(t *testing.T) {
	c := newClient(t)

	cats, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, len(store.DefaultCategories))

	work, err := c.GetCategory(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, "#3B82F6", work.Color)
	assert.True(t, work.IsDefault)
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	now := fixedClock(c, time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC))

	task := models.Task{
		ID:        "a",
		Title:     "Write report",
		Date:      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00",
		EndTime:   "11:00",
		Status:    models.StatusUpcoming,
	}

	require.NoError(t, c.AddTask(ctx, &task))
	assert.Equal(t, *now, task.CreatedAt)

	err := c.AddTask(ctx, &task)
	assert.ErrorIs(t, err, apperr.Validation)

	*now = now.Add(time.Hour)
	task.Title = "Write weekly report"
	require.NoError(t, c.PutTask(ctx, &task))

	got, err := c.GetTask(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Write weekly report", got.Title)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.NoError(t, c.DeleteTask(ctx, "a"))
	require.NoError(t, c.DeleteTask(ctx, "a"))

	_, err = c.GetTask(ctx, "a")
	assert.ErrorIs(t, err, apperr.NotFound)
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestListTasksCreationOrder(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	now := fixedClock(c, time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC))

	for _, id := range []string{"zeta", "alpha", "mid"} {
		*now = now.Add(time.Minute)

		require.NoError(t, c.AddTask(ctx, &models.Task{ID: id, Title: id}))
	}

	tasks, err := c.ListTasks(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, ids)
}

func TestOccurrencesAreNotStored(t *testing.T) {
	c := newClient(t)

	occ := &models.Task{
		ID:                  "a-2024-01-10",
		OriginalID:          "a",
		IsRecurringInstance: true,
	}

	assert.ErrorIs(t, c.PutTask(context.Background(), occ), apperr.Validation)
	assert.ErrorIs(t, c.AddTask(context.Background(), occ), apperr.Validation)
}

func TestTimerSequence(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	first := &models.Timer{Name: "one", Duration: 60, TimeLeft: 60}
	second := &models.Timer{Name: "two", Duration: 60, TimeLeft: 60}

	require.NoError(t, c.AddTimer(ctx, first))
	require.NoError(t, c.AddTimer(ctx, second))

	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "2", second.ID)

	timers, err := c.ListTimers(ctx)
	require.NoError(t, err)
	assert.Len(t, timers, 2)

	first.TimeLeft = 10
	require.NoError(t, c.PutTimer(ctx, first))

	got, err := c.GetTimer(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 10, got.TimeLeft)

	require.NoError(t, c.DeleteTimer(ctx, "1"))

	_, err = c.GetTimer(ctx, "1")
	assert.ErrorIs(t, err, apperr.NotFound)
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.GetProfile(ctx)
	assert.ErrorIs(t, err, apperr.NotFound)

	require.NoError(t, c.PutProfile(ctx, &models.Profile{Name: "Ada", Onboarded: true}))

	p, err := c.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.True(t, p.Onboarded)
}

func TestRunningSet(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	rs := c.RunningSet()

	entries, err := rs.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, rs.Set(ctx, "1", 1704700800000))
	require.NoError(t, rs.Set(ctx, "2", 1704700860000))
	require.NoError(t, rs.Delete(ctx, "1"))
	require.NoError(t, rs.Delete(ctx, "missing"))

	entries, err = rs.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2": 1704700860000}, entries)
}

func TestRunningSetSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notch.db")

	c, err := store.NewClient(path)
	require.NoError(t, err)
	require.NoError(t, c.RunningSet().Set(ctx, "7", 42))
	require.NoError(t, c.Close())

	c, err = store.NewClient(path)
	require.NoError(t, err)

	defer c.Close()

	entries, err := c.RunningSet().All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"7": 42}, entries)
}
