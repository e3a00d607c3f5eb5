// Package testutil holds helpers shared by package tests.
package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/ayoisaiah/notch/internal/osutil"
)

// GoldenTest produces output to compare against a golden file in the
// package's testdata directory.
type GoldenTest interface {
	Output() ([]byte, string)
}

// Golden is a GoldenTest over fixed output.
type Golden struct {
	Name string
	Data []byte
}

func (g Golden) Output() ([]byte, string) {
	return g.Data, g.Name
}

// CompareGoldenFile verifies that the output of an operation matches
// the expected output.
func CompareGoldenFile(t *testing.T, tc GoldenTest) {
	t.Helper()

	if runtime.GOOS == osutil.Windows {
		// TODO: need to sort out line endings
		t.Skip("skipping golden file test in Windows")
	}

	g := goldie.New(
		t,
		goldie.WithFixtureDir("testdata"),
	)

	snap, golden := tc.Output()

	if snap != nil {
		g.Assert(t, golden, snap)
		return
	}

	f := filepath.Join("testdata", golden+".golden")
	if _, err := os.Stat(f); err == nil || errors.Is(err, os.ErrExist) {
		t.Fatalf("expected no output, but golden file exists: %s", f)
	}
}

// Clock is a settable clock for code that takes a func() time.Time.
type Clock struct {
	now time.Time
	mu  sync.Mutex
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// Notifier records notifications and completion sounds.
type Notifier struct {
	titles []string
	bodies []string
	sounds int
	mu     sync.Mutex
}

func (n *Notifier) Notify(title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
}

func (n *Notifier) PlayCompletionSound() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sounds++
}

// Notifications returns the bodies of every notification sent so far.
func (n *Notifier) Notifications() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.bodies...)
}

// Titles returns the titles of every notification sent so far.
func (n *Notifier) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.titles...)
}

// Sounds reports how many completion sounds were played.
func (n *Notifier) Sounds() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.sounds
}
