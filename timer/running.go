package timer

import (
	"context"
	"maps"
	"sync"
	"time"
)

// RunningSet is the authoritative record of which timers are counting down
// and since when. Entries map a timer id to a start epoch in milliseconds.
type RunningSet interface {
	All(ctx context.Context) (map[string]int64, error)
	Set(ctx context.Context, id string, epochMillis int64) error
	Delete(ctx context.Context, id string) error
}

// MemoryRunningSet is a RunningSet that lives only as long as the process.
type MemoryRunningSet struct {
	m  map[string]int64
	mu sync.Mutex
}

func NewMemoryRunningSet() *MemoryRunningSet {
	return &MemoryRunningSet{m: make(map[string]int64)}
}

func (s *MemoryRunningSet) All(_ context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := maps.Clone(s.m)
	if out == nil {
		out = make(map[string]int64)
	}

	return out, nil
}

func (s *MemoryRunningSet) Set(_ context.Context, id string, epochMillis int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m == nil {
		s.m = make(map[string]int64)
	}

	s.m[id] = epochMillis

	return nil
}

func (s *MemoryRunningSet) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)

	return nil
}

// StartEpoch returns the epoch to record when a timer with timeLeft of
// duration seconds remaining starts at now. The epoch is shifted back by the
// time already spent so that Remaining can always work from the full
// duration.
func StartEpoch(now time.Time, duration, timeLeft int) int64 {
	timeLeft = clamp(timeLeft, 0, duration)

	return now.UnixMilli() - int64(duration-timeLeft)*int64(time.Second/time.Millisecond)
}

// Remaining computes the seconds left on a timer started at epochMillis.
// It never drifts: each call works from the epoch rather than from the
// previous result.
func Remaining(duration int, epochMillis int64, now time.Time) int {
	elapsed := (now.UnixMilli() - epochMillis) / int64(time.Second/time.Millisecond)
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed >= int64(duration) {
		return 0
	}

	return clamp(duration-int(elapsed), 0, duration)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
