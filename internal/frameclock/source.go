package frameclock

import (
	"sort"
	"time"
)

// FrameSource schedules one-shot frame callbacks. A request fires its
// callback at most once; the returned cancel func prevents a pending
// request from firing.
type FrameSource interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// ManualSource is a FrameSource driven by simulated time. Nothing fires
// until Advance is called.
type ManualSource struct {
	now     time.Time
	nextID  int
	pending map[int]func(time.Time)
}

// NewManualSource creates a ManualSource whose clock starts at start.
func NewManualSource(start time.Time) *ManualSource {
	return &ManualSource{
		now:     start,
		pending: make(map[int]func(time.Time)),
	}
}

func (s *ManualSource) RequestFrame(fn func(now time.Time)) func() {
	id := s.nextID
	s.nextID++
	s.pending[id] = fn
	return func() { delete(s.pending, id) }
}

// Advance moves the simulated clock forward by d and fires every callback
// that was pending when Advance was called, in request order. Requests made
// by those callbacks wait for the next Advance. Returns the number fired.
func (s *ManualSource) Advance(d time.Duration) int {
	s.now = s.now.Add(d)

	ids := make([]int, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	fired := 0
	for _, id := range ids {
		fn, ok := s.pending[id]
		if !ok {
			// cancelled by an earlier callback in this batch
			continue
		}
		delete(s.pending, id)
		fn(s.now)
		fired++
	}
	return fired
}

// Pending returns the number of outstanding frame requests.
func (s *ManualSource) Pending() int {
	return len(s.pending)
}

// Now returns the simulated current time.
func (s *ManualSource) Now() time.Time {
	return s.now
}
