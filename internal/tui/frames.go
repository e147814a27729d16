package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// frameMsg is delivered when a frame requested through teaFrameSource is due.
type frameMsg struct {
	id int
	at time.Time
}

// teaFrameSource implements frameclock.FrameSource on top of tea.Tick.
// Requests are queued as commands and collected with flush after each
// Update; cancelled ids are dropped when their frameMsg arrives.
type teaFrameSource struct {
	interval time.Duration
	nextID   int
	pending  map[int]func(time.Time)
	queued   []int
}

func newTeaFrameSource(interval time.Duration) *teaFrameSource {
	return &teaFrameSource{
		interval: interval,
		pending:  make(map[int]func(time.Time)),
	}
}

func (s *teaFrameSource) RequestFrame(fn func(now time.Time)) func() {
	id := s.nextID
	s.nextID++
	s.pending[id] = fn
	s.queued = append(s.queued, id)
	return func() { delete(s.pending, id) }
}

// deliver runs the callback for msg if its request is still live.
func (s *teaFrameSource) deliver(msg frameMsg) {
	fn, ok := s.pending[msg.id]
	if !ok {
		return
	}
	delete(s.pending, msg.id)
	fn(msg.at)
}

// flush returns tick commands for requests made since the last flush that
// have not been cancelled in the meantime.
func (s *teaFrameSource) flush() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range s.queued {
		if _, ok := s.pending[id]; !ok {
			continue
		}
		cmds = append(cmds, tea.Tick(s.interval, func(t time.Time) tea.Msg {
			return frameMsg{id: id, at: t}
		}))
	}
	s.queued = s.queued[:0]
	return tea.Batch(cmds...)
}
