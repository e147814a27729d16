package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 120 * time.Millisecond

// renderLoader renders the refresh indicator.
// The frame is selected based on the current time so it animates on re-render.
func renderLoader() string {
	frame := spinnerFrames[time.Now().UnixMilli()/spinnerInterval.Milliseconds()%int64(len(spinnerFrames))]

	return lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true).
		Render(frame + " Refreshing rate...")
}

// SpinnerTickMsg triggers a re-render for the loader.
type SpinnerTickMsg struct{}

// handleSpinnerTick re-schedules spinner ticks while a refresh is outstanding.
// The frame clock is off during that window, so nothing else repaints.
func (m *RatesModel) handleSpinnerTick() tea.Cmd {
	if m.pipeline.Loading() && !m.closed {
		return spinnerTick()
	}
	return nil
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(_ time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}
