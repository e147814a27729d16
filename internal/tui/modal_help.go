package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const helpIntro = `The rate refreshes on its own each time the progress bar fills.
After every lookup the bar pauses for a short cooldown while the
loader spins, then starts filling again.

Type an amount to see it converted at the live rate, with and
without the conversion markup. Text that is not a number simply
hides the results.`

// HelpModal shows the key map and a short description of the page.
type HelpModal struct {
	keys KeyMap
	help help.Model
}

func newHelpModal(keys KeyMap) *HelpModal {
	h := help.New()
	h.ShowAll = true
	return &HelpModal{keys: keys, help: h}
}

func (h *HelpModal) ID() string { return "help" }

func (h *HelpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(keyMsg, h.keys.Close, h.keys.Help) {
			return true, nil
		}
	}
	return false, nil
}

func (h *HelpModal) View(width, height int) string {
	modalWidth := min(72, width-4)
	h.help.Width = modalWidth - 4

	header := lipgloss.NewStyle().
		Foreground(ColorBlue).
		Bold(true).
		Render("Help")

	statusBar := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render("F1/ESC: Close")

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.NewStyle().Width(modalWidth-4).Render(helpIntro),
		"",
		h.help.FullHelpView(h.keys.FullHelp()),
		"",
		statusBar,
	)

	finalModal := lipgloss.NewStyle().
		Width(modalWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(0, 1).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, finalModal)
}
