package tui

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/fxlive/internal/currency"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pairSide identifies which half of the currency pair a selection targets.
type pairSide int

const (
	sideSell pairSide = iota
	sideBuy
)

func (s pairSide) label() string {
	if s == sideSell {
		return "From"
	}
	return "To"
}

// countryPickedMsg is emitted when the picker closes with a selection.
type countryPickedMsg struct {
	side    pairSide
	country string
}

// PickerModal lists countries with their currency and filters as you type.
type PickerModal struct {
	side     pairSide
	keys     KeyMap
	all      []currency.Country
	filtered []currency.Country
	cursor   int
	filter   textinput.Model
}

func newPickerModal(side pairSide, countries []currency.Country, current string, keys KeyMap) *PickerModal {
	fi := textinput.New()
	fi.Placeholder = "Type to filter by country or currency..."
	fi.CharLimit = 40
	fi.Prompt = "/ "
	fi.Focus()

	p := &PickerModal{
		side:   side,
		keys:   keys,
		all:    countries,
		filter: fi,
	}
	p.applyFilter()
	for i, c := range p.filtered {
		if c.Code == current {
			p.cursor = i
			break
		}
	}
	return p
}

func (p *PickerModal) ID() string { return "picker" }

func (p *PickerModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Close):
		return true, nil
	case key.Matches(keyMsg, p.keys.Select):
		if len(p.filtered) == 0 {
			return false, nil
		}
		picked := countryPickedMsg{side: p.side, country: p.filtered[p.cursor].Code}
		return true, func() tea.Msg { return picked }
	case key.Matches(keyMsg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return false, nil
	case key.Matches(keyMsg, p.keys.Down):
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
		}
		return false, nil
	}

	var cmd tea.Cmd
	before := p.filter.Value()
	p.filter, cmd = p.filter.Update(keyMsg)
	if p.filter.Value() != before {
		p.applyFilter()
	}
	return false, cmd
}

func (p *PickerModal) applyFilter() {
	term := strings.ToLower(strings.TrimSpace(p.filter.Value()))
	p.filtered = p.filtered[:0]
	for _, c := range p.all {
		if term == "" ||
			strings.Contains(strings.ToLower(c.Code), term) ||
			strings.Contains(strings.ToLower(c.Currency), term) ||
			strings.Contains(strings.ToLower(c.Name), term) {
			p.filtered = append(p.filtered, c)
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = max(0, len(p.filtered)-1)
	}
}

// selected returns the highlighted country, if any.
func (p *PickerModal) selected() (currency.Country, bool) {
	if len(p.filtered) == 0 {
		return currency.Country{}, false
	}
	return p.filtered[p.cursor], true
}

func (p *PickerModal) View(width, height int) string {
	modalWidth := min(60, width-4)
	modalHeight := max(8, height-6)
	listHeight := modalHeight - 6 // header, filter, status, borders

	start := 0
	if p.cursor >= listHeight {
		start = p.cursor - listHeight + 1
	}
	end := min(len(p.filtered), start+listHeight)

	rows := make([]string, 0, listHeight)
	for i := start; i < end; i++ {
		c := p.filtered[i]
		line := fmt.Sprintf("%-3s %-4s %s", c.Code, c.Currency, c.Name)
		if i == p.cursor {
			line = lipgloss.NewStyle().Background(ColorBlue).Foreground(ColorWhite).Render("> " + line)
		} else {
			line = "  " + line
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		rows = append(rows, labelStyle.Italic(true).Render("  no matches"))
	}

	header := lipgloss.NewStyle().
		Foreground(ColorBlue).
		Bold(true).
		Render(fmt.Sprintf("Select %s currency", p.side.label()))

	statusBar := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render("↑/↓: Move | Enter: Select | ESC: Close")

	list := lipgloss.NewStyle().Height(listHeight).Render(strings.Join(rows, "\n"))
	body := lipgloss.JoinVertical(lipgloss.Left, header, p.filter.View(), list, statusBar)

	finalModal := lipgloss.NewStyle().
		Width(modalWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(0, 1).
		Render(body)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, finalModal)
}
