package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the rates page and its modals.
var (
	ColorWhite = lipgloss.Color("15")
	ColorGray  = lipgloss.Color("8")
	ColorBlue  = lipgloss.Color("12")
	ColorGreen = lipgloss.Color("10")
	ColorRed   = lipgloss.Color("9")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	errorStyle   = lipgloss.NewStyle().
			Foreground(ColorRed).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorRed).
			PaddingLeft(1)
	currencyBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorGray).
				Padding(0, 1)
	rateStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBlue).
			Padding(1, 2)
)
