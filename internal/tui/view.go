package tui

import (
	"fmt"
	"strconv"

	"github.com/tinytelemetry/fxlive/internal/pipeline"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

const (
	minPageWidth  = 56
	minPageHeight = 20
	cardWidth     = 64
)

// View renders the page
func (m *RatesModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}

	// If a modal is on the stack, render it full-screen.
	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}

	if m.width < minPageWidth || m.height < minPageHeight {
		return fmt.Sprintf("Terminal too small. Resize to at least %dx%d.", minPageWidth, minPageHeight)
	}

	return m.renderPage()
}

func (m *RatesModel) renderPage() string {
	st := m.pipeline.State()
	inner := min(cardWidth, m.width-4) - 6 // border + padding

	sections := []string{headingStyle.Render("Currency Conversion"), ""}

	if st.Err != "" {
		sections = append(sections, errorStyle.Width(inner).Render("Error: "+st.Err), "")
	}

	m.amountInput.Width = inner - lipgloss.Width(m.amountInput.Prompt) - 1
	sections = append(sections, m.amountInput.View(), "")

	if st.Result.Complete() {
		sections = append(sections, m.renderResults(st, inner), "")
	}

	sections = append(sections, m.renderPair(st, inner), "")

	m.progressBar.Width = inner
	sections = append(sections, m.progressBar.ViewAs(m.trigger.Progress()))

	if st.Loading {
		sections = append(sections, renderLoader())
	} else {
		sections = append(sections, "")
	}

	if spark := renderSparkline(st.History, inner); spark != "" {
		sections = append(sections, "", labelStyle.Render("Recent rates "+st.Pair.String()), spark)
	}

	card := cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	status := m.renderStatusLine()

	page := lipgloss.JoinVertical(lipgloss.Center, card, "", status)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, page)
}

func (m *RatesModel) renderResults(st pipeline.State, width int) string {
	markupPct := m.pipeline.Markup().Shift(2).String()
	rows := []struct{ label, value string }{
		{"True Amount (No Markup):", *st.Result.True},
		{fmt.Sprintf("Marked Up Amount (%s%% Markup):", markupPct), *st.Result.MarkedUp},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		value := valueStyle.Render(r.value + " " + st.Pair.Buy)
		label := labelStyle.Render(r.label)
		gap := max(1, width-lipgloss.Width(label)-lipgloss.Width(value))
		lines = append(lines, label+lipgloss.NewStyle().Width(gap).Render("")+value)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *RatesModel) renderPair(st pipeline.State, width int) string {
	from := m.renderCurrencyBox("From", st.SellCountry, st.Pair.Sell)
	to := m.renderCurrencyBox("To", st.BuyCountry, st.Pair.Buy)

	middle := lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render("⇄"),
		rateStyle.Render(formatRate(st.Rate)),
	)
	midWidth := max(lipgloss.Width(middle), width-lipgloss.Width(from)-lipgloss.Width(to))
	middle = lipgloss.PlaceHorizontal(midWidth, lipgloss.Center, middle)

	return lipgloss.JoinHorizontal(lipgloss.Center, from, middle, to)
}

func (m *RatesModel) renderCurrencyBox(label, country, code string) string {
	name := country
	if c, ok := m.countries.Lookup(country); ok && c.Name != "" {
		name = c.Name
	}
	return currencyBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(label),
		valueStyle.Render(code)+" "+labelStyle.Render(truncateRunes(name, 14)),
	))
}

// renderStatusLine renders the key help line under the card.
func (m *RatesModel) renderStatusLine() string {
	m.statusHelp.Width = m.width
	return m.statusHelp.ShortHelpView(m.keys.ShortHelp())
}

// renderSparkline draws the in-session rate history. Values are offset by
// their minimum so small moves are visible.
func renderSparkline(history []float64, width int) string {
	if len(history) < 2 || width <= 0 {
		return ""
	}

	lo, hi := history[0], history[0]
	for _, v := range history {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	floor := (hi - lo) * 0.1
	if floor == 0 {
		floor = 1
	}

	sl := sparkline.New(width, 3)
	for _, v := range history {
		sl.Push(v - lo + floor)
	}
	sl.Draw()
	return sl.View()
}

func formatRate(rate *float64) string {
	if rate == nil {
		return "—"
	}
	return strconv.FormatFloat(*rate, 'f', -1, 64)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
