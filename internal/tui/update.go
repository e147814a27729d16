package tui

import (
	"context"
	"time"

	"github.com/tinytelemetry/fxlive/internal/pipeline"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages
func (m *RatesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg))

	case frameMsg:
		m.frames.deliver(msg)
		if m.cycleCompleted {
			m.cycleCompleted = false
			cmds = append(cmds, m.refresh())
		}

	case rateFetchedMsg:
		cmds = append(cmds, m.applyOutcome(msg.outcome))

	case cooldownDoneMsg:
		m.pipeline.Finish()
		m.syncClock()

	case countryPickedMsg:
		var changed bool
		if msg.side == sideSell {
			changed = m.pipeline.SelectSell(msg.country)
		} else {
			changed = m.pipeline.SelectBuy(msg.country)
		}
		if changed {
			cmds = append(cmds, m.refresh())
		}

	case SpinnerTickMsg:
		cmds = append(cmds, m.handleSpinnerTick())

	default:
		var cmd tea.Cmd
		m.amountInput, cmd = m.amountInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.frames.flush())
	return m, tea.Batch(cmds...)
}

// handleKeyPress routes keys to the top modal, page actions, or the amount input.
func (m *RatesModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return tea.Quit
	}

	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.PushModal(newHelpModal(m.keys))
		return nil
	case key.Matches(msg, m.keys.PickSell):
		m.PushModal(newPickerModal(sideSell, m.countries.Countries(), m.pipeline.State().SellCountry, m.keys))
		return nil
	case key.Matches(msg, m.keys.PickBuy):
		m.PushModal(newPickerModal(sideBuy, m.countries.Countries(), m.pipeline.State().BuyCountry, m.keys))
		return nil
	case key.Matches(msg, m.keys.Swap):
		if m.pipeline.Swap() {
			return m.refresh()
		}
		return nil
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refresh()
		if cmd != nil {
			// A manual lookup starts a full cycle before the next automatic one.
			m.trigger.Reset()
		}
		return cmd
	case key.Matches(msg, m.keys.ClearIn):
		m.amountInput.SetValue("")
		m.pipeline.SetAmount("")
		return nil
	}

	before := m.amountInput.Value()
	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)
	if after := m.amountInput.Value(); after != before {
		m.pipeline.SetAmount(after)
	}
	return cmd
}

// applyOutcome resolves a finished lookup and schedules the end of its cooldown.
func (m *RatesModel) applyOutcome(o pipeline.Outcome) tea.Cmd {
	if m.closed {
		return nil
	}
	m.pipeline.Resolve(o)

	// A failed lookup clears the entered amount.
	if amount := m.pipeline.State().Amount; amount != m.amountInput.Value() {
		m.amountInput.SetValue(amount)
	}

	cooldown := m.pipeline.Cooldown()
	if cooldown <= 0 {
		return func() tea.Msg { return cooldownDoneMsg{} }
	}
	return tea.Tick(cooldown, func(_ time.Time) tea.Msg {
		return cooldownDoneMsg{}
	})
}

// fetchRateCmd runs the lookup off the UI loop. The request is bounded only
// by the client's transport timeout.
func fetchRateCmd(job pipeline.Job) tea.Cmd {
	return func() tea.Msg {
		return rateFetchedMsg{outcome: job.Run(context.Background())}
	}
}
