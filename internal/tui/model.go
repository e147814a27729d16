package tui

import (
	"time"

	"github.com/tinytelemetry/fxlive/internal/currency"
	"github.com/tinytelemetry/fxlive/internal/frameclock"
	"github.com/tinytelemetry/fxlive/internal/model"
	"github.com/tinytelemetry/fxlive/internal/pipeline"
	"github.com/tinytelemetry/fxlive/internal/poll"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Options configures a RatesModel.
type Options struct {
	FrameInterval time.Duration
	Poll          poll.Config
	Countries     *currency.Table
	Logger        *zap.Logger
}

// RatesModel is the live conversion page. The frame clock drives the poll
// trigger; a completed cycle refreshes the rate through the pipeline, whose
// loading gate switches the clock off until the cooldown ends.
type RatesModel struct {
	pipeline  *pipeline.Pipeline
	countries *currency.Table
	trigger   *poll.Trigger
	clock     *frameclock.Clock
	frames    *teaFrameSource
	keys      KeyMap
	logger    *zap.Logger

	// fetchCmd turns a refresh job into the command that runs it.
	fetchCmd func(pipeline.Job) tea.Cmd

	amountInput textinput.Model
	progressBar progress.Model
	statusHelp  help.Model

	modalStack []Modal

	// Window dimensions
	width  int
	height int

	// Set by the clock's tick callback; consumed after the frame is
	// delivered so refresh never runs inside the progress update.
	cycleCompleted bool

	closed bool
}

// rateFetchedMsg carries a finished lookup back to the UI loop.
type rateFetchedMsg struct {
	outcome pipeline.Outcome
}

// cooldownDoneMsg fires once the post-lookup cooldown has elapsed.
type cooldownDoneMsg struct{}

// NewRatesModel creates the rates page over p.
func NewRatesModel(p *pipeline.Pipeline, opts Options) *RatesModel {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = model.DefaultFrameInterval
	}
	if opts.Poll == (poll.Config{}) {
		opts.Poll = poll.DefaultConfig()
	}
	if opts.Countries == nil {
		opts.Countries = currency.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	amountInput := textinput.New()
	amountInput.Placeholder = "Enter amount to convert"
	amountInput.CharLimit = 32
	amountInput.Prompt = "Amount ▸ "
	amountInput.Focus()

	m := &RatesModel{
		pipeline:    p,
		countries:   opts.Countries,
		trigger:     poll.NewTrigger(opts.Poll),
		frames:      newTeaFrameSource(opts.FrameInterval),
		keys:        DefaultKeyMap(),
		logger:      opts.Logger,
		amountInput: amountInput,
		progressBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		statusHelp:  help.New(),
		fetchCmd:    fetchRateCmd,
	}
	m.clock = frameclock.New(m.frames, m.onFrameTick)
	return m
}

// Init kicks off the first lookup. The clock starts once its cooldown ends.
func (m *RatesModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.refresh()}
	m.syncClock()
	cmds = append(cmds, m.frames.flush())
	return tea.Batch(cmds...)
}

func (m *RatesModel) onFrameTick(deltaMillis float64) {
	if m.trigger.Advance(deltaMillis) {
		m.cycleCompleted = true
	}
}

// syncClock keeps the frame clock enabled exactly while no refresh is
// outstanding.
func (m *RatesModel) syncClock() {
	m.clock.SetEnabled(!m.closed && !m.pipeline.Loading())
}

// refresh starts a lookup unless one is already outstanding.
func (m *RatesModel) refresh() tea.Cmd {
	if m.closed {
		return nil
	}
	job, ok := m.pipeline.Refresh()
	if !ok {
		return nil
	}
	m.syncClock()
	m.logger.Debug("refreshing rate", zap.Stringer("pair", job.Pair()))
	return tea.Batch(m.fetchCmd(job), spinnerTick())
}

// Close tears the page down: no frame is delivered and no lookup result is
// applied afterwards. An in-flight lookup is left to finish on its own.
func (m *RatesModel) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.clock.Stop()
	m.pipeline.Close()
}

// Progress returns the current poll cycle progress in [0,1).
func (m *RatesModel) Progress() float64 {
	return m.trigger.Progress()
}

// RatesPage adapts RatesModel to the Page interface.
type RatesPage struct {
	Model *RatesModel
}

// NewRatesPage wraps a RatesModel as a Page.
func NewRatesPage(m *RatesModel) *RatesPage {
	return &RatesPage{Model: m}
}

func (p *RatesPage) ID() string { return "rates" }

func (p *RatesPage) Init() tea.Cmd {
	return p.Model.Init()
}

func (p *RatesPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	_, cmd := p.Model.Update(msg)
	return cmd, nil
}

func (p *RatesPage) View(width, height int) string {
	p.Model.width = width
	p.Model.height = height
	return p.Model.View()
}

func (p *RatesPage) Close() {
	p.Model.Close()
}
