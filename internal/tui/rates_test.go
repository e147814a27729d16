package tui

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/fxlive/internal/currency"
	"github.com/tinytelemetry/fxlive/internal/pipeline"
	"github.com/tinytelemetry/fxlive/internal/poll"
	"github.com/tinytelemetry/fxlive/internal/rates"

	tea "github.com/charmbracelet/bubbletea"
)

type stubFetcher struct {
	rate  float64
	err   error
	calls int
}

func (f *stubFetcher) FetchRate(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.rate, f.err
}

type harness struct {
	t       *testing.T
	m       *RatesModel
	fetcher *stubFetcher
	jobs    []pipeline.Job
	now     time.Time
}

// newHarness builds a model whose poll cycle is 0.1 progress per 10ms frame
// and fires once progress would pass 0.5.
func newHarness(t *testing.T, f *stubFetcher) *harness {
	t.Helper()

	p, err := pipeline.New(f, currency.Default(), pipeline.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	h := &harness{t: t, fetcher: f, now: time.Unix(1_700_000_000, 0)}
	h.m = NewRatesModel(p, Options{
		FrameInterval: 10 * time.Millisecond,
		Poll:          poll.Config{Rate: 0.01, Threshold: 0.55},
	})
	h.m.fetchCmd = func(j pipeline.Job) tea.Cmd {
		h.jobs = append(h.jobs, j)
		return nil
	}
	h.m.width, h.m.height = 100, 40
	return h
}

// finishLookup runs the latest job, applies it, and ends the cooldown.
func (h *harness) finishLookup() {
	h.t.Helper()
	if len(h.jobs) == 0 {
		h.t.Fatal("no lookup was started")
	}
	job := h.jobs[len(h.jobs)-1]
	h.m.Update(rateFetchedMsg{outcome: job.Run(context.Background())})
	h.m.Update(cooldownDoneMsg{})
}

// frame advances simulated time by d and delivers every pending frame.
func (h *harness) frame(d time.Duration) int {
	h.now = h.now.Add(d)
	ids := make([]int, 0, len(h.m.frames.pending))
	for id := range h.m.frames.pending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		h.m.Update(frameMsg{id: id, at: h.now})
	}
	return len(ids)
}

func (h *harness) pendingFrames() int {
	return len(h.m.frames.pending)
}

func TestInit_StartsLookupWithClockOff(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()

	if got := len(h.jobs); got != 1 {
		t.Fatalf("lookups after init = %d, want 1", got)
	}
	if !h.m.pipeline.Loading() {
		t.Fatal("expected loading after init")
	}
	if got := h.pendingFrames(); got != 0 {
		t.Fatalf("pending frames while loading = %d, want 0", got)
	}
}

func TestCooldown_ReenablesClock(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()

	job := h.jobs[0]
	h.m.Update(rateFetchedMsg{outcome: job.Run(context.Background())})
	if got := h.pendingFrames(); got != 0 {
		t.Fatalf("pending frames during cooldown = %d, want 0", got)
	}
	if r := h.m.pipeline.State().Rate; r == nil || *r != 0.645 {
		t.Fatalf("rate after lookup = %v, want 0.645", r)
	}

	h.m.Update(cooldownDoneMsg{})
	if h.m.pipeline.Loading() {
		t.Fatal("still loading after cooldown")
	}
	if got := h.pendingFrames(); got != 1 {
		t.Fatalf("pending frames after cooldown = %d, want 1", got)
	}
}

func TestFrames_FillThenRefresh(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()

	h.frame(10 * time.Millisecond) // baseline
	if got := h.m.Progress(); got != 0 {
		t.Fatalf("progress after baseline frame = %v, want 0", got)
	}

	prev := 0.0
	for i := 1; i <= 5; i++ {
		h.frame(10 * time.Millisecond)
		if got := h.m.Progress(); got <= prev {
			t.Fatalf("frame %d: progress %v did not increase from %v", i, got, prev)
		}
		prev = h.m.Progress()
	}
	if got := len(h.jobs); got != 1 {
		t.Fatalf("lookups before cycle end = %d, want 1", got)
	}

	h.frame(10 * time.Millisecond)
	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups after cycle end = %d, want 2", got)
	}
	if got := h.m.Progress(); got != 0 {
		t.Fatalf("progress after cycle end = %v, want 0", got)
	}
	if got := h.pendingFrames(); got != 0 {
		t.Fatalf("pending frames after refresh = %d, want 0", got)
	}
}

func TestFrames_FrozenWhileLoading(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()
	h.frame(10 * time.Millisecond)
	h.frame(10 * time.Millisecond)
	h.frame(10 * time.Millisecond)
	frozen := h.m.Progress()

	stale := h.m.frames.nextID - 1
	h.m.Update(countryPickedMsg{side: sideBuy, country: "GB"})
	if !h.m.pipeline.Loading() {
		t.Fatal("pair change did not start a lookup")
	}

	for i := 0; i < 10; i++ {
		h.m.Update(frameMsg{id: stale, at: h.now.Add(time.Duration(i) * time.Second)})
		h.frame(time.Second)
	}
	if got := h.m.Progress(); got != frozen {
		t.Fatalf("progress moved while loading: %v -> %v", frozen, got)
	}

	// Re-enabling starts a fresh delta sequence: the long gap is not counted.
	h.finishLookup()
	h.frame(time.Hour)
	if got := h.m.Progress(); got != frozen {
		t.Fatalf("progress after re-enable baseline = %v, want %v", got, frozen)
	}
}

func TestRefresh_OverlappingTriggersStartOneLookup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()
	for i := 0; i < 6; i++ {
		h.frame(10 * time.Millisecond)
	}
	if got := len(h.jobs); got != 1 {
		t.Fatalf("lookups = %d, want 1 before the race", got)
	}

	// Pair change lands first; the frame that would end the cycle and a
	// manual refresh both hit the gate.
	h.m.Update(countryPickedMsg{side: sideBuy, country: "GB"})
	h.frame(10 * time.Millisecond)
	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups = %d, want exactly 2", got)
	}
	if got := h.jobs[1].Pair(); got != (pipeline.Pair{Sell: "AUD", Buy: "GBP"}) {
		t.Fatalf("lookup pair = %v, want AUD/GBP", got)
	}
}

func TestRefresh_SameCountryIsNotAChange(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()

	h.m.Update(countryPickedMsg{side: sideSell, country: "AU"})
	if got := len(h.jobs); got != 1 {
		t.Fatalf("lookups = %d, want 1", got)
	}

	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups after swap = %d, want 2", got)
	}
	if got := h.jobs[1].Pair(); got != (pipeline.Pair{Sell: "USD", Buy: "AUD"}) {
		t.Fatalf("swapped pair = %v", got)
	}
}

func TestClose_NothingAppliedAfterTeardown(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 9.99})
	h.m.Init()
	inFlight := h.jobs[0]

	h.m.Close()
	h.m.Update(rateFetchedMsg{outcome: inFlight.Run(context.Background())})
	h.m.Update(cooldownDoneMsg{})

	if r := h.m.pipeline.State().Rate; r == nil || *r != 0.7456 {
		t.Fatalf("rate after teardown = %v, want seed 0.7456", r)
	}
	if got := h.pendingFrames(); got != 0 {
		t.Fatalf("pending frames after teardown = %d, want 0", got)
	}
	for i := 0; i < 5; i++ {
		h.m.Update(frameMsg{id: i, at: h.now.Add(time.Duration(i) * time.Second)})
	}
	if got := h.m.Progress(); got != 0 {
		t.Fatalf("progress after teardown = %v, want 0", got)
	}
}

func TestClose_StopsRunningClock(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()
	h.frame(10 * time.Millisecond)
	h.frame(10 * time.Millisecond)
	before := h.m.Progress()
	live := h.m.frames.nextID - 1

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	h.m.Update(frameMsg{id: live, at: h.now.Add(time.Minute)})
	h.frame(time.Minute)
	if got := h.m.Progress(); got != before {
		t.Fatalf("progress changed after quit: %v -> %v", before, got)
	}
}

func typeText(m *RatesModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestAmountInput_RecomputesConversion(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()

	typeText(h.m, "100")
	st := h.m.pipeline.State()
	if st.Amount != "100" {
		t.Fatalf("amount = %q, want 100", st.Amount)
	}
	if !st.Result.Complete() || *st.Result.True != "64.50" || *st.Result.MarkedUp != "64.18" {
		t.Fatalf("result = %+v, want 64.50 / 64.18", st.Result)
	}

	view := h.m.View()
	for _, want := range []string{"64.50 USD", "64.18 USD", "(0.5% Markup)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}

	typeText(h.m, "x")
	if h.m.pipeline.State().Result.Complete() {
		t.Fatal("unparseable amount should clear results")
	}
}

func TestFailedLookup_ShowsErrorAndClearsAmount(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{err: &rates.BusinessError{StatusCode: 400, Detail: "X"}}
	h := newHarness(t, f)
	h.m.Init()
	typeText(h.m, "42")
	h.finishLookup()

	st := h.m.pipeline.State()
	if st.Err != "X" || st.Rate != nil {
		t.Fatalf("state after failure = err %q rate %v", st.Err, st.Rate)
	}
	if got := h.m.amountInput.Value(); got != "" {
		t.Fatalf("amount input = %q, want cleared", got)
	}
	if view := h.m.View(); !strings.Contains(view, "Error: X") {
		t.Fatal("view missing error banner")
	}
}

func TestPicker_SelectsBuyCountry(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()

	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	picker, ok := h.m.TopModal().(*PickerModal)
	if !ok {
		t.Fatalf("top modal = %T, want *PickerModal", h.m.TopModal())
	}
	typeText(h.m, "gbp")
	c, ok := picker.selected()
	if !ok || c.Code != "GB" {
		t.Fatalf("selected = %+v, want GB", c)
	}

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if h.m.HasModal() {
		t.Fatal("picker should close on enter")
	}
	msg := findMsg[countryPickedMsg](cmd)
	if msg == nil {
		t.Fatal("enter did not emit a selection")
	}
	h.m.Update(*msg)

	if got := h.m.pipeline.Pair(); got.Buy != "GBP" {
		t.Fatalf("buy currency = %s, want GBP", got.Buy)
	}
	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups = %d, want 2", got)
	}
}

func TestPicker_EscapeKeepsSelection(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if !h.m.HasModal() {
		t.Fatal("expected picker")
	}
	h.m.Update(tea.KeyMsg{Type: tea.KeyDown})
	h.m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if h.m.HasModal() {
		t.Fatal("esc should close picker")
	}
	if got := h.m.pipeline.State().SellCountry; got != "AU" {
		t.Fatalf("sell country = %s, want AU", got)
	}
}

// findMsg runs cmd (following batches) and returns the first message of type T.
// Only non-blocking commands are expected here.
func findMsg[T any](cmd tea.Cmd) *T {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case T:
		return &msg
	case tea.BatchMsg:
		for _, c := range msg {
			if found := findMsg[T](c); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestManualRefresh_RestartsCycle(t *testing.T) {
	t.Parallel()

	h := newHarness(t, &stubFetcher{rate: 0.645})
	h.m.Init()
	h.finishLookup()
	for i := 0; i < 4; i++ {
		h.frame(10 * time.Millisecond)
	}
	if h.m.Progress() == 0 {
		t.Fatal("expected progress before manual refresh")
	}

	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups = %d, want 2", got)
	}
	if got := h.m.Progress(); got != 0 {
		t.Fatalf("progress after manual refresh = %v, want 0", got)
	}

	// Dropped by the gate: progress is left alone.
	h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if got := len(h.jobs); got != 2 {
		t.Fatalf("lookups = %d, want 2", got)
	}
}
