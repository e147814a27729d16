package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tinytelemetry/fxlive/internal/currency"
	"github.com/tinytelemetry/fxlive/internal/rates"
)

type call struct{ sell, buy string }

type fakeFetcher struct {
	rate  float64
	err   error
	calls []call
}

func (f *fakeFetcher) FetchRate(_ context.Context, sell, buy string) (float64, error) {
	f.calls = append(f.calls, call{sell, buy})
	return f.rate, f.err
}

func newTestPipeline(t *testing.T, f *fakeFetcher) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Cooldown = 0
	p, err := New(f, currency.Default(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestNew_SeedsPlaceholderRate(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeFetcher{})
	s := p.State()
	require.NotNil(t, s.Rate)
	assert.Equal(t, 0.7456, *s.Rate)
	assert.Empty(t, s.Err)
	assert.False(t, s.Loading)
	assert.Equal(t, Pair{Sell: "AUD", Buy: "USD"}, s.Pair)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.SellCountry = "XX"
	_, err := New(&fakeFetcher{}, currency.Default(), cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Cooldown = -time.Second
	_, err = New(&fakeFetcher{}, currency.Default(), cfg, nil)
	assert.Error(t, err)
}

func TestRefresh_GateDropsSecondCall(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{rate: 0.65}
	p := newTestPipeline(t, f)

	job, ok := p.Refresh()
	require.True(t, ok)
	assert.True(t, p.Loading())

	_, ok = p.Refresh()
	assert.False(t, ok, "refresh while loading must be dropped")

	p.Resolve(job.Run(context.Background()))
	assert.True(t, p.Loading(), "gate stays closed until the cooldown finishes")
	_, ok = p.Refresh()
	assert.False(t, ok)

	p.Finish()
	assert.False(t, p.Loading())
	assert.Len(t, f.calls, 1)
	assert.Equal(t, call{"AUD", "USD"}, f.calls[0])
}

func TestResolve_SuccessClearsError(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{err: &rates.BusinessError{Detail: "X"}}
	p := newTestPipeline(t, f)
	require.True(t, p.RefreshNow(context.Background()))
	require.Equal(t, "X", p.State().Err)

	f.err = nil
	f.rate = 0.645
	p.SetAmount("100")
	require.True(t, p.RefreshNow(context.Background()))

	s := p.State()
	assert.Empty(t, s.Err)
	require.NotNil(t, s.Rate)
	assert.Equal(t, 0.645, *s.Rate)
	require.True(t, s.Result.Complete())
	assert.Equal(t, "64.50", *s.Result.True)
	assert.Equal(t, "64.18", *s.Result.MarkedUp)
}

func TestResolve_FailureClearsRateAndAmount(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{rate: 0.645}
	p := newTestPipeline(t, f)
	p.SetAmount("100")
	require.True(t, p.State().Result.Complete())

	f.err = &rates.BusinessError{StatusCode: 400, Detail: "X"}
	p.RefreshNow(context.Background())

	s := p.State()
	assert.Equal(t, "X", s.Err)
	assert.Nil(t, s.Rate)
	assert.Empty(t, s.Amount)
	assert.False(t, s.Result.Complete(), "no stale conversion alongside an error")
}

func TestResolve_IgnoredAfterClose(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{rate: 1.5}
	p := newTestPipeline(t, f)

	job, ok := p.Refresh()
	require.True(t, ok)
	out := job.Run(context.Background())

	p.Close()
	p.Resolve(out)
	assert.Equal(t, 0.7456, *p.State().Rate)

	_, ok = p.Refresh()
	assert.False(t, ok)
}

func TestResolve_IgnoresStaleOutcome(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{rate: 2}
	p := newTestPipeline(t, f)

	job, _ := p.Refresh()
	old := job.Run(context.Background())
	p.Resolve(old)
	p.Finish()

	p.Resolve(old)
	assert.False(t, p.Loading())
	assert.Len(t, p.State().History, 1)
}

func TestSelect_ChangesTriggerRefresh(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeFetcher{rate: 1})

	assert.False(t, p.SelectSell("AU"), "same country is not a change")
	assert.False(t, p.SelectSell("XX"), "unknown country is ignored")
	assert.False(t, p.SelectBuy(""))

	assert.True(t, p.SelectBuy("gb"))
	assert.Equal(t, Pair{Sell: "AUD", Buy: "GBP"}, p.Pair())

	// Round trip back to the previous pair still counts as a change.
	assert.True(t, p.SelectBuy("US"))
	assert.Equal(t, Pair{Sell: "AUD", Buy: "USD"}, p.Pair())
}

func TestSwap(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeFetcher{rate: 1})
	require.True(t, p.Swap())
	s := p.State()
	assert.Equal(t, "US", s.SellCountry)
	assert.Equal(t, "AU", s.BuyCountry)
	assert.Equal(t, Pair{Sell: "USD", Buy: "AUD"}, s.Pair)
}

func TestSetAmount_Unparseable(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeFetcher{})
	p.SetAmount("100")
	require.True(t, p.State().Result.Complete())

	p.SetAmount("abc")
	s := p.State()
	assert.False(t, s.Result.Complete())
	assert.Nil(t, s.Result.True)
	assert.Empty(t, s.Err, "parse errors are not surfaced")
}

func TestRefreshNow_WaitsForCooldown(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Cooldown = 30 * time.Millisecond
	p, err := New(&fakeFetcher{rate: 1}, currency.Default(), cfg, nil)
	require.NoError(t, err)

	start := time.Now()
	require.True(t, p.RefreshNow(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, p.Loading())
}

func TestHistory_BoundedAndResetOnPairChange(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	cfg := DefaultConfig()
	cfg.Cooldown = 0
	cfg.HistorySize = 3
	p, err := New(f, currency.Default(), cfg, nil)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		f.rate = float64(i)
		p.RefreshNow(context.Background())
	}
	assert.Equal(t, []float64{3, 4, 5}, p.State().History)

	p.SelectSell("NZ")
	assert.Empty(t, p.State().History)
}
