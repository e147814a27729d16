// Package pipeline owns the rate state shared by the refresh scheduler and
// the conversion display. It is not safe for concurrent use: every method
// is meant to be called from the single UI loop, with only Job.Run executed
// elsewhere.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tinytelemetry/fxlive/internal/conversion"
	"github.com/tinytelemetry/fxlive/internal/currency"
	"github.com/tinytelemetry/fxlive/internal/model"
	"github.com/tinytelemetry/fxlive/internal/rates"
)

// Config holds the construction-time constants of the pipeline.
type Config struct {
	Markup      decimal.Decimal
	Cooldown    time.Duration
	SeedRate    float64 // placeholder shown before the first lookup; <= 0 for none
	SellCountry string
	BuyCountry  string
	HistorySize int
}

// DefaultConfig mirrors the defaults in internal/model.
func DefaultConfig() Config {
	return Config{
		Markup:      decimal.NewFromFloat(model.DefaultMarkup),
		Cooldown:    model.DefaultCooldown,
		SeedRate:    model.DefaultSeedRate,
		SellCountry: model.DefaultSellCountry,
		BuyCountry:  model.DefaultBuyCountry,
		HistorySize: model.DefaultHistorySize,
	}
}

// Pair is a sell/buy currency code pair.
type Pair struct {
	Sell string
	Buy  string
}

func (p Pair) String() string { return p.Sell + "/" + p.Buy }

// State is a read-only snapshot for rendering.
type State struct {
	SellCountry string
	BuyCountry  string
	Pair        Pair
	Rate        *float64
	Err         string
	Loading     bool
	Amount      string
	Result      conversion.Result
	History     []float64
}

// Pipeline gates refreshes and applies their outcomes.
type Pipeline struct {
	fetcher rates.Fetcher
	table   *currency.Table
	cfg     Config
	logger  *zap.Logger

	sellCountry string
	buyCountry  string

	rate    *float64
	err     string
	loading bool
	amount  string
	result  conversion.Result
	history *History

	seq    uint64
	closed bool
}

// New creates a pipeline for the configured starting pair.
func New(fetcher rates.Fetcher, table *currency.Table, cfg Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Markup.IsNegative() || cfg.Markup.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("markup must be in [0,1), got %s", cfg.Markup)
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("cooldown must not be negative, got %s", cfg.Cooldown)
	}

	sell := strings.ToUpper(cfg.SellCountry)
	buy := strings.ToUpper(cfg.BuyCountry)
	if _, ok := table.Currency(sell); !ok {
		return nil, fmt.Errorf("unknown sell country %q", cfg.SellCountry)
	}
	if _, ok := table.Currency(buy); !ok {
		return nil, fmt.Errorf("unknown buy country %q", cfg.BuyCountry)
	}

	p := &Pipeline{
		fetcher:     fetcher,
		table:       table,
		cfg:         cfg,
		logger:      logger,
		sellCountry: sell,
		buyCountry:  buy,
		history:     NewHistory(cfg.HistorySize),
	}
	if cfg.SeedRate > 0 {
		seed := cfg.SeedRate
		p.rate = &seed
	}
	return p, nil
}

// Job is one outstanding lookup. Run may execute off the UI loop; it does
// not touch pipeline state.
type Job struct {
	pair    Pair
	seq     uint64
	fetcher rates.Fetcher
}

// Pair returns the pair being looked up.
func (j Job) Pair() Pair { return j.pair }

// Outcome is the result of Job.Run, applied with Resolve.
type Outcome struct {
	Pair Pair
	Rate float64
	Err  error
	seq  uint64
}

// Run performs the remote lookup.
func (j Job) Run(ctx context.Context) Outcome {
	rate, err := j.fetcher.FetchRate(ctx, j.pair.Sell, j.pair.Buy)
	return Outcome{Pair: j.pair, Rate: rate, Err: err, seq: j.seq}
}

// Refresh starts a lookup for the current pair. It returns false, and does
// nothing, while another refresh is outstanding.
func (p *Pipeline) Refresh() (Job, bool) {
	if p.closed {
		return Job{}, false
	}
	if p.loading {
		p.logger.Debug("refresh dropped: lookup outstanding")
		return Job{}, false
	}
	p.loading = true
	p.seq++
	pair := p.Pair()
	p.logger.Debug("refresh started", zap.Stringer("pair", pair))
	return Job{pair: pair, seq: p.seq, fetcher: p.fetcher}, true
}

// Resolve applies a lookup outcome. Loading stays set until Finish is called
// after the cooldown.
func (p *Pipeline) Resolve(o Outcome) {
	if p.closed || !p.loading || o.seq != p.seq {
		return
	}

	if o.Err != nil {
		p.rate = nil
		p.amount = ""
		p.err = rates.Message(o.Err)
		p.logger.Info("rate refresh failed", zap.Stringer("pair", o.Pair), zap.Error(o.Err))
	} else {
		r := o.Rate
		p.rate = &r
		p.err = ""
		p.history.Push(r)
		p.logger.Debug("rate refreshed", zap.Stringer("pair", o.Pair), zap.Float64("rate", r))
	}
	p.recompute()
}

// Finish releases the gate once the post-lookup cooldown has elapsed.
func (p *Pipeline) Finish() {
	if p.closed {
		return
	}
	p.loading = false
}

// Cooldown is the minimum pause between a lookup resolving and the gate
// opening again.
func (p *Pipeline) Cooldown() time.Duration {
	return p.cfg.Cooldown
}

// Markup returns the fee fraction applied to the marked-up amount.
func (p *Pipeline) Markup() decimal.Decimal {
	return p.cfg.Markup
}

// RefreshNow runs a full refresh synchronously: lookup, apply, cooldown.
// It returns false if a refresh was already outstanding. If ctx ends during
// the cooldown the gate is still released.
func (p *Pipeline) RefreshNow(ctx context.Context) bool {
	job, ok := p.Refresh()
	if !ok {
		return false
	}
	p.Resolve(job.Run(ctx))

	if p.cfg.Cooldown > 0 {
		t := time.NewTimer(p.cfg.Cooldown)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	p.Finish()
	return true
}

// SetAmount stores the entered amount and recomputes the conversion.
func (p *Pipeline) SetAmount(s string) {
	p.amount = s
	p.recompute()
}

// SelectSell changes the sell-side country. It returns true when the
// selection changed, in which case the caller should refresh.
func (p *Pipeline) SelectSell(country string) bool {
	return p.selectCountry(&p.sellCountry, country)
}

// SelectBuy changes the buy-side country. See SelectSell.
func (p *Pipeline) SelectBuy(country string) bool {
	return p.selectCountry(&p.buyCountry, country)
}

func (p *Pipeline) selectCountry(side *string, country string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" || country == *side {
		return false
	}
	if _, ok := p.table.Currency(country); !ok {
		p.logger.Warn("ignoring unknown country", zap.String("country", country))
		return false
	}
	*side = country
	p.history.Reset()
	return true
}

// Swap exchanges the sell and buy countries. It returns true when the
// selection changed.
func (p *Pipeline) Swap() bool {
	if p.sellCountry == p.buyCountry {
		return false
	}
	p.sellCountry, p.buyCountry = p.buyCountry, p.sellCountry
	p.history.Reset()
	return true
}

// Pair returns the currency pair for the selected countries.
func (p *Pipeline) Pair() Pair {
	sell, _ := p.table.Currency(p.sellCountry)
	buy, _ := p.table.Currency(p.buyCountry)
	return Pair{Sell: sell, Buy: buy}
}

// Loading reports whether a refresh is outstanding.
func (p *Pipeline) Loading() bool {
	return p.loading
}

// Close tears the pipeline down. Outcomes arriving afterwards are dropped.
func (p *Pipeline) Close() {
	p.closed = true
}

// State returns a snapshot of the current state.
func (p *Pipeline) State() State {
	s := State{
		SellCountry: p.sellCountry,
		BuyCountry:  p.buyCountry,
		Pair:        p.Pair(),
		Err:         p.err,
		Loading:     p.loading,
		Amount:      p.amount,
		Result:      p.result,
		History:     p.history.Values(),
	}
	if p.rate != nil {
		r := *p.rate
		s.Rate = &r
	}
	return s
}

func (p *Pipeline) recompute() {
	p.result = conversion.Recompute(p.amount, p.rate, p.result, p.cfg.Markup)
}
