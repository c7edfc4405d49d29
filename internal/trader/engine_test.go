package trader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obsidian/internal/gateway/exchange"
	"obsidian/internal/logger"
	"obsidian/internal/market"
	"obsidian/internal/store/tradelog"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeExchange struct {
	balance     exchange.Balance
	balanceErr  error
	spec        exchange.ContractSpec
	specErr     error
	leverages   []int
	leverageErr error
	position    exchange.PositionState
	positionErr error
	price       float64
	priceErr    error

	submitted   []exchange.OrderRequest
	submitErr   error
	nextOrderID int

	status      exchange.OrderStatus
	statusErr   error
	statusCalls int

	cancelled []string
	cancelRes exchange.CancelResult
	cancelErr error

	cancelAllCalls int
	cancelAllErr   error

	triggers   []exchange.TriggerOrderRequest
	triggerErr error
}

func (f *fakeExchange) Name() string { return "fake" }

func (f *fakeExchange) Balance(context.Context) (exchange.Balance, error) {
	return f.balance, f.balanceErr
}

func (f *fakeExchange) Contract(context.Context, string) (exchange.ContractSpec, error) {
	return f.spec, f.specErr
}

func (f *fakeExchange) SetLeverage(_ context.Context, _ string, leverage int) error {
	if f.leverageErr != nil {
		return f.leverageErr
	}
	f.leverages = append(f.leverages, leverage)
	return nil
}

func (f *fakeExchange) Position(context.Context, string) (exchange.PositionState, error) {
	return f.position, f.positionErr
}

func (f *fakeExchange) SubmitOrder(_ context.Context, req exchange.OrderRequest) (exchange.OrderRef, error) {
	if f.submitErr != nil {
		return exchange.OrderRef{}, f.submitErr
	}
	f.submitted = append(f.submitted, req)
	f.nextOrderID++
	return exchange.OrderRef{ID: fmt.Sprintf("%d", f.nextOrderID)}, nil
}

func (f *fakeExchange) OrderStatus(context.Context, string) (exchange.OrderStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeExchange) CancelOrder(_ context.Context, orderID string) (exchange.CancelResult, error) {
	if f.cancelErr != nil {
		return exchange.CancelResult{}, f.cancelErr
	}
	f.cancelled = append(f.cancelled, orderID)
	return f.cancelRes, nil
}

func (f *fakeExchange) CancelAllOrders(context.Context, string) error {
	if f.cancelAllErr != nil {
		return f.cancelAllErr
	}
	f.cancelAllCalls++
	return nil
}

func (f *fakeExchange) SubmitTriggerOrder(_ context.Context, req exchange.TriggerOrderRequest) error {
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggers = append(f.triggers, req)
	return nil
}

func (f *fakeExchange) LastPrice(context.Context, string) (float64, error) {
	return f.price, f.priceErr
}

type fakeSource struct {
	series map[string]market.Candles
	err    error
}

func (s *fakeSource) FetchHistory(_ context.Context, _, interval string, _ int) (market.Candles, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.series[interval], nil
}

type fakeRecorder struct {
	rows []*tradelog.TradeModel
	err  error
}

func (r *fakeRecorder) Insert(_ context.Context, trade *tradelog.TradeModel) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, trade)
	return nil
}

// breakoutSeries closes the last bar above a 105 swing high with a bearish
// order block just before it: bullish setup, entry 100.5, stop 99.
func breakoutSeries() market.Candles {
	cs := make(market.Candles, 25)
	for i := range cs {
		cs[i] = market.Candle{
			OpenTime: int64(i) * 180,
			Open:     100, High: 102, Low: 99.5, Close: 101,
		}
	}
	cs[22].High = 105
	cs[23] = market.Candle{OpenTime: 23 * 180, Open: 103, High: 104, Low: 99, Close: 100}
	cs[24] = market.Candle{OpenTime: 24 * 180, Open: 104, High: 107.5, Low: 103, Close: 107}
	return cs
}

// structureSeries builds a higher-timeframe series with two rising (or two
// falling) swings on both highs and lows.
func structureSeries(up bool) market.Candles {
	mids := []float64{
		100, 102, 104, 106, 108, 110,
		108, 106, 104, 102, 100,
		103, 106, 109, 112, 115,
		113, 111, 109, 107, 105,
		107, 109, 111,
	}
	cs := make(market.Candles, len(mids))
	for i, m := range mids {
		if !up {
			m = 220 - m
		}
		cs[i] = market.Candle{
			OpenTime: int64(i) * 900,
			Open:     m - 0.5, High: m + 1, Low: m - 1, Close: m + 0.5,
		}
	}
	return cs
}

type engineFixture struct {
	engine *Engine
	ex     *fakeExchange
	md     *fakeSource
	clock  *fakeClock
	trades *fakeRecorder
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	ex := &fakeExchange{
		balance: exchange.Balance{Total: 1000},
		spec: exchange.ContractSpec{
			Contract:         "ETH_USDT",
			PriceIncrement:   0.01,
			QuantoMultiplier: 0.01,
		},
		price: 100.5,
	}
	md := &fakeSource{series: map[string]market.Candles{
		"3m":  breakoutSeries(),
		"15m": structureSeries(true),
	}}
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	trades := &fakeRecorder{}
	sizer := NewSizer(SizerConfig{BaseRiskUSD: 10, InitialCapital: 80})
	cfg := Config{
		Contract:         "ETH_USDT",
		Timeframe:        "3m",
		TrendTimeframe:   "15m",
		SwingLookback:    20,
		HTFSwingLookback: 20,
		OBEntryLevel:     0.7,
		RRRatio:          10,
		Leverage:         10,
		CandlePadding:    5,
		BreachTimeout:    3 * time.Second,
	}
	engine := NewEngine(cfg, ex, md, sizer, clock, trades, "test-run")
	require.NoError(t, engine.Bootstrap(context.Background()))
	return &engineFixture{engine: engine, ex: ex, md: md, clock: clock, trades: trades}
}

// enterPosition drives the fixture from flat to an open long with its bracket
// placed: entry submitted, fill observed, TP and stop legs resting.
func (fx *engineFixture) enterPosition(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx)) // places the entry
	require.Len(t, fx.ex.submitted, 1)

	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeFilled, FillPrice: 100.4}
	require.NoError(t, fx.engine.Step(ctx)) // fill seen, bracket placed
	require.Len(t, fx.ex.submitted, 2)
	require.Len(t, fx.ex.triggers, 1)

	fx.ex.position = exchange.PositionState{Found: true, Size: 99, EntryPrice: 100.4}
}

func TestBootstrapFailsWithoutCredentials(t *testing.T) {
	ex := &fakeExchange{balanceErr: errors.New("invalid key")}
	engine := NewEngine(Config{Contract: "ETH_USDT", Leverage: 10}, ex, &fakeSource{}, NewSizer(SizerConfig{BaseRiskUSD: 1}), &fakeClock{}, nil, "run")

	err := engine.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential")
}

func TestBootstrapSetsLeverage(t *testing.T) {
	fx := newFixture(t)
	assert.Equal(t, []int{10}, fx.ex.leverages)
}

func TestStepPlacesEntryOnMatchingTrend(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.engine.Step(context.Background()))

	require.Len(t, fx.ex.submitted, 1)
	order := fx.ex.submitted[0]
	assert.Equal(t, "ETH_USDT", order.Contract)
	assert.Equal(t, int64(99), order.Size) // 10 USD x 10x / 100.5 / 0.01, floored
	assert.InDelta(t, 100.5, order.Price, 1e-9)
	assert.False(t, order.ReduceOnly)
	assert.Equal(t, fmt.Sprintf("t-%d", fx.clock.now.UnixMilli()), order.ClientTag)
}

func TestStepIgnoresSetupAgainstTrend(t *testing.T) {
	fx := newFixture(t)
	fx.md.series["15m"] = structureSeries(false) // bullish setup, falling structure

	require.NoError(t, fx.engine.Step(context.Background()))
	assert.Empty(t, fx.ex.submitted)
}

func TestStepSkipsCycleOnFetchFailure(t *testing.T) {
	fx := newFixture(t)
	fx.md.err = errors.New("gateway timeout")

	require.NoError(t, fx.engine.Step(context.Background()))
	assert.Empty(t, fx.ex.submitted)
}

func TestStepSkipsCycleOnPositionFailure(t *testing.T) {
	fx := newFixture(t)
	fx.ex.positionErr = errors.New("gateway timeout")

	require.NoError(t, fx.engine.Step(context.Background()))
	assert.Empty(t, fx.ex.submitted)
}

func TestPendingKeptWhileSetupUnchanged(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.ex.status = exchange.OrderStatus{Open: true}
	require.NoError(t, fx.engine.Step(ctx))
	require.NoError(t, fx.engine.Step(ctx))

	assert.Len(t, fx.ex.submitted, 1)
	assert.Empty(t, fx.ex.cancelled)
	assert.Equal(t, 2, fx.ex.statusCalls)
}

func TestPendingReplacedByDifferentSetup(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	require.Len(t, fx.ex.submitted, 1)

	// deepen the order block: new entry 99.8, stop 98
	series := breakoutSeries()
	series[23].Low = 98
	fx.md.series["3m"] = series

	require.NoError(t, fx.engine.Step(ctx))

	require.Len(t, fx.ex.cancelled, 1)
	assert.Equal(t, "1", fx.ex.cancelled[0])
	require.Len(t, fx.ex.submitted, 2)
	assert.InDelta(t, 99.8, fx.ex.submitted[1].Price, 1e-9)
}

func TestPendingReplaceProceedsWhenOrderAlreadyGone(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	series := breakoutSeries()
	series[23].Low = 98
	fx.md.series["3m"] = series
	fx.ex.cancelRes = exchange.CancelResult{NotFound: true}

	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 2)
}

func TestPendingReplaceAbortsWhenCancelFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	series := breakoutSeries()
	series[23].Low = 98
	fx.md.series["3m"] = series
	fx.ex.cancelErr = errors.New("gateway timeout")

	require.NoError(t, fx.engine.Step(ctx))

	// old order assumed live, no replacement placed
	assert.Len(t, fx.ex.submitted, 1)

	// once the cancel goes through, the replacement follows
	fx.ex.cancelErr = nil
	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 2)
}

func TestPendingClearedWhenCancelledExternally(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeNotFound}
	require.NoError(t, fx.engine.Step(ctx))

	// pending forgotten, next cycle places a fresh order
	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 2)
	assert.Empty(t, fx.ex.cancelled)
}

func TestFillPlacesBracket(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeFilled, FillPrice: 100.4}
	require.NoError(t, fx.engine.Step(ctx))

	require.Len(t, fx.ex.submitted, 2)
	tp := fx.ex.submitted[1]
	assert.Equal(t, int64(-99), tp.Size)
	assert.InDelta(t, 115.5, tp.Price, 1e-9) // 100.5 + 1.5 * 10
	assert.True(t, tp.ReduceOnly)

	require.Len(t, fx.ex.triggers, 1)
	sl := fx.ex.triggers[0]
	assert.InDelta(t, 99, sl.TriggerPrice, 1e-9)
	assert.Equal(t, exchange.TriggerAtOrBelow, sl.Direction)
	assert.Equal(t, int64(-99), sl.Order.Size)
	assert.True(t, sl.Order.ReduceOnly)
}

func TestFillLogReportsPendingAge(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.clock.Advance(12 * time.Second)
	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeFilled, FillPrice: 100.4}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stdout)
	require.NoError(t, fx.engine.Step(ctx))

	assert.Contains(t, buf.String(), "after 12s")
}

func TestBracketStopLegFailureCancelsAll(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeFilled, FillPrice: 100.4}
	fx.ex.triggerErr = errors.New("rejected")

	require.NoError(t, fx.engine.Step(ctx))

	assert.Len(t, fx.ex.submitted, 2) // entry + TP leg
	assert.Empty(t, fx.ex.triggers)
	assert.Equal(t, 1, fx.ex.cancelAllCalls)
}

func TestBracketTakeProfitFailureCancelsAll(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Step(ctx))
	fx.ex.status = exchange.OrderStatus{Outcome: exchange.OutcomeFilled, FillPrice: 100.4}
	fx.ex.submitErr = errors.New("rejected")

	require.NoError(t, fx.engine.Step(ctx))

	assert.Len(t, fx.ex.submitted, 1) // only the entry went through
	assert.Empty(t, fx.ex.triggers)
	assert.Equal(t, 1, fx.ex.cancelAllCalls)
}

func TestWatchdogForcesCloseAfterSustainedBreach(t *testing.T) {
	fx := newFixture(t)
	fx.enterPosition(t)
	ctx := context.Background()

	fx.ex.price = 98.9 // through the stop
	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 2) // armed, no close yet

	fx.clock.Advance(4 * time.Second)
	require.NoError(t, fx.engine.Step(ctx))

	assert.Equal(t, 1, fx.ex.cancelAllCalls)
	require.Len(t, fx.ex.submitted, 3)
	closeOrder := fx.ex.submitted[2]
	assert.Equal(t, int64(-99), closeOrder.Size)
	assert.Zero(t, closeOrder.Price)
	assert.True(t, closeOrder.ReduceOnly)
	assert.Contains(t, closeOrder.ClientTag, "t-fc-")

	// watchdog disarmed after the close; the very next cycle must not fire again
	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 3)
	assert.Equal(t, 1, fx.ex.cancelAllCalls)
}

func TestWatchdogDisarmsWhenPriceRecovers(t *testing.T) {
	fx := newFixture(t)
	fx.enterPosition(t)
	ctx := context.Background()

	fx.ex.price = 98.9
	require.NoError(t, fx.engine.Step(ctx)) // armed

	fx.ex.price = 100.2
	require.NoError(t, fx.engine.Step(ctx)) // disarmed

	fx.ex.price = 98.9
	fx.clock.Advance(4 * time.Second)
	require.NoError(t, fx.engine.Step(ctx)) // re-armed, timer restarted

	assert.Len(t, fx.ex.submitted, 2)
	assert.Zero(t, fx.ex.cancelAllCalls)

	fx.clock.Advance(4 * time.Second)
	require.NoError(t, fx.engine.Step(ctx))
	assert.Len(t, fx.ex.submitted, 3) // now it closes
}

func TestWatchdogArmsOnTargetBreach(t *testing.T) {
	fx := newFixture(t)
	fx.enterPosition(t)
	ctx := context.Background()

	fx.ex.price = 116 // through the target, TP should have filled
	require.NoError(t, fx.engine.Step(ctx))
	fx.clock.Advance(4 * time.Second)
	require.NoError(t, fx.engine.Step(ctx))

	assert.Len(t, fx.ex.submitted, 3)
	assert.Equal(t, int64(-99), fx.ex.submitted[2].Size)
}

func TestClosedPositionRecordedAndStateCleared(t *testing.T) {
	fx := newFixture(t)
	fx.enterPosition(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Step(ctx)) // one cycle in position

	fx.ex.position = exchange.PositionState{Found: true, Size: 0, RealisedPnl: 5.5}
	require.NoError(t, fx.engine.Step(ctx))

	require.Len(t, fx.trades.rows, 1)
	row := fx.trades.rows[0]
	assert.Equal(t, "test-run", row.RunID)
	assert.Equal(t, "long", row.Side)
	assert.Equal(t, int64(99), row.Size)
	assert.InDelta(t, 100.4, row.EntryPrice, 1e-9)
	assert.InDelta(t, 5.5, row.RealisedPnl, 1e-9)

	// plan and pending cleared: the same cycle already sought a fresh setup
	assert.Len(t, fx.ex.submitted, 3)
}
