package trader

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"obsidian/internal/gateway/exchange"
	"obsidian/internal/logger"
	"obsidian/internal/market"
	"obsidian/internal/store/tradelog"
	"obsidian/internal/strategy"

	"golang.org/x/sync/errgroup"
)

// Config carries the engine's trading parameters.
type Config struct {
	Contract         string
	Timeframe        string
	TrendTimeframe   string
	SwingLookback    int
	HTFSwingLookback int
	OBEntryLevel     float64
	RRRatio          float64
	Leverage         int
	CandlePadding    int
	BreachTimeout    time.Duration
}

// TradeRecorder receives one record per closed trade.
type TradeRecorder interface {
	Insert(ctx context.Context, trade *tradelog.TradeModel) error
}

// Engine is the order-lifecycle state machine. One Step per poll cycle:
// refresh position, then either run the breach watchdog (in position) or
// search for a setup and manage the entry order (flat). All state lives on
// the engine and is re-derived from the exchange each cycle; nothing
// survives a restart.
type Engine struct {
	cfg    Config
	ex     exchange.Exchange
	md     market.Source
	clock  Clock
	sizer  *Sizer
	trades TradeRecorder
	runID  string

	spec             exchange.ContractSpec
	pending          *PendingOrder
	plan             *TradePlan
	lastPositionSize int64
	breachAt         time.Time // zero while disarmed
}

func NewEngine(cfg Config, ex exchange.Exchange, md market.Source, sizer *Sizer, clock Clock, trades TradeRecorder, runID string) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		cfg:    cfg,
		ex:     ex,
		md:     md,
		clock:  clock,
		sizer:  sizer,
		trades: trades,
		runID:  runID,
	}
}

// Bootstrap runs the pre-flight checks: credentials, contract metadata, and
// leverage. Any failure here aborts startup.
func (e *Engine) Bootstrap(ctx context.Context) error {
	logger.Infof("pre-flight: validating API credentials")
	bal, err := e.ex.Balance(ctx)
	if err != nil {
		return fmt.Errorf("pre-flight credential check: %w", err)
	}
	logger.Infof("pre-flight: account balance %.4f", bal.Total)

	spec, err := e.ex.Contract(ctx, e.cfg.Contract)
	if err != nil {
		return fmt.Errorf("pre-flight contract metadata: %w", err)
	}
	e.spec = spec
	logger.Infof("pre-flight: %s price_increment=%v multiplier=%v",
		spec.Contract, spec.PriceIncrement, spec.QuantoMultiplier)

	if err := e.ex.SetLeverage(ctx, e.cfg.Contract, e.cfg.Leverage); err != nil {
		return fmt.Errorf("pre-flight leverage: %w", err)
	}
	logger.Infof("pre-flight: leverage set to %dx", e.cfg.Leverage)
	return nil
}

// Step performs one full decision cycle. Gateway failures are logged and
// abort the cycle without touching engine state; only unexpected internal
// failures propagate to the loop's backoff.
func (e *Engine) Step(ctx context.Context) error {
	pos, err := e.ex.Position(ctx, e.cfg.Contract)
	if err != nil {
		logger.Errorf("position refresh failed: %v", err)
		return nil
	}
	size := int64(0)
	if pos.Found {
		size = pos.Size
	}

	if size == 0 && e.lastPositionSize != 0 {
		e.handleClosedPosition(ctx, pos)
	}
	e.lastPositionSize = size

	if size != 0 {
		e.watchPosition(ctx, size)
		return nil
	}
	e.seek(ctx)
	return nil
}

func (e *Engine) seek(ctx context.Context) {
	working, higher, ok := e.fetchSeries(ctx)
	if !ok {
		return
	}

	trend := strategy.ClassifyTrend(higher)
	setup := strategy.FindSetup(working, strategy.SetupParams{
		SwingLookback: e.cfg.SwingLookback,
		OBEntryLevel:  e.cfg.OBEntryLevel,
	})

	switch {
	case e.pending != nil:
		if setup != nil && !setup.Equal(&e.pending.Setup) {
			logger.Infof("new setup found, replacing pending order %s", e.pending.ID)
			if e.cancelPending(ctx) {
				e.evaluateAndPlace(ctx, setup, trend, working)
			}
		} else {
			e.checkPendingOrder(ctx)
		}
	case setup != nil:
		e.evaluateAndPlace(ctx, setup, trend, working)
	default:
		logger.Debugf("trend %s, no qualifying setup", trend)
	}
}

// fetchSeries pulls the working and higher-timeframe candles concurrently;
// both must arrive before any decision is made.
func (e *Engine) fetchSeries(ctx context.Context) (working, higher market.Candles, ok bool) {
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		working, err = e.md.FetchHistory(gctx, e.cfg.Contract, e.cfg.Timeframe, e.cfg.SwingLookback+e.cfg.CandlePadding)
		return err
	})
	group.Go(func() error {
		var err error
		higher, err = e.md.FetchHistory(gctx, e.cfg.Contract, e.cfg.TrendTimeframe, e.cfg.HTFSwingLookback+e.cfg.CandlePadding)
		return err
	})
	if err := group.Wait(); err != nil {
		logger.Errorf("candle fetch failed: %v", err)
		return nil, nil, false
	}
	if len(working) == 0 || len(higher) == 0 {
		logger.Warnf("exchange returned empty candle series, skipping cycle")
		return nil, nil, false
	}
	return working, higher, true
}

func (e *Engine) evaluateAndPlace(ctx context.Context, setup *strategy.Setup, trend strategy.TrendLabel, working market.Candles) {
	riskDist := math.Abs(setup.Entry - setup.Stop)
	if riskDist <= 0 {
		return
	}
	if !directionMatches(setup.Direction, trend) {
		logger.Infof("%s setup ignored, trend is %s", setup.Direction, trend)
		return
	}

	risk, compounded := e.sizer.RiskBudget()
	qty := e.sizer.Quantity(risk, e.cfg.Leverage, setup.Entry, e.spec.QuantoMultiplier)
	if qty == 0 {
		logger.Warnf("risk budget %.4f USD buys no contracts at %.4f, skipping", risk, setup.Entry)
		return
	}

	size := qty
	side := Long
	target := setup.Entry + riskDist*e.cfg.RRRatio
	if setup.Direction == strategy.Bearish {
		size = -qty
		side = Short
		target = setup.Entry - riskDist*e.cfg.RRRatio
	}

	tag := fmt.Sprintf("t-%d", e.clock.Now().UnixMilli())
	ref, err := e.ex.SubmitOrder(ctx, exchange.OrderRequest{
		Contract:  e.cfg.Contract,
		Size:      size,
		Price:     setup.Entry,
		ClientTag: tag,
	})
	if err != nil {
		logger.Errorf("entry order submission failed: %v", err)
		return
	}

	e.pending = &PendingOrder{
		ID:          ref.ID,
		Size:        size,
		Price:       setup.Entry,
		SubmittedAt: e.clock.Now(),
		Setup:       *setup,
	}
	e.plan = &TradePlan{
		Side:       side,
		Size:       qty,
		Entry:      setup.Entry,
		Stop:       setup.Stop,
		Target:     target,
		RiskUSD:    risk,
		Compounded: compounded,
		Indicators: strategy.Indicators(working),
	}
	logger.Infof("%s entry submitted id=%s size=%d entry=%.4f stop=%.4f target=%.4f risk=%.4f [%s]",
		side, ref.ID, size, setup.Entry, setup.Stop, target, risk, e.plan.Indicators)
}

// cancelPending cancels the live entry order. Returns true when the order is
// confirmed gone (cancelled or already absent), false when the cancel itself
// failed and the order must be assumed live.
func (e *Engine) cancelPending(ctx context.Context) bool {
	if e.pending == nil {
		return false
	}
	res, err := e.ex.CancelOrder(ctx, e.pending.ID)
	if err != nil {
		logger.Errorf("cancel of order %s failed, keeping it: %v", e.pending.ID, err)
		return false
	}
	if res.NotFound {
		logger.Warnf("order %s already gone on exchange", e.pending.ID)
	} else {
		logger.Infof("order %s cancelled", e.pending.ID)
	}
	e.pending = nil
	e.plan = nil
	return true
}

func (e *Engine) checkPendingOrder(ctx context.Context) {
	st, err := e.ex.OrderStatus(ctx, e.pending.ID)
	if err != nil {
		logger.Errorf("order %s status check failed: %v", e.pending.ID, err)
		return
	}
	if st.Open {
		return
	}

	switch st.Outcome {
	case exchange.OutcomeFilled:
		logger.Infof("entry order %s filled at %.4f after %s, %s position open",
			e.pending.ID, st.FillPrice, e.clock.Now().Sub(e.pending.SubmittedAt), e.plan.Side)
		e.plan.Entry = st.FillPrice
		e.pending = nil
		if err := e.placeBracket(ctx); err != nil {
			logger.Errorf("bracket placement failed, position is unprotected: %v", err)
		}
	case exchange.OutcomeNotFound:
		logger.Warnf("order %s not found on exchange, treating as user-cancelled", e.pending.ID)
		e.pending = nil
		e.plan = nil
	default:
		logger.Infof("entry order %s finished without fill: %s", e.pending.ID, st.Outcome)
		e.pending = nil
		e.plan = nil
	}
}

// placeBracket submits the take-profit limit and the stop trigger as one
// logical unit. If either leg fails, every resting order on the contract is
// cancelled so the position is never left with a single naked leg, and the
// error surfaces for a human; there is no automatic retry.
func (e *Engine) placeBracket(ctx context.Context) error {
	closeSize := -e.plan.SignedSize()

	_, err := e.ex.SubmitOrder(ctx, exchange.OrderRequest{
		Contract:   e.cfg.Contract,
		Size:       closeSize,
		Price:      e.plan.Target,
		ReduceOnly: true,
		ClientTag:  "t-tp",
	})
	if err != nil {
		e.cancelAllDefensively(ctx)
		return fmt.Errorf("take-profit leg: %w", err)
	}
	logger.Infof("take-profit leg placed: close %d @ %.4f", closeSize, e.plan.Target)

	direction := exchange.TriggerAtOrBelow
	if e.plan.Side == Short {
		direction = exchange.TriggerAtOrAbove
	}
	err = e.ex.SubmitTriggerOrder(ctx, exchange.TriggerOrderRequest{
		TriggerPrice: e.plan.Stop,
		Direction:    direction,
		Order: exchange.OrderRequest{
			Contract:   e.cfg.Contract,
			Size:       closeSize,
			Price:      e.plan.Stop,
			ReduceOnly: true,
			ClientTag:  "t-sl",
		},
	})
	if err != nil {
		e.cancelAllDefensively(ctx)
		return fmt.Errorf("stop leg: %w", err)
	}
	logger.Infof("stop leg armed: trigger @ %.4f", e.plan.Stop)
	return nil
}

func (e *Engine) cancelAllDefensively(ctx context.Context) {
	if err := e.ex.CancelAllOrders(ctx, e.cfg.Contract); err != nil {
		logger.Errorf("defensive cancel-all failed, manual intervention required: %v", err)
	} else {
		logger.Warnf("bracket leg failed, all resting orders on %s cancelled", e.cfg.Contract)
	}
}

// handleClosedPosition records the trade and feeds the compounding policy.
// Called once per transition to zero size; pos carries the exchange's last
// view of the position, when available.
func (e *Engine) handleClosedPosition(ctx context.Context, pos exchange.PositionState) {
	e.breachAt = time.Time{}
	plan := e.plan
	e.plan = nil
	e.pending = nil

	realised := pos.RealisedPnl
	closedSize := e.lastPositionSize
	if closedSize < 0 {
		closedSize = -closedSize
	}

	side := "unknown"
	entry := 0.0
	if plan != nil {
		side = plan.Side.String()
		entry = plan.Entry
	}
	logger.Infof("position closed side=%s size=%d entry=%.4f pnl=%.4f", side, closedSize, entry, realised)

	if e.trades != nil && plan != nil {
		detail, _ := json.Marshal(map[string]any{
			"stop":       plan.Stop,
			"target":     plan.Target,
			"risk_usd":   plan.RiskUSD,
			"compounded": plan.Compounded,
			"indicators": plan.Indicators,
		})
		record := &tradelog.TradeModel{
			RunID:       e.runID,
			Contract:    e.cfg.Contract,
			Side:        side,
			Size:        closedSize,
			EntryPrice:  entry,
			RealisedPnl: realised,
			RiskUSD:     plan.RiskUSD,
			Compounded:  plan.Compounded,
			ClosedAt:    e.clock.Now().Unix(),
			Detail:      detail,
		}
		if err := e.trades.Insert(ctx, record); err != nil {
			logger.Errorf("trade log write failed: %v", err)
		}
	}

	bal, err := e.ex.Balance(ctx)
	if err != nil {
		logger.Errorf("balance refresh failed, compounding state unchanged: %v", err)
		return
	}
	e.sizer.OnPositionClose(realised, bal.Total)
}

func directionMatches(dir strategy.Direction, trend strategy.TrendLabel) bool {
	switch dir {
	case strategy.Bullish:
		return trend == strategy.TrendUp
	case strategy.Bearish:
		return trend == strategy.TrendDown
	default:
		return false
	}
}
