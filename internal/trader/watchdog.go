package trader

import (
	"context"
	"fmt"
	"time"

	"obsidian/internal/gateway/exchange"
	"obsidian/internal/logger"
)

// watchPosition guards against the exchange-side bracket failing to execute
// after price has crossed the stop or target. A timer arms on first breach,
// disarms if price retreats inside the band, and forces a market close once
// the breach has held for the configured timeout without the position
// shrinking.
func (e *Engine) watchPosition(ctx context.Context, size int64) {
	if e.plan == nil {
		return
	}
	price, err := e.ex.LastPrice(ctx, e.cfg.Contract)
	if err != nil {
		logger.Errorf("last price fetch failed: %v", err)
		return
	}

	stopBreached, targetBreached := e.plan.breached(price)
	if !stopBreached && !targetBreached {
		if !e.breachAt.IsZero() {
			logger.Infof("price %.4f back inside bracket, watchdog disarmed", price)
			e.breachAt = time.Time{}
		}
		return
	}

	if e.breachAt.IsZero() {
		e.breachAt = e.clock.Now()
		which := "stop"
		if targetBreached {
			which = "target"
		}
		logger.Warnf("%s crossed at %.4f with bracket unfilled, watchdog armed", which, price)
		return
	}

	if e.clock.Now().Sub(e.breachAt) > e.cfg.BreachTimeout {
		e.forceClose(ctx, size)
		e.breachAt = time.Time{}
	}
}

// breached reports whether price sits beyond the stop (adverse) or target
// (favorable) side of the bracket.
func (p *TradePlan) breached(price float64) (stop, target bool) {
	if p.Side == Long {
		return price <= p.Stop, price >= p.Target
	}
	return price >= p.Stop, price <= p.Target
}

// forceClose cancels every resting order and offsets the position at market.
func (e *Engine) forceClose(ctx context.Context, size int64) {
	logger.Warnf("bracket unfilled past %s, force-closing position at market", e.cfg.BreachTimeout)
	if err := e.ex.CancelAllOrders(ctx, e.cfg.Contract); err != nil {
		logger.Errorf("cancel-all before force close failed: %v", err)
		return
	}
	_, err := e.ex.SubmitOrder(ctx, exchange.OrderRequest{
		Contract:   e.cfg.Contract,
		Size:       -size,
		Price:      0,
		ReduceOnly: true,
		ClientTag:  fmt.Sprintf("t-fc-%d", e.clock.Now().UnixMilli()),
	})
	if err != nil {
		logger.Errorf("force close order failed: %v", err)
	}
}
