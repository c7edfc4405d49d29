package gate

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"obsidian/internal/gateway/exchange"
	"obsidian/internal/logger"
	"obsidian/internal/pkg/convert"

	gateapi "github.com/gateio/gateapi-go/v7"
	"github.com/shopspring/decimal"
)

// priceSteps caches each contract's order_price_round so order prices can be
// quantized without refetching metadata.
type priceSteps struct {
	mu    sync.RWMutex
	steps map[string]decimal.Decimal
}

func (p *priceSteps) get(contract string) (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	step, ok := p.steps[contract]
	return step, ok
}

func (p *priceSteps) set(contract string, step decimal.Decimal) {
	p.mu.Lock()
	if p.steps == nil {
		p.steps = make(map[string]decimal.Decimal)
	}
	p.steps[contract] = step
	p.mu.Unlock()
}

func (g *Gateway) Balance(ctx context.Context) (exchange.Balance, error) {
	var acc gateapi.FuturesAccount
	err := g.call(func() error {
		var callErr error
		acc, _, callErr = g.rest.FuturesApi.ListFuturesAccounts(g.auth(ctx), gateSettle)
		return callErr
	})
	if err != nil {
		return exchange.Balance{}, fmt.Errorf("gate: list accounts: %w", err)
	}
	return exchange.Balance{Total: convert.ToFloat64(acc.Total)}, nil
}

func (g *Gateway) Contract(ctx context.Context, contract string) (exchange.ContractSpec, error) {
	contract = normalizeContract(contract)
	var info gateapi.Contract
	err := g.call(func() error {
		var callErr error
		info, _, callErr = g.rest.FuturesApi.GetFuturesContract(ctx, gateSettle, contract)
		return callErr
	})
	if err != nil {
		return exchange.ContractSpec{}, fmt.Errorf("gate: contract %s: %w", contract, err)
	}

	step, stepErr := decimal.NewFromString(info.OrderPriceRound)
	if stepErr != nil || step.IsZero() {
		return exchange.ContractSpec{}, fmt.Errorf("gate: contract %s has invalid order_price_round %q", contract, info.OrderPriceRound)
	}
	g.steps.set(contract, step)

	multiplier := convert.ToFloat64(info.QuantoMultiplier)
	if multiplier <= 0 {
		multiplier = 1
	}
	return exchange.ContractSpec{
		Contract:         contract,
		PriceIncrement:   step.InexactFloat64(),
		QuantoMultiplier: multiplier,
	}, nil
}

func (g *Gateway) SetLeverage(ctx context.Context, contract string, leverage int) error {
	contract = normalizeContract(contract)
	err := g.call(func() error {
		_, _, callErr := g.rest.FuturesApi.UpdatePositionLeverage(
			g.auth(ctx), gateSettle, contract, strconv.Itoa(leverage), nil)
		return callErr
	})
	if err != nil {
		if isLeverageUnchanged(err) {
			logger.Warnf("[gate] leverage on %s already at %dx", contract, leverage)
			return nil
		}
		return fmt.Errorf("gate: set leverage: %w", err)
	}
	return nil
}

func (g *Gateway) Position(ctx context.Context, contract string) (exchange.PositionState, error) {
	contract = normalizeContract(contract)
	var pos gateapi.Position
	err := g.call(func() error {
		var callErr error
		pos, _, callErr = g.rest.FuturesApi.GetPosition(g.auth(ctx), gateSettle, contract)
		return callErr
	})
	if err != nil {
		if IsNotFound(err) {
			return exchange.PositionState{}, nil
		}
		return exchange.PositionState{}, fmt.Errorf("gate: get position: %w", err)
	}
	return exchange.PositionState{
		Found:       true,
		Size:        pos.Size,
		EntryPrice:  convert.ToFloat64(pos.EntryPrice),
		RealisedPnl: convert.ToFloat64(pos.RealisedPnl),
	}, nil
}

func (g *Gateway) SubmitOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderRef, error) {
	contract := normalizeContract(req.Contract)
	order := gateapi.FuturesOrder{
		Contract:   contract,
		Size:       req.Size,
		Price:      g.formatPrice(contract, req.Price),
		Tif:        "gtc",
		Text:       req.ClientTag,
		ReduceOnly: req.ReduceOnly,
	}
	if req.Price == 0 {
		// Market order: price "0" with immediate-or-cancel per Gate API.
		order.Price = "0"
		order.Tif = "ioc"
	}

	var created gateapi.FuturesOrder
	err := g.call(func() error {
		var callErr error
		created, _, callErr = g.rest.FuturesApi.CreateFuturesOrder(g.auth(ctx), gateSettle, order, nil)
		return callErr
	})
	if err != nil {
		return exchange.OrderRef{}, fmt.Errorf("gate: submit order: %w", err)
	}
	return exchange.OrderRef{ID: strconv.FormatInt(created.Id, 10)}, nil
}

func (g *Gateway) OrderStatus(ctx context.Context, orderID string) (exchange.OrderStatus, error) {
	var order gateapi.FuturesOrder
	err := g.call(func() error {
		var callErr error
		order, _, callErr = g.rest.FuturesApi.GetFuturesOrder(g.auth(ctx), gateSettle, orderID)
		return callErr
	})
	if err != nil {
		if IsNotFound(err) {
			return exchange.OrderStatus{Outcome: exchange.OutcomeNotFound}, nil
		}
		return exchange.OrderStatus{}, fmt.Errorf("gate: get order %s: %w", orderID, err)
	}

	if order.Status != "finished" {
		return exchange.OrderStatus{Open: true}, nil
	}
	st := exchange.OrderStatus{}
	switch order.FinishAs {
	case "filled":
		st.Outcome = exchange.OutcomeFilled
		st.FillPrice = convert.ToFloat64(order.FillPrice)
	case "cancelled", "liquidated", "position_closed", "reduce_only", "stp":
		st.Outcome = exchange.OutcomeCancelled
	case "ioc", "auto_deleveraged":
		st.Outcome = exchange.OutcomeExpired
	default:
		st.Outcome = exchange.OutcomeRejected
	}
	return st, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, orderID string) (exchange.CancelResult, error) {
	err := g.call(func() error {
		_, _, callErr := g.rest.FuturesApi.CancelFuturesOrder(g.auth(ctx), gateSettle, orderID, nil)
		return callErr
	})
	if err != nil {
		if IsNotFound(err) {
			return exchange.CancelResult{NotFound: true}, nil
		}
		return exchange.CancelResult{}, fmt.Errorf("gate: cancel order %s: %w", orderID, err)
	}
	return exchange.CancelResult{}, nil
}

func (g *Gateway) CancelAllOrders(ctx context.Context, contract string) error {
	contract = normalizeContract(contract)
	err := g.call(func() error {
		_, _, callErr := g.rest.FuturesApi.CancelFuturesOrders(g.auth(ctx), gateSettle, contract, nil)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("gate: cancel all orders on %s: %w", contract, err)
	}
	return nil
}

func (g *Gateway) SubmitTriggerOrder(ctx context.Context, req exchange.TriggerOrderRequest) error {
	contract := normalizeContract(req.Order.Contract)
	rule := int32(1)
	if req.Direction == exchange.TriggerAtOrBelow {
		rule = 2
	}
	triggered := gateapi.FuturesPriceTriggeredOrder{
		Initial: gateapi.FuturesInitialOrder{
			Contract:   contract,
			Size:       req.Order.Size,
			Price:      g.formatPrice(contract, req.Order.Price),
			Tif:        "gtc",
			Text:       req.Order.ClientTag,
			ReduceOnly: req.Order.ReduceOnly,
		},
		Trigger: gateapi.FuturesPriceTrigger{
			Price: g.formatPrice(contract, req.TriggerPrice),
			Rule:  rule,
		},
		OrderType: "limit",
	}
	err := g.call(func() error {
		_, _, callErr := g.rest.FuturesApi.CreatePriceTriggeredOrder(g.auth(ctx), gateSettle, triggered)
		return callErr
	})
	if err != nil {
		return fmt.Errorf("gate: submit trigger order: %w", err)
	}
	return nil
}

// formatPrice quantizes a price onto the contract's tick grid. Before the
// contract spec is loaded it falls back to the raw value.
func (g *Gateway) formatPrice(contract string, price float64) string {
	step, ok := g.steps.get(contract)
	if !ok || step.IsZero() {
		return strconv.FormatFloat(price, 'f', -1, 64)
	}
	return decimal.NewFromFloat(price).Round(-step.Exponent()).String()
}
