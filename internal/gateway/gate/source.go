package gate

import (
	"context"
	"fmt"
	"strings"

	"obsidian/internal/logger"
	"obsidian/internal/market"
	"obsidian/internal/pkg/convert"
	"obsidian/internal/scheduler"

	"github.com/antihax/optional"
	gateapi "github.com/gateio/gateapi-go/v7"
)

// FetchHistory downloads up to `limit` candles for the contract, oldest
// first. Gate may return fewer than requested near listing time; callers
// handle short series themselves.
func (g *Gateway) FetchHistory(ctx context.Context, contract, interval string, limit int) (market.Candles, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > gateMaxHistoryLimit {
		limit = gateMaxHistoryLimit
	}
	contract = normalizeContract(contract)
	if contract == "" {
		return nil, fmt.Errorf("contract is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}

	opts := &gateapi.ListFuturesCandlesticksOpts{
		Limit:    optional.NewInt32(int32(limit)),
		Interval: optional.NewString(interval),
	}

	var kls []gateapi.FuturesCandlestick
	err := g.call(func() error {
		var callErr error
		kls, _, callErr = g.rest.FuturesApi.ListFuturesCandlesticks(ctx, gateSettle, contract, opts)
		return callErr
	})
	if err != nil {
		logger.Errorf("[gate] fetch kline failed %s %s limit=%d: %s", contract, interval, limit, describe(err))
		return nil, err
	}

	out := make(market.Candles, 0, len(kls))
	for _, kl := range kls {
		openTime := int64(kl.T * 1000)
		closeTime := openTime
		if dur, ok := scheduler.ParseIntervalDuration(interval); ok {
			closeTime = openTime + dur.Milliseconds()
		}
		out = append(out, market.Candle{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      convert.ToFloat64(kl.O),
			High:      convert.ToFloat64(kl.H),
			Low:       convert.ToFloat64(kl.L),
			Close:     convert.ToFloat64(kl.C),
			Volume:    convert.ToFloat64(kl.Sum),
		})
	}
	return out.Normalize(), nil
}

// LastPrice returns the contract's last traded price.
func (g *Gateway) LastPrice(ctx context.Context, contract string) (float64, error) {
	contract = normalizeContract(contract)
	if contract == "" {
		return 0, fmt.Errorf("contract is required")
	}
	opts := &gateapi.ListFuturesTickersOpts{Contract: optional.NewString(contract)}

	var tickers []gateapi.FuturesTicker
	err := g.call(func() error {
		var callErr error
		tickers, _, callErr = g.rest.FuturesApi.ListFuturesTickers(ctx, gateSettle, opts)
		return callErr
	})
	if err != nil {
		return 0, err
	}
	if len(tickers) == 0 {
		return 0, fmt.Errorf("gate: no ticker for %s", contract)
	}
	last := convert.ToFloat64(tickers[0].Last)
	if last <= 0 {
		return 0, fmt.Errorf("gate: ticker for %s has no last price", contract)
	}
	return last, nil
}
