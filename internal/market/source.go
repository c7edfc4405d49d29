package market

import "context"

// Source supplies historical candles for a single contract.
// Implementations may return fewer candles than requested; callers decide
// whether the series is long enough for their lookback.
type Source interface {
	FetchHistory(ctx context.Context, contract, interval string, limit int) (Candles, error)
}
