package exchange

import "context"

// Exchange is the execution surface the lifecycle engine depends on.
// Expected-but-absent entities (no position, order already gone) come back as
// tagged results, never as errors; an error return always means the call
// itself failed.
type Exchange interface {
	Name() string

	Balance(ctx context.Context) (Balance, error)

	Contract(ctx context.Context, contract string) (ContractSpec, error)

	// SetLeverage is idempotent; "already set" is not an error.
	SetLeverage(ctx context.Context, contract string, leverage int) error

	Position(ctx context.Context, contract string) (PositionState, error)

	SubmitOrder(ctx context.Context, req OrderRequest) (OrderRef, error)

	OrderStatus(ctx context.Context, orderID string) (OrderStatus, error)

	CancelOrder(ctx context.Context, orderID string) (CancelResult, error)

	CancelAllOrders(ctx context.Context, contract string) error

	SubmitTriggerOrder(ctx context.Context, req TriggerOrderRequest) error

	LastPrice(ctx context.Context, contract string) (float64, error)
}
