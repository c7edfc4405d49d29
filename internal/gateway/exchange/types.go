package exchange

// Balance is the settle-currency account snapshot.
type Balance struct {
	Total float64
}

// ContractSpec carries the instrument metadata needed for order placement.
type ContractSpec struct {
	Contract         string
	PriceIncrement   float64 // smallest price step, e.g. 0.01
	QuantoMultiplier float64 // base amount represented by one contract
}

// PositionState is a tagged position query result. Found=false means the
// exchange reported no position for the contract, which is a normal outcome.
type PositionState struct {
	Found       bool
	Size        int64 // signed contracts, positive = long
	EntryPrice  float64
	RealisedPnl float64
}

// OrderRequest describes a futures order. Size is signed contracts
// (positive = long). Price zero submits a market order.
type OrderRequest struct {
	Contract   string
	Size       int64
	Price      float64
	ReduceOnly bool
	ClientTag  string
}

// OrderRef identifies a live order on the exchange.
type OrderRef struct {
	ID string
}

// OrderOutcome is the terminal disposition of a finished order.
type OrderOutcome int

const (
	OutcomeNone OrderOutcome = iota
	OutcomeFilled
	OutcomeCancelled
	OutcomeRejected
	OutcomeExpired
	// OutcomeNotFound covers orders the exchange no longer knows about,
	// e.g. cancelled out-of-band by the account holder.
	OutcomeNotFound
)

func (o OrderOutcome) String() string {
	switch o {
	case OutcomeFilled:
		return "filled"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRejected:
		return "rejected"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "none"
	}
}

// OrderStatus is a tagged order query result. While Open is true the order is
// still resting; otherwise Outcome describes how it finished.
type OrderStatus struct {
	Open      bool
	Outcome   OrderOutcome
	FillPrice float64 // set when Outcome == OutcomeFilled
}

// CancelResult reports a cancel attempt. NotFound means the order was already
// gone, which callers treat the same as a successful cancel.
type CancelResult struct {
	NotFound bool
}

// TriggerDirection selects which way price must cross the trigger.
type TriggerDirection int

const (
	TriggerAtOrBelow TriggerDirection = iota + 1 // fires when price <= trigger
	TriggerAtOrAbove                             // fires when price >= trigger
)

// TriggerOrderRequest places an order that activates when price crosses the
// trigger level, e.g. a stop-loss leg. The watched instrument is the order's
// contract.
type TriggerOrderRequest struct {
	TriggerPrice float64
	Direction    TriggerDirection
	Order        OrderRequest
}
