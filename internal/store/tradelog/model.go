package tradelog

import "gorm.io/datatypes"

// TradeModel is one closed trade, written when the exchange reports the
// position gone. The Detail column carries free-form context (indicator
// snapshot, risk budget used) as JSON.
type TradeModel struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement"`
	RunID       string         `gorm:"column:run_id;index"`
	Contract    string         `gorm:"column:contract"`
	Side        string         `gorm:"column:side"`
	Size        int64          `gorm:"column:size"`
	EntryPrice  float64        `gorm:"column:entry_price"`
	RealisedPnl float64        `gorm:"column:realised_pnl"`
	RiskUSD     float64        `gorm:"column:risk_usd"`
	Compounded  bool           `gorm:"column:compounded"`
	ClosedAt    int64          `gorm:"column:closed_at;index"`
	Detail      datatypes.JSON `gorm:"column:detail"`
}

func (TradeModel) TableName() string { return "trades" }
