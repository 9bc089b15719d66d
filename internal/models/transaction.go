package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is the direction of a transaction.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// Transaction is an immutable record of one executed buy or sell.
// Append-only: rows are never updated, and deleted only by a full account
// reset. The auto-incrementing ID doubles as the execution order.
type Transaction struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID   string          `gorm:"not null;index" json:"asset_id"`
	Name      string          `gorm:"not null" json:"name"`
	Symbol    string          `gorm:"not null" json:"symbol"`
	Side      TradeSide       `gorm:"not null" json:"side"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"unit_price"`
	DealPrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"deal_price"`
	Amount    int64           `gorm:"not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
