package models

import "github.com/shopspring/decimal"

// Position represents a held quantity of one asset together with its
// weighted-average acquisition cost. A position exists only while Amount > 0;
// a full liquidation deletes the row rather than zeroing it.
type Position struct {
	Base
	AssetID string `gorm:"not null;uniqueIndex" json:"asset_id"`
	Name    string `gorm:"not null" json:"name"`
	Symbol  string `gorm:"not null;index" json:"symbol"`

	// CoinPrice is the quantity-weighted mean purchase price across all
	// buys, recomputed on every buy and partial sell.
	CoinPrice decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"coin_price"`

	// Amount is the number of lots held.
	Amount int64 `gorm:"not null" json:"amount"`
}

// CostBasis returns the total acquisition cost of the position.
func (p *Position) CostBasis() decimal.Decimal {
	return p.CoinPrice.Mul(decimal.NewFromInt(p.Amount))
}
