package models

import "github.com/shopspring/decimal"

// Profile is the single user record of the simulator: fiat balance, the
// cached total value of held assets, and local-auth credentials. Exactly one
// row exists at a time; it is created on first run and replaced only by a
// full account reset.
type Profile struct {
	Base
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// FiatBalance is the spendable paper-money balance.
	FiatBalance decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"fiat_balance"`

	// AssetBalance caches the total current value of all positions. It is
	// recomputed by the valuator on every refresh cycle and is only as
	// fresh as the last cycle.
	AssetBalance decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"asset_balance"`

	PINHash             string `json:"-"`
	TradingPasswordHash string `json:"-"`
	BiometryEnabled     bool   `gorm:"default:false" json:"biometry_enabled"`
}

// HasPIN reports whether a PIN has been set for the profile.
func (p *Profile) HasPIN() bool { return p.PINHash != "" }

// HasTradingPassword reports whether a trading password has been set.
func (p *Profile) HasTradingPassword() bool { return p.TradingPasswordHash != "" }
