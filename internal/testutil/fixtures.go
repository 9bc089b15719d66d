package testutil

import (
	"testing"

	"papertrade/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateTestProfile inserts a profile with the given fiat balance.
func CreateTestProfile(t *testing.T, db *gorm.DB, fiatBalance string) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		FirstName:    "Test",
		LastName:     "Trader",
		FiatBalance:  decimal.RequireFromString(fiatBalance),
		AssetBalance: decimal.Zero,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return profile
}

// CreateTestPosition inserts a held position.
func CreateTestPosition(t *testing.T, db *gorm.DB, assetID, symbol, coinPrice string, amount int64) *models.Position {
	t.Helper()

	position := &models.Position{
		AssetID:   assetID,
		Name:      symbol,
		Symbol:    symbol,
		CoinPrice: decimal.RequireFromString(coinPrice),
		Amount:    amount,
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("failed to create test position: %v", err)
	}
	return position
}
