package services

import (
	"context"

	"github.com/shopspring/decimal"

	"papertrade/internal/models"
	"papertrade/internal/pagination"
	"papertrade/internal/pricefeed"
)

// LedgerServicer defines the contract for trade execution and ledger reads.
type LedgerServicer interface {
	Buy(ctx context.Context, assetID, name, symbol string, unitPrice decimal.Decimal, quantity int64) (*models.Transaction, error)
	Sell(ctx context.Context, assetID string, unitPrice decimal.Decimal, quantity int64) (*models.Transaction, error)
	Positions(ctx context.Context) ([]models.Position, error)
	Position(ctx context.Context, assetID string) (*models.Position, error)
	Transactions(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	Refill(ctx context.Context, amount decimal.Decimal) (models.Profile, error)
	Reset(ctx context.Context) error
}

// HistoryServicer defines the contract for the daily balance history.
type HistoryServicer interface {
	Record(ctx context.Context, totalValue decimal.Decimal, limit int) error
	Snapshots(ctx context.Context) ([]models.BalanceSnapshot, error)
}

// ValuatorServicer defines the contract for portfolio revaluation.
type ValuatorServicer interface {
	Refresh(ctx context.Context) (*Valuation, error)
	RefreshAsset(ctx context.Context, assetID string) (*pricefeed.Quote, error)
}

// AuthServicer defines the contract for local-auth credential management.
type AuthServicer interface {
	SetPIN(ctx context.Context, pin string) error
	VerifyPIN(pin string) error
	ChangePIN(ctx context.Context, currentPIN, newPIN string) error
	SetTradingPassword(ctx context.Context, password string) error
	VerifyTradingPassword(password string) error
	SetBiometry(ctx context.Context, enabled bool) error
}
