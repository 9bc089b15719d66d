package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/pagination"
)

// ledgerService executes buy and sell orders against the profile's fiat
// balance, the append-only transaction log, and the position table.
type ledgerService struct {
	db              *gorm.DB
	store           *ProfileStore
	startingBalance decimal.Decimal
	log             *zap.SugaredLogger
}

// NewLedgerService creates a new LedgerServicer. startingBalance is the fiat
// balance restored by a full account reset.
func NewLedgerService(db *gorm.DB, store *ProfileStore, startingBalance decimal.Decimal) LedgerServicer {
	return &ledgerService{
		db:              db,
		store:           store,
		startingBalance: startingBalance,
		log:             logger.Named("ledger"),
	}
}

// Buy executes a purchase: debit fiat, append the transaction, upsert the
// position with a recomputed weighted-average cost.
//
// The three mutations are applied balance-first: the transaction log is
// append-only and the position upsert recomputes from stored state, so an
// interrupted sequence is safe to retry without double-charging.
func (s *ledgerService) Buy(ctx context.Context, assetID, name, symbol string, unitPrice decimal.Decimal, quantity int64) (*models.Transaction, error) {
	if quantity <= 0 || !unitPrice.IsPositive() {
		return nil, apperrors.ErrInvalidOrder
	}
	dealPrice := unitPrice.Mul(decimal.NewFromInt(quantity))

	// The funds check runs inside the serialized update, so a concurrent
	// buy or refill cannot be read out from under us.
	if _, err := s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		if p.FiatBalance.IsZero() || p.FiatBalance.LessThan(dealPrice) {
			return p, apperrors.ErrInsufficientFunds
		}
		p.FiatBalance = p.FiatBalance.Sub(dealPrice)
		return p, nil
	}); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		AssetID:   assetID,
		Name:      name,
		Symbol:    symbol,
		Side:      models.TradeSideBuy,
		UnitPrice: unitPrice,
		DealPrice: dealPrice,
		Amount:    quantity,
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	if err := s.upsertPosition(ctx, assetID, name, symbol, unitPrice, quantity); err != nil {
		return nil, err
	}

	s.log.Infow("buy executed", "asset_id", assetID, "quantity", quantity, "deal_price", dealPrice)
	return tx, nil
}

// upsertPosition creates a position on first buy, otherwise folds the new
// lots into the quantity-weighted average cost:
//
//	newPrice = (oldPrice*oldAmount + unitPrice*quantity) / (oldAmount + quantity)
func (s *ledgerService) upsertPosition(ctx context.Context, assetID, name, symbol string, unitPrice decimal.Decimal, quantity int64) error {
	var pos models.Position
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pos = models.Position{
			AssetID:   assetID,
			Name:      name,
			Symbol:    symbol,
			CoinPrice: unitPrice,
			Amount:    quantity,
		}
		if err := s.db.WithContext(ctx).Create(&pos).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	oldAmount := decimal.NewFromInt(pos.Amount)
	addAmount := decimal.NewFromInt(quantity)
	newAmount := oldAmount.Add(addAmount)
	newPrice := pos.CoinPrice.Mul(oldAmount).Add(unitPrice.Mul(addAmount)).Div(newAmount)

	if err := s.db.WithContext(ctx).Model(&pos).Updates(map[string]interface{}{
		"coin_price": newPrice,
		"amount":     pos.Amount + quantity,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return nil
}

// Sell executes a sale: credit fiat, append the transaction, then shrink or
// delete the position. Selling the full holding deletes the row outright,
// which is also what keeps the average-cost recomputation away from a
// division by zero.
func (s *ledgerService) Sell(ctx context.Context, assetID string, unitPrice decimal.Decimal, quantity int64) (*models.Transaction, error) {
	if quantity <= 0 || !unitPrice.IsPositive() {
		return nil, apperrors.ErrInvalidOrder
	}

	var pos models.Position
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPositionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if quantity > pos.Amount {
		return nil, apperrors.ErrInsufficientHoldings
	}

	dealPrice := unitPrice.Mul(decimal.NewFromInt(quantity))

	if _, err := s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.FiatBalance = p.FiatBalance.Add(dealPrice)
		return p, nil
	}); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		AssetID:   assetID,
		Name:      pos.Name,
		Symbol:    pos.Symbol,
		Side:      models.TradeSideSell,
		UnitPrice: unitPrice,
		DealPrice: dealPrice,
		Amount:    quantity,
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	if quantity == pos.Amount {
		if err := s.db.WithContext(ctx).Delete(&pos).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		s.log.Infow("position liquidated", "asset_id", assetID)
		return tx, nil
	}

	oldAmount := decimal.NewFromInt(pos.Amount)
	sellAmount := decimal.NewFromInt(quantity)
	remaining := oldAmount.Sub(sellAmount)
	newPrice := pos.CoinPrice.Mul(oldAmount).Sub(unitPrice.Mul(sellAmount)).Div(remaining)

	if err := s.db.WithContext(ctx).Model(&pos).Updates(map[string]interface{}{
		"coin_price": newPrice,
		"amount":     pos.Amount - quantity,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	s.log.Infow("sell executed", "asset_id", assetID, "quantity", quantity, "deal_price", dealPrice)
	return tx, nil
}

// Positions returns all held positions, oldest first.
func (s *ledgerService) Positions(ctx context.Context) ([]models.Position, error) {
	var positions []models.Position
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return positions, nil
}

// Position returns the held position for one asset.
func (s *ledgerService) Position(ctx context.Context, assetID string) (*models.Position, error) {
	var pos models.Position
	err := s.db.WithContext(ctx).Where("asset_id = ?", assetID).First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrPositionNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &pos, nil
}

// Transactions returns the transaction log, newest first.
func (s *ledgerService) Transactions(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Transaction{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	var transactions []models.Transaction
	if err := base.Order("id DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Refill credits the fiat balance by the given amount.
func (s *ledgerService) Refill(ctx context.Context, amount decimal.Decimal) (models.Profile, error) {
	if !amount.IsPositive() {
		return models.Profile{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Refill amount must be positive")
	}
	return s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.FiatBalance = p.FiatBalance.Add(amount)
		return p, nil
	})
}

// Reset wipes positions, transactions, and balance history, and restores the
// starting fiat balance. Credentials on the profile are kept. This is the
// only operation that deletes transaction rows.
func (s *ledgerService) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Position{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.BalanceSnapshot{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	_, err = s.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.FiatBalance = s.startingBalance
		p.AssetBalance = decimal.Zero
		return p, nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("account reset", "starting_balance", s.startingBalance)
	return nil
}
