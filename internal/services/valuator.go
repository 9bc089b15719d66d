package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/logger"
	"papertrade/internal/models"
	"papertrade/internal/pricefeed"
)

// PositionValue is one position with its latest quoted price.
type PositionValue struct {
	Position     models.Position `json:"position"`
	Price        decimal.Decimal `json:"price"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

// Valuation is the outcome of one refresh cycle across all held positions.
type Valuation struct {
	Positions         []PositionValue            `json:"positions"`
	Prices            map[string]decimal.Decimal `json:"prices"`
	TotalCurrentValue decimal.Decimal            `json:"total_current_value"`
	InitialInvestment decimal.Decimal            `json:"initial_investment"`
	ChangePct         decimal.Decimal            `json:"change_pct"`
	FiatBalance       decimal.Decimal            `json:"fiat_balance"`
	TotalValue        decimal.Decimal            `json:"total_value"`
	SkippedAssets     []string                   `json:"skipped_assets,omitempty"`
	RefreshedAt       time.Time                  `json:"refreshed_at"`
}

// portfolioValuator recomputes portfolio value from the price feed and keeps
// the profile's cached asset balance and the daily history current.
type portfolioValuator struct {
	db           *gorm.DB
	store        *ProfileStore
	feed         pricefeed.Quoter
	history      HistoryServicer
	historyLimit int
	log          *zap.SugaredLogger
}

// NewPortfolioValuator creates a new ValuatorServicer.
func NewPortfolioValuator(db *gorm.DB, store *ProfileStore, feed pricefeed.Quoter, history HistoryServicer, historyLimit int) ValuatorServicer {
	return &portfolioValuator{
		db:           db,
		store:        store,
		feed:         feed,
		history:      history,
		historyLimit: historyLimit,
		log:          logger.Named("valuator"),
	}
}

// Refresh runs one valuation cycle: quote every held position, recompute the
// aggregate value and percentage change, push the cached asset balance
// through the profile store, and record today's history snapshot.
//
// A feed failure for a single asset only drops that asset's contribution for
// this cycle; the rest of the portfolio is still valued.
func (v *portfolioValuator) Refresh(ctx context.Context) (*Valuation, error) {
	var positions []models.Position
	if err := v.db.WithContext(ctx).Order("created_at ASC").Find(&positions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	// The cached asset balance from the previous cycle feeds the change
	// formula below.
	cached := v.store.Current().AssetBalance

	val := &Valuation{
		Positions: make([]PositionValue, 0, len(positions)),
		Prices:    make(map[string]decimal.Decimal, len(positions)),
	}

	for i := range positions {
		pos := positions[i]
		quote, err := v.feed.GetQuote(ctx, pos.AssetID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, ctx.Err())
			}
			v.log.Warnw("price fetch failed, skipping asset this cycle",
				"asset_id", pos.AssetID,
				"symbol", pos.Symbol,
				"error", err,
			)
			val.SkippedAssets = append(val.SkippedAssets, pos.AssetID)
			continue
		}

		amount := decimal.NewFromInt(pos.Amount)
		current := quote.PriceUSD.Mul(amount)
		val.Prices[pos.AssetID] = quote.PriceUSD
		val.Positions = append(val.Positions, PositionValue{
			Position:     pos,
			Price:        quote.PriceUSD,
			CurrentValue: current,
		})
		val.TotalCurrentValue = val.TotalCurrentValue.Add(current)
		val.InitialInvestment = val.InitialInvestment.Add(v.costBasis(ctx, pos).Mul(amount))
	}

	profile, err := v.store.Update(ctx, func(p models.Profile) (models.Profile, error) {
		p.AssetBalance = val.TotalCurrentValue
		return p, nil
	})
	if err != nil {
		// Published state is current; only the durable write failed.
		// The next cycle will retry, so the loop keeps going.
		v.log.Warnw("failed to persist cached asset balance", "error", err)
	}

	val.ChangePct = changePct(val.TotalCurrentValue, val.InitialInvestment, cached)
	val.FiatBalance = profile.FiatBalance
	val.TotalValue = profile.FiatBalance.Add(val.TotalCurrentValue)
	val.RefreshedAt = time.Now().UTC()

	if err := v.history.Record(ctx, val.TotalValue, v.historyLimit); err != nil {
		v.log.Warnw("failed to record balance snapshot", "error", err)
	}

	return val, nil
}

// costBasis looks the cost basis up by symbol from the repository rather
// than trusting the position already in hand. The stored row is the source
// of truth if the in-memory copy went stale during the cycle.
func (v *portfolioValuator) costBasis(ctx context.Context, pos models.Position) decimal.Decimal {
	var stored models.Position
	if err := v.db.WithContext(ctx).Where("symbol = ?", pos.Symbol).First(&stored).Error; err != nil {
		return pos.CoinPrice
	}
	return stored.CoinPrice
}

// changePct computes the overall percentage change, rounded half-up to two
// decimal places. A zero initial investment yields exactly zero.
func changePct(totalCurrent, initialInvestment, cachedAssetBalance decimal.Decimal) decimal.Decimal {
	if initialInvestment.IsZero() {
		return decimal.Zero
	}
	return totalCurrent.Add(cachedAssetBalance).
		Div(initialInvestment.Add(cachedAssetBalance)).
		Sub(decimal.NewFromInt(1)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// RefreshAsset fetches a single asset's current quote for detail views.
func (v *portfolioValuator) RefreshAsset(ctx context.Context, assetID string) (*pricefeed.Quote, error) {
	quote, err := v.feed.GetQuote(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return quote, nil
}
