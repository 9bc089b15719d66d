package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "papertrade/internal/errors"
	"papertrade/internal/models"
)

// historyTracker maintains the bounded one-snapshot-per-day series of total
// portfolio value used for charting.
type historyTracker struct {
	db *gorm.DB

	// now is injectable so tests can simulate specific days.
	now func() time.Time
}

// NewHistoryTracker creates a new HistoryServicer.
func NewHistoryTracker(db *gorm.DB) HistoryServicer {
	return &historyTracker{db: db, now: time.Now}
}

// Record stores totalValue under today's snapshot. Calling it again on the
// same day overwrites the existing row in place, so the call is idempotent
// within a day. A new insert that pushes the series past limit evicts the
// oldest rows by date, never the newest.
func (t *historyTracker) Record(ctx context.Context, totalValue decimal.Decimal, limit int) error {
	day := models.DayOf(t.now())

	var existing models.BalanceSnapshot
	result := t.db.WithContext(ctx).Where("day = ?", day).First(&existing)
	if result.Error == nil {
		if err := t.db.WithContext(ctx).Model(&existing).Update("total_value", totalValue).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrPersistence, err)
		}
		return nil
	}

	snapshot := models.BalanceSnapshot{Day: day, TotalValue: totalValue}
	if err := t.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	return t.evict(ctx, limit)
}

// evict deletes the oldest snapshots until at most limit remain. Ordering is
// by stored date, not insertion order: a snapshot overwritten in place keeps
// its original chronological slot.
func (t *historyTracker) evict(ctx context.Context, limit int) error {
	var count int64
	if err := t.db.WithContext(ctx).Model(&models.BalanceSnapshot{}).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	excess := int(count) - limit
	if excess <= 0 {
		return nil
	}

	var oldest []models.BalanceSnapshot
	if err := t.db.WithContext(ctx).Order("day ASC").Limit(excess).Find(&oldest).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	ids := make([]string, len(oldest))
	for i := range oldest {
		ids[i] = oldest[i].ID
	}
	if err := t.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.BalanceSnapshot{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return nil
}

// Snapshots returns the retained history, oldest to newest.
func (t *historyTracker) Snapshots(ctx context.Context) ([]models.BalanceSnapshot, error) {
	var snapshots []models.BalanceSnapshot
	if err := t.db.WithContext(ctx).Order("day ASC").Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return snapshots, nil
}
