package models

import (
	"time"

	"papertrade/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BalanceSnapshot records the total portfolio value for one calendar day.
// Day is normalized to midnight UTC and at most one row exists per day; the
// collection is bounded by the history retention limit, oldest evicted first.
type BalanceSnapshot struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	Day        time.Time       `gorm:"not null;uniqueIndex" json:"day"`
	TotalValue decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_value"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *BalanceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}

// DayOf strips the time of day, normalizing t to midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
