package protection

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mevshield/mevshield/pkg/models"
)

// TradeStore is the durable append-only record set of protected trades.
type TradeStore interface {
	Append(ctx context.Context, rawTransaction, relayTxHash string) (*models.ProtectedTrade, error)
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]*models.ProtectedTrade, error)
}

// GormTradeStore implements TradeStore over gorm. The auto-increment
// primary key assigns unique strictly increasing ids; concurrent
// appends never collide or lose a record.
type GormTradeStore struct {
	db *gorm.DB
}

// NewGormTradeStore creates a store over an already-migrated database.
func NewGormTradeStore(db *gorm.DB) *GormTradeStore {
	return &GormTradeStore{db: db}
}

// Append inserts one trade record, assigning its id and submission
// timestamp. A failed insert is reported to the caller; the store never
// retries.
func (s *GormTradeStore) Append(ctx context.Context, rawTransaction, relayTxHash string) (*models.ProtectedTrade, error) {
	record := &models.ProtectedTrade{
		RawTransaction: rawTransaction,
		RelayTxHash:    relayTxHash,
		Status:         models.TradeStatusProtected,
		SubmittedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to append trade record: %w", err)
	}
	return record, nil
}

// Count returns the number of stored trade records.
func (s *GormTradeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ProtectedTrade{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count trade records: %w", err)
	}
	return count, nil
}

// Recent returns up to limit records, newest first, for the reporting
// endpoint.
func (s *GormTradeStore) Recent(ctx context.Context, limit int) ([]*models.ProtectedTrade, error) {
	var trades []*models.ProtectedTrade
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade records: %w", err)
	}
	return trades, nil
}
