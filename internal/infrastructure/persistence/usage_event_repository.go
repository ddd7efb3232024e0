package persistence

import (
	"context"
	"fmt"

	"github.com/contractiq/backend/internal/domain/usage"
	"github.com/contractiq/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// defaultUsageInsertBatch bounds the rows per INSERT statement
const defaultUsageInsertBatch = 100

// GormUsageEventRepository implements usage.EventWriter using GORM
type GormUsageEventRepository struct {
	db        *gorm.DB
	batchSize int
}

// NewGormUsageEventRepository creates a new GormUsageEventRepository
func NewGormUsageEventRepository(db *gorm.DB) *GormUsageEventRepository {
	return &GormUsageEventRepository{db: db, batchSize: defaultUsageInsertBatch}
}

var _ usage.EventWriter = (*GormUsageEventRepository)(nil)

// AppendBatch inserts events. Events are never updated once written.
func (r *GormUsageEventRepository) AppendBatch(ctx context.Context, events []*usage.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([]models.UsageEventModel, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		var m models.UsageEventModel
		m.FromDomain(e)
		rows = append(rows, m)
	}
	if len(rows) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&rows, r.batchSize).Error; err != nil {
		return fmt.Errorf("append usage events: %w", err)
	}
	return nil
}
