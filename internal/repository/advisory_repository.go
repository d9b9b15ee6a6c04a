package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldhealth-service/internal/model"
)

type AdvisoryRepository struct {
	db *gorm.DB
}

func NewAdvisoryRepository(db *gorm.DB) *AdvisoryRepository {
	return &AdvisoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *AdvisoryRepository) WithTx(tx *gorm.DB) *AdvisoryRepository {
	return &AdvisoryRepository{db: tx}
}

func (r *AdvisoryRepository) CreateBatch(ctx context.Context, advisories []model.Advisory) error {
	if len(advisories) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&advisories).Error
}

func (r *AdvisoryRepository) ListByField(ctx context.Context, fieldID uuid.UUID) ([]model.Advisory, error) {
	var advisories []model.Advisory
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("created_at DESC").
		Find(&advisories).Error
	if err != nil {
		return nil, err
	}
	return advisories, nil
}

func (r *AdvisoryRepository) ListByMetric(ctx context.Context, metricID uuid.UUID) ([]model.Advisory, error) {
	var advisories []model.Advisory
	err := r.db.WithContext(ctx).
		Where("metric_id = ?", metricID).
		Find(&advisories).Error
	if err != nil {
		return nil, err
	}
	return advisories, nil
}
