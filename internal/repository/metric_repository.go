package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldhealth-service/internal/model"
)

type MetricRepository struct {
	db *gorm.DB
}

func NewMetricRepository(db *gorm.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *MetricRepository) WithTx(tx *gorm.DB) *MetricRepository {
	return &MetricRepository{db: tx}
}

func (r *MetricRepository) Create(ctx context.Context, sample *model.MetricSample) error {
	return r.db.WithContext(ctx).Create(sample).Error
}

// ListWindow returns the field's samples dated on or after from, ascending
// by date. This is the ordering key for history and training.
func (r *MetricRepository) ListWindow(ctx context.Context, fieldID uuid.UUID, from time.Time) ([]model.MetricSample, error) {
	var samples []model.MetricSample
	err := r.db.WithContext(ctx).
		Where("field_id = ? AND date >= ?", fieldID, from).
		Order("date ASC").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *MetricRepository) CountByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.MetricSample{}).
		Where("field_id = ? AND date = ?", fieldID, date).
		Count(&count).Error
	return count, err
}

// DeleteByFieldAndDate removes a field's samples for one date, detaching
// their advisories. No inner transaction: callers run it inside their own.
func (r *MetricRepository) DeleteByFieldAndDate(ctx context.Context, fieldID uuid.UUID, date time.Time) error {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.MetricSample{}).
		Where("field_id = ? AND date = ?", fieldID, date).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return err
	}
	err = r.db.WithContext(ctx).
		Model(&model.Advisory{}).
		Where("metric_id IN ?", ids).
		Update("metric_id", nil).Error
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.MetricSample{}).Error
}

// Delete removes a sample and detaches (not deletes) its advisories.
func (r *MetricRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Advisory{}).
			Where("metric_id = ?", id).
			Update("metric_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.MetricSample{}).Error
	})
}
