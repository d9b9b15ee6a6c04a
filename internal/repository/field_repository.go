package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldhealth-service/internal/model"
)

type FieldRepository struct {
	db *gorm.DB
}

func NewFieldRepository(db *gorm.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *FieldRepository) WithTx(tx *gorm.DB) *FieldRepository {
	return &FieldRepository{db: tx}
}

func (r *FieldRepository) Create(ctx context.Context, field *model.Field) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *FieldRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Field, error) {
	var field model.Field
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&field).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &field, nil
}

func (r *FieldRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Field, error) {
	var fields []model.Field
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *FieldRepository) Update(ctx context.Context, field *model.Field) error {
	return r.db.WithContext(ctx).Save(field).Error
}

// Delete removes the field and cascades to its samples and advisories. The
// cascade is explicit so it holds on stores without FK enforcement.
func (r *FieldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", id).Delete(&model.Advisory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("field_id = ?", id).Delete(&model.MetricSample{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Field{}).Error
	})
}
