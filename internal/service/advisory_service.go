package service

import (
	"context"

	"github.com/google/uuid"

	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/repository"
)

type AdvisoryService struct {
	fieldRepo    *repository.FieldRepository
	advisoryRepo *repository.AdvisoryRepository
}

func NewAdvisoryService(fieldRepo *repository.FieldRepository, advisoryRepo *repository.AdvisoryRepository) *AdvisoryService {
	return &AdvisoryService{
		fieldRepo:    fieldRepo,
		advisoryRepo: advisoryRepo,
	}
}

// ListByField returns the field's persisted advisories, newest first.
func (s *AdvisoryService) ListByField(ctx context.Context, principal model.Principal, fieldID uuid.UUID) ([]model.Advisory, error) {
	field, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !canAccessField(principal, field) {
		return nil, ErrPermissionDenied
	}
	return s.advisoryRepo.ListByField(ctx, fieldID)
}
