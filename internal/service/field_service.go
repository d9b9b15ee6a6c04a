package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldhealth-service/internal/geometry"
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidGeometry  = errors.New("invalid geometry")
)

type FieldService struct {
	fieldRepo *repository.FieldRepository
}

func NewFieldService(fieldRepo *repository.FieldRepository) *FieldService {
	return &FieldService{fieldRepo: fieldRepo}
}

type CreateFieldInput struct {
	Name      string
	Boundary  string
	CropType  string
	CropStage string
	Season    string
	State     string
	District  string
}

// Create validates the boundary and derives centroid and area before
// persisting. Region and district fall back to "Unknown"; the classifier
// and rule engine treat that as "no regional profile".
func (s *FieldService) Create(ctx context.Context, principal model.Principal, input CreateFieldInput) (*model.Field, error) {
	if input.Name == "" || input.Boundary == "" {
		return nil, ErrInvalidInput
	}

	info, err := geometry.Parse(input.Boundary)
	if err != nil {
		return nil, ErrInvalidGeometry
	}

	state := input.State
	if state == "" {
		state = "Unknown"
	}
	district := input.District
	if district == "" {
		district = "Unknown"
	}

	field := &model.Field{
		UserID:      principal.UserID,
		Name:        input.Name,
		Boundary:    input.Boundary,
		AreaHa:      info.AreaHa,
		CropType:    input.CropType,
		CropStage:   input.CropStage,
		Season:      input.Season,
		CentroidLat: info.CentroidLat,
		CentroidLon: info.CentroidLon,
		State:       state,
		District:    district,
	}

	if err := s.fieldRepo.Create(ctx, field); err != nil {
		return nil, err
	}

	return field, nil
}

func (s *FieldService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Field, error) {
	field, err := s.fieldRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canAccessField(principal, field) {
		return nil, ErrPermissionDenied
	}
	return field, nil
}

func (s *FieldService) List(ctx context.Context, principal model.Principal) ([]model.Field, error) {
	return s.fieldRepo.ListByUser(ctx, principal.UserID)
}

type UpdateFieldInput struct {
	Name      *string
	Boundary  *string
	CropType  *string
	CropStage *string
	Season    *string
	State     *string
	District  *string
}

// Update applies partial changes. A boundary change always recomputes
// centroid and area; they are never accepted from the caller.
func (s *FieldService) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input UpdateFieldInput) (*model.Field, error) {
	field, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		field.Name = *input.Name
	}
	if input.Boundary != nil {
		info, err := geometry.Parse(*input.Boundary)
		if err != nil {
			return nil, ErrInvalidGeometry
		}
		field.Boundary = *input.Boundary
		field.CentroidLat = info.CentroidLat
		field.CentroidLon = info.CentroidLon
		field.AreaHa = info.AreaHa
	}
	if input.CropType != nil {
		field.CropType = *input.CropType
	}
	if input.CropStage != nil {
		field.CropStage = *input.CropStage
	}
	if input.Season != nil {
		field.Season = *input.Season
	}
	if input.State != nil {
		field.State = *input.State
	}
	if input.District != nil {
		field.District = *input.District
	}

	if err := s.fieldRepo.Update(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *FieldService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return err
	}
	return s.fieldRepo.Delete(ctx, id)
}

func canAccessField(principal model.Principal, field *model.Field) bool {
	if principal.IsAdmin() {
		return true
	}
	return field.UserID == principal.UserID
}
