package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldhealth-service/internal/health"
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/repository"
)

const defaultHistoryDays = 7

// HistoryEntry is one persisted sample re-annotated with a freshly computed
// health status.
type HistoryEntry struct {
	Date            time.Time          `json:"date"`
	NDVIMean        float64            `json:"ndvi_mean"`
	TempMean        float64            `json:"temp_mean"`
	RainfallTotal   float64            `json:"rainfall_total"`
	HumidityMean    float64            `json:"humidity_mean"`
	WindSpeedMean   float64            `json:"wind_speed_mean"`
	SoilMoistureEst float64            `json:"soil_moisture_est"`
	HealthStatus    model.HealthStatus `json:"health_status"`
}

// HistoryService reads a field's trailing-window samples. Classification is
// re-applied per read against the field's current region, so history always
// reflects present-day thresholds rather than those at sampling time.
type HistoryService struct {
	fieldRepo  *repository.FieldRepository
	metricRepo *repository.MetricRepository
	classifier *health.Classifier
}

func NewHistoryService(
	fieldRepo *repository.FieldRepository,
	metricRepo *repository.MetricRepository,
	classifier *health.Classifier,
) *HistoryService {
	return &HistoryService{
		fieldRepo:  fieldRepo,
		metricRepo: metricRepo,
		classifier: classifier,
	}
}

// Window returns the field's samples from the trailing days-long window,
// date-ascending. days <= 0 selects the default window.
func (s *HistoryService) Window(ctx context.Context, principal model.Principal, fieldID uuid.UUID, days int) ([]HistoryEntry, error) {
	field, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !canAccessField(principal, field) {
		return nil, ErrPermissionDenied
	}

	if days <= 0 {
		days = defaultHistoryDays
	}
	from := time.Now().AddDate(0, 0, -days)

	samples, err := s.metricRepo.ListWindow(ctx, fieldID, from)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(samples))
	for _, sample := range samples {
		entries = append(entries, HistoryEntry{
			Date:            sample.Date,
			NDVIMean:        sample.NDVIMean,
			TempMean:        sample.TempMean,
			RainfallTotal:   sample.RainfallTotal,
			HumidityMean:    sample.HumidityMean,
			WindSpeedMean:   sample.WindSpeedMean,
			SoilMoistureEst: sample.SoilMoistureEst,
			HealthStatus:    s.classifier.Classify(sample.NDVIMean, field.State),
		})
	}
	return entries, nil
}
