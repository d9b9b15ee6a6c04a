package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"fieldhealth-service/internal/acquisition"
	"fieldhealth-service/internal/advisory"
	"fieldhealth-service/internal/geometry"
	"fieldhealth-service/internal/health"
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/repository"
	"fieldhealth-service/internal/trend"
)

// trainingWindowDays is the trailing history window fed to the trend model.
const trainingWindowDays = 30

const baseDataSource = "Sentinel/NASA"

// Result is the serializable outcome of one analysis run, consumed by the
// presentation layer as-is.
type Result struct {
	FieldID       uuid.UUID          `json:"field_id"`
	Date          time.Time          `json:"date"`
	Metrics       acquisition.Bundle `json:"metrics"`
	HealthStatus  model.HealthStatus `json:"health_status"`
	NDVIColor     string             `json:"ndvi_color"`
	PredictedNDVI float64            `json:"predicted_ndvi"`
	Advisories    []model.Advisory   `json:"advisories"`
}

// AnalysisService sequences the analysis pipeline: retrain trend model,
// acquire metrics, classify health, predict trend, evaluate rules, persist.
// Runs are serialized per field so concurrent requests cannot interleave
// persistence or write duplicate same-day samples.
type AnalysisService struct {
	db           *gorm.DB
	fieldRepo    *repository.FieldRepository
	metricRepo   *repository.MetricRepository
	advisoryRepo *repository.AdvisoryRepository
	acquirer     *acquisition.Orchestrator
	classifier   *health.Classifier
	predictor    *trend.Predictor
	engine       *advisory.Engine
	log          zerolog.Logger

	mu         sync.Mutex
	fieldLocks map[uuid.UUID]*sync.Mutex
}

func NewAnalysisService(
	db *gorm.DB,
	fieldRepo *repository.FieldRepository,
	metricRepo *repository.MetricRepository,
	advisoryRepo *repository.AdvisoryRepository,
	acquirer *acquisition.Orchestrator,
	classifier *health.Classifier,
	predictor *trend.Predictor,
	engine *advisory.Engine,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		db:           db,
		fieldRepo:    fieldRepo,
		metricRepo:   metricRepo,
		advisoryRepo: advisoryRepo,
		acquirer:     acquirer,
		classifier:   classifier,
		predictor:    predictor,
		engine:       engine,
		log:          log,
		fieldLocks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Run executes one analysis for the field. Validation failures surface
// before any state is written; acquisition degradation never surfaces; a
// persistence failure rolls the whole run back.
func (s *AnalysisService) Run(ctx context.Context, principal model.Principal, fieldID uuid.UUID) (*Result, error) {
	field, err := s.fieldRepo.GetByID(ctx, fieldID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !canAccessField(principal, field) {
		return nil, ErrPermissionDenied
	}
	if field.Boundary == "" {
		return nil, ErrInvalidGeometry
	}
	info, err := geometry.Parse(field.Boundary)
	if err != nil {
		return nil, ErrInvalidGeometry
	}

	lock := s.lockFor(fieldID)
	lock.Lock()
	defer lock.Unlock()

	trainFrom := time.Now().AddDate(0, 0, -trainingWindowDays)
	history, err := s.metricRepo.ListWindow(ctx, fieldID, trainFrom)
	if err != nil {
		return nil, fmt.Errorf("load training history: %w", err)
	}
	s.predictor.Retrain(fieldID, history)

	bundle := s.acquirer.Fetch(ctx, info.BBox, info.CentroidLat, info.CentroidLon)
	healthStatus := s.classifier.Classify(bundle.NDVIMean, field.State)
	predicted := s.predictor.Predict(fieldID, bundle)
	items := s.engine.Evaluate(bundle, field.State, field.CropType)

	sample := sampleFrom(fieldID, bundle)
	advisories := advisoriesFrom(fieldID, items)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A same-day re-run supersedes the earlier sample; its advisories
		// stay behind, detached.
		if err := s.metricRepo.WithTx(tx).DeleteByFieldAndDate(ctx, fieldID, sample.Date); err != nil {
			return err
		}
		if err := s.metricRepo.WithTx(tx).Create(ctx, sample); err != nil {
			return err
		}
		for i := range advisories {
			metricID := sample.ID
			advisories[i].MetricID = &metricID
		}
		if err := s.advisoryRepo.WithTx(tx).CreateBatch(ctx, advisories); err != nil {
			return err
		}

		field.SoilMoisture = &bundle.SoilMoistureEst
		field.Temperature = &bundle.TempMean
		field.Status = &healthStatus
		return s.fieldRepo.WithTx(tx).Update(ctx, field)
	})
	if err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	s.log.Info().
		Str("field_id", fieldID.String()).
		Str("health", string(healthStatus)).
		Float64("ndvi", bundle.NDVIMean).
		Int("advisories", len(advisories)).
		Strs("degraded", bundle.Degraded).
		Msg("analysis completed")

	return &Result{
		FieldID:       fieldID,
		Date:          sample.Date,
		Metrics:       bundle,
		HealthStatus:  healthStatus,
		NDVIColor:     health.ColorCode(bundle.NDVIMean),
		PredictedNDVI: predicted,
		Advisories:    advisories,
	}, nil
}

func (s *AnalysisService) lockFor(fieldID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.fieldLocks[fieldID]
	if !ok {
		lock = &sync.Mutex{}
		s.fieldLocks[fieldID] = lock
	}
	return lock
}

func sampleFrom(fieldID uuid.UUID, bundle acquisition.Bundle) *model.MetricSample {
	source := baseDataSource
	if len(bundle.Degraded) > 0 {
		source = fmt.Sprintf("%s (degraded: %s)", baseDataSource, strings.Join(bundle.Degraded, ","))
	}
	now := time.Now()
	return &model.MetricSample{
		FieldID:         fieldID,
		Date:            time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		NDVIMean:        bundle.NDVIMean,
		NDVIMin:         bundle.NDVIMin,
		NDVIMax:         bundle.NDVIMax,
		EVIMean:         bundle.EVIMean,
		TempMean:        bundle.TempMean,
		RainfallTotal:   bundle.RainfallTotal,
		HumidityMean:    bundle.HumidityMean,
		WindSpeedMean:   bundle.WindSpeedMean,
		CloudCoverage:   bundle.CloudCoverage,
		ValidPixels:     bundle.ValidPixels,
		SoilMoistureEst: bundle.SoilMoistureEst,
		DataSource:      source,
	}
}

func advisoriesFrom(fieldID uuid.UUID, items []advisory.Item) []model.Advisory {
	advisories := make([]model.Advisory, 0, len(items))
	for _, item := range items {
		advisories = append(advisories, model.Advisory{
			FieldID:  fieldID,
			Type:     "General",
			Text:     item.Text,
			Level:    item.Level,
			Priority: model.PriorityFor(item.Level),
		})
	}
	return advisories
}
