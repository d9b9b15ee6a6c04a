package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fieldhealth-service/internal/acquisition"
	"fieldhealth-service/internal/advisory"
	"fieldhealth-service/internal/client"
	"fieldhealth-service/internal/db"
	"fieldhealth-service/internal/geometry"
	"fieldhealth-service/internal/health"
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/profile"
	"fieldhealth-service/internal/repository"
	"fieldhealth-service/internal/trend"
)

const testBoundary = `{"type":"Polygon","coordinates":[[[75.0,31.0],[75.1,31.0],[75.1,31.1],[75.0,31.1],[75.0,31.0]]]}`

type stubVegetation struct {
	stats *client.NDVIStats
	err   error
}

func (s stubVegetation) FetchNDVI(ctx context.Context, bbox geometry.BBox, from, to time.Time) (*client.NDVIStats, error) {
	return s.stats, s.err
}

type stubSoil struct {
	estimate float64
	err      error
}

func (s stubSoil) FetchSoilMoisture(ctx context.Context, bbox geometry.BBox, from, to time.Time) (float64, error) {
	return s.estimate, s.err
}

type stubWeather struct {
	aggregates *client.WeatherAggregates
	err        error
}

func (s stubWeather) FetchAggregates(ctx context.Context, lat, lon float64, days int) (*client.WeatherAggregates, error) {
	return s.aggregates, s.err
}

type testEnv struct {
	db           *gorm.DB
	fieldRepo    *repository.FieldRepository
	metricRepo   *repository.MetricRepository
	advisoryRepo *repository.AdvisoryRepository
	classifier   *health.Classifier
	analysis     *AnalysisService
	history      *HistoryService
	fields       *FieldService
}

func newTestEnv(t *testing.T, veg acquisition.VegetationSource, soil acquisition.SoilMoistureSource, weather acquisition.WeatherSource) *testEnv {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// :memory: databases are per-connection; pin the pool to one.
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database))

	registry := profile.DefaultRegistry()
	fieldRepo := repository.NewFieldRepository(database)
	metricRepo := repository.NewMetricRepository(database)
	advisoryRepo := repository.NewAdvisoryRepository(database)
	classifier := health.NewClassifier(registry)
	acquirer := acquisition.NewOrchestrator(veg, soil, weather, 7, zerolog.Nop())

	return &testEnv{
		db:           database,
		fieldRepo:    fieldRepo,
		metricRepo:   metricRepo,
		advisoryRepo: advisoryRepo,
		classifier:   classifier,
		analysis: NewAnalysisService(
			database, fieldRepo, metricRepo, advisoryRepo,
			acquirer, classifier, trend.NewPredictor(), advisory.NewEngine(registry), zerolog.Nop(),
		),
		history: NewHistoryService(fieldRepo, metricRepo, classifier),
		fields:  NewFieldService(fieldRepo),
	}
}

func quietSources() (stubVegetation, stubSoil, stubWeather) {
	return stubVegetation{stats: &client.NDVIStats{Mean: 0.65, Min: 0.5, Max: 0.8, CloudCoverage: 5, ValidPixels: 200000}},
		stubSoil{estimate: 0.5},
		stubWeather{aggregates: &client.WeatherAggregates{TempMean: 18, RainfallTotal: 5, HumidityMean: 55, WindSpeedMean: 2}}
}

func punjabWheatField(t *testing.T, env *testEnv, userID uuid.UUID) *model.Field {
	t.Helper()
	field := &model.Field{
		UserID:      userID,
		Name:        "wheat block A",
		Boundary:    testBoundary,
		CropType:    "wheat",
		State:       "Punjab",
		District:    "Ludhiana",
		CentroidLat: 31.05,
		CentroidLon: 75.05,
	}
	require.NoError(t, env.fieldRepo.Create(context.Background(), field))
	return field
}

func TestRun_QuietPunjabWheat(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)
	principal := model.Principal{UserID: userID}

	result, err := env.analysis.Run(ctx, principal, field.ID)
	require.NoError(t, err)

	assert.Equal(t, model.HealthGood, result.HealthStatus)
	assert.Empty(t, result.Advisories)
	// No history yet, so prediction passes the raw NDVI mean through.
	assert.Equal(t, 0.65, result.PredictedNDVI)
	assert.Equal(t, "green", result.NDVIColor)
	assert.Empty(t, result.Metrics.Degraded)

	samples, err := env.metricRepo.ListWindow(ctx, field.ID, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.65, samples[0].NDVIMean)
	assert.Equal(t, "Sentinel/NASA", samples[0].DataSource)

	// Field latest-analysis cache updated.
	updated, err := env.fieldRepo.GetByID(ctx, field.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Status)
	assert.Equal(t, model.HealthGood, *updated.Status)
	require.NotNil(t, updated.SoilMoisture)
	assert.Equal(t, 0.5, *updated.SoilMoisture)
}

func TestRun_AllSourcesDownStillSucceeds(t *testing.T) {
	env := newTestEnv(t,
		stubVegetation{err: errors.New("down")},
		stubSoil{err: errors.New("down")},
		stubWeather{err: errors.New("down")},
	)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)

	result, err := env.analysis.Run(ctx, model.Principal{UserID: userID}, field.ID)
	require.NoError(t, err)

	assert.Equal(t, acquisition.DefaultNDVIMean, result.Metrics.NDVIMean)
	// 0.5 does not clear Punjab's 0.5 pest threshold but beats 0.3.
	assert.Equal(t, model.HealthModerate, result.HealthStatus)
	assert.Len(t, result.Metrics.Degraded, 3)

	samples, err := env.metricRepo.ListWindow(ctx, field.ID, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Contains(t, samples[0].DataSource, "degraded")
}

func TestRun_AdvisoriesArePersistedAndLinked(t *testing.T) {
	veg, _, weather := quietSources()
	env := newTestEnv(t, veg, stubSoil{estimate: 0.1}, weather)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)

	result, err := env.analysis.Run(ctx, model.Principal{UserID: userID}, field.ID)
	require.NoError(t, err)

	// Soil 0.1: crop irrigate rule and global irrigate rule, no dedup.
	require.Len(t, result.Advisories, 2)
	assert.Equal(t, model.AlertCritical, result.Advisories[0].Level)
	assert.Equal(t, 1, result.Advisories[0].Priority)

	persisted, err := env.advisoryRepo.ListByField(ctx, field.ID)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	for _, adv := range persisted {
		require.NotNil(t, adv.MetricID)
	}
}

func TestRun_UnknownFieldIsNotFound(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)

	_, err := env.analysis.Run(context.Background(), model.Principal{UserID: uuid.New()}, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRun_FieldWithoutBoundaryIsRejected(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	userID := uuid.New()

	field := &model.Field{UserID: userID, Name: "bare", Boundary: ""}
	require.NoError(t, env.fieldRepo.Create(ctx, field))

	_, err := env.analysis.Run(ctx, model.Principal{UserID: userID}, field.ID)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	// Nothing persisted for a rejected run.
	samples, err := env.metricRepo.ListWindow(ctx, field.ID, time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRun_ForeignFieldIsDenied(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	field := punjabWheatField(t, env, uuid.New())

	_, err := env.analysis.Run(context.Background(), model.Principal{UserID: uuid.New()}, field.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRun_ConcurrentRunsLeaveOneSampleForToday(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)
	principal := model.Principal{UserID: userID}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.analysis.Run(ctx, principal, field.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := env.metricRepo.CountByFieldAndDate(ctx, field.ID, today)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestHistory_RoundTripReclassifiesWithCurrentRegion(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)
	principal := model.Principal{UserID: userID}

	// Backfill two prior days, then run one analysis for today.
	for _, offset := range []int{-2, -1} {
		date := time.Now().AddDate(0, 0, offset)
		sample := &model.MetricSample{
			FieldID:  field.ID,
			Date:     time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			NDVIMean: 0.45,
		}
		require.NoError(t, env.metricRepo.Create(ctx, sample))
	}
	_, err := env.analysis.Run(ctx, principal, field.ID)
	require.NoError(t, err)

	entries, err := env.history.Window(ctx, principal, field.ID, 7)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Date.Before(entries[1].Date))
	assert.True(t, entries[1].Date.Before(entries[2].Date))

	// NDVI 0.45 misses Punjab's 0.5 pest threshold.
	assert.Equal(t, model.HealthModerate, entries[0].HealthStatus)
	assert.Equal(t, model.HealthGood, entries[2].HealthStatus)

	// Moving the field to Gujarat (threshold 0.4) upgrades history on read.
	field.State = "Gujarat"
	require.NoError(t, env.fieldRepo.Update(ctx, field))

	entries, err = env.history.Window(ctx, principal, field.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.HealthGood, entries[0].HealthStatus)
}

func TestRun_TrendModelTrainsFromHistory(t *testing.T) {
	veg, soil, weather := quietSources()
	env := newTestEnv(t, veg, soil, weather)
	ctx := context.Background()
	userID := uuid.New()
	field := punjabWheatField(t, env, userID)
	principal := model.Principal{UserID: userID}

	for i := 1; i <= 6; i++ {
		date := time.Now().AddDate(0, 0, -i)
		sample := &model.MetricSample{
			FieldID:         field.ID,
			Date:            time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			NDVIMean:        0.4 + 0.02*float64(i),
			TempMean:        16 + float64(i),
			RainfallTotal:   float64(i),
			HumidityMean:    50 + float64(i),
			WindSpeedMean:   2,
			SoilMoistureEst: 0.4,
		}
		require.NoError(t, env.metricRepo.Create(ctx, sample))
	}

	result, err := env.analysis.Run(ctx, principal, field.ID)
	require.NoError(t, err)

	// Trained model output is clamped, not a pass-through.
	assert.GreaterOrEqual(t, result.PredictedNDVI, 0.1)
	assert.LessOrEqual(t, result.PredictedNDVI, 0.95)

	// Identical history and bundle: a second service yields the same forecast.
	veg2, soil2, weather2 := quietSources()
	env2 := newTestEnv(t, veg2, soil2, weather2)
	field2 := punjabWheatField(t, env2, userID)
	for i := 1; i <= 6; i++ {
		date := time.Now().AddDate(0, 0, -i)
		sample := &model.MetricSample{
			FieldID:         field2.ID,
			Date:            time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			NDVIMean:        0.4 + 0.02*float64(i),
			TempMean:        16 + float64(i),
			RainfallTotal:   float64(i),
			HumidityMean:    50 + float64(i),
			WindSpeedMean:   2,
			SoilMoistureEst: 0.4,
		}
		require.NoError(t, env2.metricRepo.Create(ctx, sample))
	}
	result2, err := env2.analysis.Run(ctx, principal, field2.ID)
	require.NoError(t, err)
	assert.Equal(t, result.PredictedNDVI, result2.PredictedNDVI)
}
