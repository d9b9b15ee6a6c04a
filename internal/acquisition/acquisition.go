package acquisition

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fieldhealth-service/internal/client"
	"fieldhealth-service/internal/geometry"
)

// Window durations. Vegetation and soil signals always use a fixed 7-day
// trailing window; the weather window is configurable.
const sensingWindowDays = 7

// Bundle is the fused metrics result of one acquisition pass. Acquisition
// never fails: any source that errors is replaced with the neutral defaults
// below and listed in Degraded.
type Bundle struct {
	NDVIMean        float64  `json:"ndvi_mean"`
	NDVIMin         float64  `json:"ndvi_min"`
	NDVIMax         float64  `json:"ndvi_max"`
	EVIMean         float64  `json:"evi_mean"`
	CloudCoverage   float64  `json:"cloud_coverage"`
	ValidPixels     int      `json:"valid_pixels"`
	SoilMoistureEst float64  `json:"soil_moisture_est"`
	TempMean        float64  `json:"temp_mean"`
	RainfallTotal   float64  `json:"rainfall_total"`
	HumidityMean    float64  `json:"humidity_mean"`
	WindSpeedMean   float64  `json:"wind_speed_mean"`
	Degraded        []string `json:"degraded,omitempty"`
}

// Neutral defaults substituted when a source fails. Availability beats
// accuracy: the orchestrator always returns a bundle.
const (
	DefaultNDVIMean      = 0.5
	DefaultNDVIMin       = 0.4
	DefaultNDVIMax       = 0.6
	DefaultCloudCoverage = 0.0
	DefaultValidPixels   = 1000
	DefaultSoilMoisture  = 0.3
	DefaultTempMean      = 25.0
	DefaultRainfall      = 0.0
	DefaultHumidity      = 50.0
	DefaultWindSpeed     = 2.0
)

// VegetationSource produces NDVI aggregates for a bounding box and window.
type VegetationSource interface {
	FetchNDVI(ctx context.Context, bbox geometry.BBox, from, to time.Time) (*client.NDVIStats, error)
}

// SoilMoistureSource produces a scalar soil-moisture estimate.
type SoilMoistureSource interface {
	FetchSoilMoisture(ctx context.Context, bbox geometry.BBox, from, to time.Time) (float64, error)
}

// WeatherSource produces trailing-window weather aggregates for a point.
type WeatherSource interface {
	FetchAggregates(ctx context.Context, lat, lon float64, days int) (*client.WeatherAggregates, error)
}

// Orchestrator fetches the three signal sources independently and fuses
// them into a Bundle, substituting defaults per source on failure.
type Orchestrator struct {
	vegetation  VegetationSource
	soil        SoilMoistureSource
	weather     WeatherSource
	weatherDays int
	log         zerolog.Logger
}

func NewOrchestrator(
	vegetation VegetationSource,
	soil SoilMoistureSource,
	weather WeatherSource,
	weatherDays int,
	log zerolog.Logger,
) *Orchestrator {
	if weatherDays <= 0 {
		weatherDays = sensingWindowDays
	}
	return &Orchestrator{
		vegetation:  vegetation,
		soil:        soil,
		weather:     weather,
		weatherDays: weatherDays,
		log:         log,
	}
}

// Fetch acquires all three sources for the field's bounding region and
// centroid. The calls run concurrently; each source degrades independently,
// so ordering never affects the result.
func (o *Orchestrator) Fetch(ctx context.Context, bbox geometry.BBox, lat, lon float64) Bundle {
	to := time.Now()
	from := to.AddDate(0, 0, -sensingWindowDays)

	var (
		wg      sync.WaitGroup
		ndvi    *client.NDVIStats
		ndviErr error
		soil    float64
		soilErr error
		weather *client.WeatherAggregates
		wxErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		ndvi, ndviErr = o.vegetation.FetchNDVI(ctx, bbox, from, to)
	}()
	go func() {
		defer wg.Done()
		soil, soilErr = o.soil.FetchSoilMoisture(ctx, bbox, from, to)
	}()
	go func() {
		defer wg.Done()
		weather, wxErr = o.weather.FetchAggregates(ctx, lat, lon, o.weatherDays)
	}()
	wg.Wait()

	bundle := Bundle{EVIMean: 0} // EVI placeholder, not yet computed upstream

	if ndviErr != nil || ndvi == nil {
		o.degrade(&bundle, "vegetation", ndviErr)
		bundle.NDVIMean = DefaultNDVIMean
		bundle.NDVIMin = DefaultNDVIMin
		bundle.NDVIMax = DefaultNDVIMax
		bundle.CloudCoverage = DefaultCloudCoverage
		bundle.ValidPixels = DefaultValidPixels
	} else {
		bundle.NDVIMean = ndvi.Mean
		bundle.NDVIMin = ndvi.Min
		bundle.NDVIMax = ndvi.Max
		bundle.CloudCoverage = ndvi.CloudCoverage
		bundle.ValidPixels = ndvi.ValidPixels
	}

	if soilErr != nil {
		o.degrade(&bundle, "soil-moisture", soilErr)
		bundle.SoilMoistureEst = DefaultSoilMoisture
	} else {
		bundle.SoilMoistureEst = soil
	}

	if wxErr != nil || weather == nil {
		o.degrade(&bundle, "weather", wxErr)
		bundle.TempMean = DefaultTempMean
		bundle.RainfallTotal = DefaultRainfall
		bundle.HumidityMean = DefaultHumidity
		bundle.WindSpeedMean = DefaultWindSpeed
	} else {
		bundle.TempMean = weather.TempMean
		bundle.RainfallTotal = weather.RainfallTotal
		bundle.HumidityMean = weather.HumidityMean
		bundle.WindSpeedMean = weather.WindSpeedMean
	}

	return bundle
}

func (o *Orchestrator) degrade(bundle *Bundle, source string, err error) {
	bundle.Degraded = append(bundle.Degraded, source)
	o.log.Warn().Err(err).Str("source", source).Msg("acquisition degraded, using defaults")
}
