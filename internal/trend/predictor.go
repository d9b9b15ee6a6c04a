package trend

import (
	"sync"

	"github.com/google/uuid"

	"fieldhealth-service/internal/acquisition"
	"fieldhealth-service/internal/model"
)

// minTrainingSamples is the smallest history that supports training:
// strictly more than four samples.
const minTrainingSamples = 5

// Clamp bounds on predictions, guarding against extrapolation outside the
// plausible NDVI range.
const (
	predictionFloor   = 0.1
	predictionCeiling = 0.95
)

// Predictor owns the per-field trend models. Models are ephemeral: trained
// lazily from history, never persisted, and retrained at the start of every
// analysis run.
type Predictor struct {
	mu     sync.Mutex
	models map[uuid.UUID]*forest
}

func NewPredictor() *Predictor {
	return &Predictor{models: make(map[uuid.UUID]*forest)}
}

// Retrain rebuilds the field's model from the given history. With fewer than
// minTrainingSamples entries the call is a no-op and any previously trained
// model is kept.
func (p *Predictor) Retrain(fieldID uuid.UUID, history []model.MetricSample) {
	if len(history) < minTrainingSamples {
		return
	}

	x := make([][]float64, len(history))
	y := make([]float64, len(history))
	for i, s := range history {
		x[i] = featuresOf(s)
		y[i] = s.NDVIMean
	}
	trained := fitForest(x, y)

	p.mu.Lock()
	p.models[fieldID] = trained
	p.mu.Unlock()
}

// Predict forecasts the next NDVI mean from the bundle's feature vector. An
// untrained field passes the bundle's NDVI mean through unchanged; a trained
// model's output is clamped to [predictionFloor, predictionCeiling].
func (p *Predictor) Predict(fieldID uuid.UUID, bundle acquisition.Bundle) float64 {
	p.mu.Lock()
	trained := p.models[fieldID]
	p.mu.Unlock()

	if trained == nil {
		return bundle.NDVIMean
	}

	predicted := trained.predict([]float64{
		bundle.TempMean,
		bundle.RainfallTotal,
		bundle.HumidityMean,
		bundle.WindSpeedMean,
		bundle.SoilMoistureEst,
	})
	return clamp(predicted, predictionFloor, predictionCeiling)
}

// Trained reports whether a model exists for the field.
func (p *Predictor) Trained(fieldID uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.models[fieldID] != nil
}

func featuresOf(s model.MetricSample) []float64 {
	return []float64{
		s.TempMean,
		s.RainfallTotal,
		s.HumidityMean,
		s.WindSpeedMean,
		s.SoilMoistureEst,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
