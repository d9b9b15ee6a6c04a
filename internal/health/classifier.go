package health

import (
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/profile"
)

// Classifier maps an NDVI value and a region key to an ordinal health
// status. It is a pure function of its inputs and the injected registry, so
// the same classification applies to fresh bundles and historical samples.
type Classifier struct {
	registry *profile.Registry
}

func NewClassifier(registry *profile.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify evaluates the threshold ladder top-down, first match wins.
func (c *Classifier) Classify(ndvi float64, state string) model.HealthStatus {
	switch {
	case ndvi > 0.7:
		return model.HealthExcellent
	case ndvi > c.registry.PestThreshold(state):
		return model.HealthGood
	case ndvi > 0.3:
		return model.HealthModerate
	default:
		return model.HealthPoor
	}
}

// ColorCode buckets an NDVI value for presentation.
func ColorCode(ndvi float64) string {
	switch {
	case ndvi < 0.4:
		return "red"
	case ndvi < 0.6:
		return "yellow"
	default:
		return "green"
	}
}
