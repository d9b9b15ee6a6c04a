package advisory

import (
	"fmt"
	"sort"
	"strings"

	"fieldhealth-service/internal/acquisition"
	"fieldhealth-service/internal/model"
	"fieldhealth-service/internal/profile"
)

// Item is one rule firing, ordered by rule-evaluation order. Presentation
// sorts by Priority separately; the engine never reorders.
type Item struct {
	Level model.AlertLevel `json:"level"`
	Text  string           `json:"text"`
}

// Physical plausibility bounds for the global sanity layer.
const (
	soilMoisturePhysMin = 0.0
	soilMoisturePhysMax = 1.0
	tempPhysMinC        = 0.0
	tempPhysMaxC        = 50.0
)

// Engine evaluates the layered advisory rules. It is a pure function of
// (bundle, region, crop type): identical inputs yield an identical ordered
// list. Layers are additive and never deduplicated against each other.
type Engine struct {
	registry *profile.Registry
}

func NewEngine(registry *profile.Registry) *Engine {
	return &Engine{registry: registry}
}

// Evaluate runs all four rule layers in order: region pest risk, region
// disease rules, crop thresholds, global sanity checks.
func (e *Engine) Evaluate(bundle acquisition.Bundle, state, cropType string) []Item {
	var items []Item
	items = append(items, e.regionRules(bundle, state)...)
	items = append(items, e.cropRules(bundle, cropType)...)
	items = append(items, globalRules(bundle)...)
	return items
}

func (e *Engine) regionRules(bundle acquisition.Bundle, state string) []Item {
	region, ok := e.registry.Region(state)
	if !ok {
		return nil
	}

	var items []Item
	if bundle.NDVIMean < region.PestThreshold {
		items = append(items, Item{
			Level: model.AlertWarning,
			Text:  fmt.Sprintf("Pest risk high. NDVI below %g.", region.PestThreshold),
		})
	}

	for _, disease := range sortedDiseases(region.Diseases) {
		rule := region.Diseases[disease]
		if diseaseRisk(bundle, rule) {
			items = append(items, Item{
				Level: diseaseLevel(disease),
				Text:  fmt.Sprintf(region.AdvisoryBase, disease),
			})
		}
	}
	return items
}

// diseaseRisk is the disjunction of the rule's configured conditions;
// unconfigured conditions are not evaluated.
func diseaseRisk(bundle acquisition.Bundle, rule profile.DiseaseRule) bool {
	if rule.NDVIThreshold != nil && bundle.NDVIMean < *rule.NDVIThreshold {
		return true
	}
	if rule.HumidityThreshold != nil && bundle.HumidityMean > *rule.HumidityThreshold {
		return true
	}
	if rule.TempRange != nil && !rule.TempRange.Contains(bundle.TempMean) {
		return true
	}
	if rule.RainfallThreshold != nil && bundle.RainfallTotal > *rule.RainfallThreshold {
		return true
	}
	if rule.SoilMoistureThreshold != nil && bundle.SoilMoistureEst < *rule.SoilMoistureThreshold {
		return true
	}
	return false
}

// diseaseLevel decides the alert level from the disease name. The naming
// convention is inherited behavior: a name containing "threshold" escalates
// to critical. Kept behind this one function so it can be replaced without
// touching rule evaluation.
func diseaseLevel(disease string) model.AlertLevel {
	if strings.Contains(strings.ToLower(disease), "threshold") {
		return model.AlertCritical
	}
	return model.AlertWarning
}

func (e *Engine) cropRules(bundle acquisition.Bundle, cropType string) []Item {
	crop, ok := e.registry.Crop(cropType)
	if !ok {
		return nil
	}

	var items []Item
	if bundle.NDVIMean < crop.OptimalNDVI.Min {
		items = append(items, Item{
			Level: model.AlertCritical,
			Text:  fmt.Sprintf("NDVI low for %s. Check nutrients/pests.", cropType),
		})
	}
	if !crop.TempRange.Contains(bundle.TempMean) {
		items = append(items, Item{
			Level: model.AlertWarning,
			Text:  fmt.Sprintf("Temperature out of range for %s.", cropType),
		})
	}
	if bundle.SoilMoistureEst < crop.MoistureRange.Min {
		items = append(items, Item{
			Level: model.AlertCritical,
			Text:  fmt.Sprintf("Irrigate: Soil moisture low for %s.", cropType),
		})
	} else if bundle.SoilMoistureEst > crop.MoistureRange.Max {
		items = append(items, Item{
			Level: model.AlertWarning,
			Text:  fmt.Sprintf("Check drainage: Soil moisture high for %s.", cropType),
		})
	}
	return items
}

// globalRules apply regardless of region and crop configuration.
func globalRules(bundle acquisition.Bundle) []Item {
	var items []Item
	if bundle.SoilMoistureEst < 0.15 {
		items = append(items, Item{
			Level: model.AlertCritical,
			Text:  "Irrigate immediately to raise soil moisture above 15%.",
		})
	} else if bundle.SoilMoistureEst > 0.7 {
		items = append(items, Item{
			Level: model.AlertWarning,
			Text:  "Reduce irrigation to lower soil moisture below 70%.",
		})
	}
	if bundle.TempMean > 30 {
		items = append(items, Item{
			Level: model.AlertWarning,
			Text:  "Implement shading or cooling measures for heat stress.",
		})
	}
	// Sensor sanity fires on top of the rules above, never instead of them.
	soilOK := bundle.SoilMoistureEst >= soilMoisturePhysMin && bundle.SoilMoistureEst <= soilMoisturePhysMax
	tempOK := bundle.TempMean >= tempPhysMinC && bundle.TempMean <= tempPhysMaxC
	if !soilOK || !tempOK {
		items = append(items, Item{
			Level: model.AlertCritical,
			Text:  "Check sensors for invalid data.",
		})
	}
	return items
}

func sortedDiseases(diseases map[string]profile.DiseaseRule) []string {
	names := make([]string, 0, len(diseases))
	for name := range diseases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
