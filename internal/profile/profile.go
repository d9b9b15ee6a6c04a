package profile

// Range is a closed [Min, Max] interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// DiseaseRule holds the configured risk conditions for one disease. Any nil
// condition is simply not evaluated; risk is the disjunction of the rest.
type DiseaseRule struct {
	NDVIThreshold         *float64
	HumidityThreshold     *float64
	TempRange             *Range
	RainfallThreshold     *float64
	SoilMoistureThreshold *float64
}

// RegionProfile is the static pest/disease rule set for one administrative
// region (state).
type RegionProfile struct {
	PestThreshold float64
	Diseases      map[string]DiseaseRule
	AdvisoryBase  string // format template taking the disease name
}

// CropProfile is the static optimal-range rule set for one crop type.
type CropProfile struct {
	OptimalNDVI   Range
	TempRange     Range
	MoistureRange Range
}

// DefaultPestThreshold applies when a field's region has no profile.
const DefaultPestThreshold = 0.5

// Registry is an immutable lookup of region and crop profiles. It is built
// once at startup and injected wherever profiles are consulted.
type Registry struct {
	regions map[string]RegionProfile
	crops   map[string]CropProfile
}

func NewRegistry(regions map[string]RegionProfile, crops map[string]CropProfile) *Registry {
	return &Registry{regions: regions, crops: crops}
}

// Region returns the profile for a region key, or ok=false if none exists.
func (r *Registry) Region(state string) (RegionProfile, bool) {
	p, ok := r.regions[state]
	return p, ok
}

// Crop returns the profile for a crop key, or ok=false if none exists.
func (r *Registry) Crop(cropType string) (CropProfile, bool) {
	p, ok := r.crops[cropType]
	return p, ok
}

// PestThreshold returns the region's pest-risk NDVI cutoff, falling back to
// DefaultPestThreshold for unknown regions.
func (r *Registry) PestThreshold(state string) float64 {
	if p, ok := r.regions[state]; ok {
		return p.PestThreshold
	}
	return DefaultPestThreshold
}

func f(v float64) *float64 { return &v }

// DefaultRegistry ships the built-in agronomic rule tables.
func DefaultRegistry() *Registry {
	regions := map[string]RegionProfile{
		"Gujarat": {
			PestThreshold: 0.4,
			Diseases: map[string]DiseaseRule{
				"Rice Blast": {
					NDVIThreshold:     f(0.4),
					HumidityThreshold: f(75.0),
					TempRange:         &Range{Min: 25, Max: 35},
					RainfallThreshold: f(10.0),
				},
				"Bacterial Leaf Blight": {
					NDVIThreshold:     f(0.45),
					HumidityThreshold: f(80.0),
					RainfallThreshold: f(15.0),
				},
			},
			AdvisoryBase: "Check for %s due to high humidity in Gujarat.",
		},
		"Maharashtra": {
			PestThreshold: 0.45,
			Diseases: map[string]DiseaseRule{
				"Powdery Mildew": {
					NDVIThreshold:     f(0.45),
					HumidityThreshold: f(70.0),
					TempRange:         &Range{Min: 20, Max: 30},
				},
				"Downy Mildew": {
					NDVIThreshold:     f(0.5),
					HumidityThreshold: f(85.0),
					RainfallThreshold: f(15.0),
				},
			},
			AdvisoryBase: "Monitor %s in Maharashtra, especially during monsoon.",
		},
		"Rajasthan": {
			PestThreshold: 0.35,
			Diseases: map[string]DiseaseRule{
				"Wilt": {
					NDVIThreshold:         f(0.35),
					SoilMoistureThreshold: f(0.3),
					TempRange:             &Range{Min: 30, Max: 40},
				},
				"Root Rot": {
					NDVIThreshold:     f(0.4),
					RainfallThreshold: f(20.0),
				},
			},
			AdvisoryBase: "Watch for %s in dry Rajasthan conditions.",
		},
		"Punjab": {
			PestThreshold: 0.5,
			Diseases: map[string]DiseaseRule{
				"Yellow Rust": {
					NDVIThreshold:     f(0.5),
					HumidityThreshold: f(60.0),
					TempRange:         &Range{Min: 10, Max: 25},
				},
				"Karnal Bunt": {
					NDVIThreshold:     f(0.45),
					RainfallThreshold: f(10.0),
				},
			},
			AdvisoryBase: "Inspect for %s in Punjab wheat fields.",
		},
	}

	crops := map[string]CropProfile{
		"wheat": {
			OptimalNDVI:   Range{Min: 0.6, Max: 0.85},
			TempRange:     Range{Min: 15, Max: 30},
			MoistureRange: Range{Min: 0.3, Max: 0.7},
		},
		"rice": {
			OptimalNDVI:   Range{Min: 0.65, Max: 0.9},
			TempRange:     Range{Min: 20, Max: 35},
			MoistureRange: Range{Min: 0.5, Max: 0.8},
		},
		"cotton": {
			OptimalNDVI:   Range{Min: 0.55, Max: 0.85},
			TempRange:     Range{Min: 20, Max: 35},
			MoistureRange: Range{Min: 0.4, Max: 0.7},
		},
		"sugarcane": {
			OptimalNDVI:   Range{Min: 0.7, Max: 0.95},
			TempRange:     Range{Min: 25, Max: 35},
			MoistureRange: Range{Min: 0.5, Max: 0.8},
		},
		"maize": {
			OptimalNDVI:   Range{Min: 0.6, Max: 0.9},
			TempRange:     Range{Min: 20, Max: 30},
			MoistureRange: Range{Min: 0.4, Max: 0.7},
		},
	}

	return NewRegistry(regions, crops)
}
