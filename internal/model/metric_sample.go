package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MetricSample is one fused remote-sensing/weather observation for a field.
// Samples are immutable once written; exactly one is created per analysis run.
type MetricSample struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FieldID          uuid.UUID `gorm:"type:uuid;not null;index" json:"field_id"`
	Date             time.Time `gorm:"type:date;not null;index" json:"date"`
	NDVIMean         float64   `json:"ndvi_mean"`
	NDVIMin          float64   `json:"ndvi_min"`
	NDVIMax          float64   `json:"ndvi_max"`
	EVIMean          float64   `json:"evi_mean"`
	TempMean         float64   `json:"temp_mean"`
	RainfallTotal    float64   `json:"rainfall_total"`
	HumidityMean     float64   `json:"humidity_mean"`
	WindSpeedMean    float64   `json:"wind_speed_mean"`
	CloudCoverage    float64   `json:"cloud_coverage"`
	ValidPixels      int       `json:"valid_pixels"`
	SoilMoistureEst  float64   `json:"soil_moisture_est"`
	DataSource       string    `gorm:"type:varchar(255)" json:"data_source"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MetricSample) TableName() string {
	return "metric_samples"
}

func (m *MetricSample) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
