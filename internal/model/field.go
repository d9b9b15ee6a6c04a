package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HealthStatus string

const (
	HealthExcellent HealthStatus = "Excellent"
	HealthGood      HealthStatus = "Good"
	HealthModerate  HealthStatus = "Moderate"
	HealthPoor      HealthStatus = "Poor"
)

type Field struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Boundary    string    `gorm:"type:text;not null" json:"boundary"`
	AreaHa      float64   `json:"area_ha"`
	CropType    string    `gorm:"type:varchar(100)" json:"crop_type"`
	CropStage   string    `gorm:"type:varchar(100)" json:"crop_stage"`
	Season      string    `gorm:"type:varchar(100)" json:"season"`
	CentroidLat float64   `json:"centroid_lat"`
	CentroidLon float64   `json:"centroid_lon"`
	State       string    `gorm:"type:varchar(100);index" json:"state"`
	District    string    `gorm:"type:varchar(100)" json:"district"`

	// Latest-analysis cache, refreshed by every analysis run.
	SoilMoisture *float64      `json:"soil_moisture"`
	Temperature  *float64      `json:"temperature"`
	Status       *HealthStatus `gorm:"type:varchar(20)" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Field) TableName() string {
	return "fields"
}

func (f *Field) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
