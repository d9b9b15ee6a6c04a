package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertLevel string

const (
	AlertCritical AlertLevel = "CRITICAL"
	AlertWarning  AlertLevel = "WARNING"
	AlertInfo     AlertLevel = "INFO"
)

// PriorityFor maps an alert level to its presentation priority.
func PriorityFor(level AlertLevel) int {
	if level == AlertCritical {
		return 1
	}
	return 2
}

// Advisory is one rule firing from an analysis run. MetricID is nullable:
// deleting a sample detaches its advisories instead of deleting them.
type Advisory struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FieldID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"field_id"`
	MetricID  *uuid.UUID `gorm:"type:uuid;index" json:"metric_id"`
	Type      string     `gorm:"type:varchar(100)" json:"type"`
	Text      string     `gorm:"type:text" json:"text"`
	Level     AlertLevel `gorm:"type:varchar(20);default:INFO" json:"level"`
	Priority  int        `gorm:"default:2" json:"priority"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Advisory) TableName() string {
	return "advisories"
}

func (a *Advisory) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
