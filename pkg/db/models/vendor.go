package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a supplier in the directory consulted during RFQ generation.
type Vendor struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	Email      string    `gorm:"column:email;not null"`
	Categories []string  `gorm:"column:categories;type:jsonb;serializer:json"`
	// ServiceAreas holds port/region codes the vendor can deliver to.
	ServiceAreas []string `gorm:"column:service_areas;type:jsonb;serializer:json"`
	// AvgResponseHours orders candidates for emergency requisitions.
	AvgResponseHours int       `gorm:"column:avg_response_hours;not null;default:48"`
	Active           bool      `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
