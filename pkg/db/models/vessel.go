package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vessel carries the operational context snapshotted onto purchase orders.
// Position and voyage fields are maintained by the external tracking
// integration and read here at PO generation time.
type Vessel struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	IMONumber string    `gorm:"column:imo_number;not null;uniqueIndex"`

	PositionLat       *decimal.Decimal `gorm:"column:position_lat;type:numeric(9,6)"`
	PositionLon       *decimal.Decimal `gorm:"column:position_lon;type:numeric(9,6)"`
	PositionUpdatedAt *time.Time       `gorm:"column:position_updated_at"`

	VoyageDeparture   *string    `gorm:"column:voyage_departure"`
	VoyageDestination *string    `gorm:"column:voyage_destination"`
	VoyageETA         *time.Time `gorm:"column:voyage_eta"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
