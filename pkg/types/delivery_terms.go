package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// VesselPosition is the last known position at snapshot time.
type VesselPosition struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VoyageSnapshot captures the active voyage leg at snapshot time.
type VoyageSnapshot struct {
	DeparturePort   string    `json:"departure_port"`
	DestinationPort string    `json:"destination_port"`
	ETA             time.Time `json:"eta"`
}

// DeliveryTerms embeds the vessel context a purchase order was issued
// against. The snapshot documents delivery expectations as of issuance and
// is never refreshed afterwards.
type DeliveryTerms struct {
	VesselName string          `json:"vessel_name"`
	IMONumber  string          `json:"imo_number"`
	Position   *VesselPosition `json:"position,omitempty"`
	Voyage     *VoyageSnapshot `json:"voyage,omitempty"`
	SnapshotAt time.Time       `json:"snapshot_at"`
	Notes      string          `json:"notes,omitempty"`
}
