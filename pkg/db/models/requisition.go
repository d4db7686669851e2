package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// Requisition is a crew-initiated request for goods or services aboard a
// vessel. It is never deleted; terminal states are closed/cancelled.
type Requisition struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	VesselID     uuid.UUID               `gorm:"column:vessel_id;type:uuid;not null;index"`
	RequesterID  uuid.UUID               `gorm:"column:requester_id;type:uuid;not null"`
	Status       enums.RequisitionStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	UrgencyLevel enums.UrgencyLevel      `gorm:"column:urgency_level;type:text;not null;default:'routine'"`
	Currency     enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	TotalAmount  decimal.Decimal         `gorm:"column:total_amount;type:numeric(14,2);not null"`

	ComplianceFlags []string `gorm:"column:compliance_flags;type:jsonb;serializer:json"`

	// Offline-first reconciliation fields. OfflineID is the client-supplied
	// idempotency key; OfflineTimestamp is client-observed creation time and
	// is never corrected server-side.
	CreatedOffline   bool       `gorm:"column:created_offline;not null;default:false"`
	OfflineID        *string    `gorm:"column:offline_id;uniqueIndex"`
	OfflineTimestamp *time.Time `gorm:"column:offline_timestamp"`

	EmergencyOverride    bool `gorm:"column:emergency_override;not null;default:false"`
	PendingDocumentation bool `gorm:"column:pending_documentation;not null;default:false"`

	// Version is the optimistic concurrency counter; every state-changing
	// write is conditioned on it being unchanged since the read.
	Version int `gorm:"column:version;not null;default:1"`

	LineItems []RequisitionLineItem `gorm:"foreignKey:RequisitionID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// RequisitionLineItem is one ordered line on a requisition.
type RequisitionLineItem struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	RequisitionID uuid.UUID               `gorm:"column:requisition_id;type:uuid;not null;index"`
	Position      int                     `gorm:"column:position;not null"`
	Name          string                  `gorm:"column:name;not null"`
	Category      string                  `gorm:"column:category"`
	Quantity      int                     `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal         `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalPrice    decimal.Decimal         `gorm:"column:total_price;type:numeric(14,2);not null"`
	Criticality   *enums.CriticalityLevel `gorm:"column:criticality;type:text"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
