package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// RFQ is the request-for-quote fanned out to candidate vendors after a
// requisition is approved. A requisition has at most one active RFQ, which
// the unique index on requisition_id enforces.
type RFQ struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RequisitionID uuid.UUID          `gorm:"column:requisition_id;type:uuid;not null;uniqueIndex"`
	VendorIDs     []uuid.UUID        `gorm:"column:vendor_ids;type:jsonb;serializer:json"`
	UrgencyLevel  enums.UrgencyLevel `gorm:"column:urgency_level;type:text;not null"`
	Deadline      time.Time          `gorm:"column:deadline;not null"`
	Quotes        []Quote            `gorm:"foreignKey:RFQID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
