package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/types"
)

// DeliveryReceipt is the crew-side confirmation of what actually arrived on
// board. Received quantities may differ from ordered quantities; the
// difference is recorded, not reconciled.
type DeliveryReceipt struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID           `gorm:"column:purchase_order_id;type:uuid;not null;uniqueIndex"`
	ConfirmedBy     uuid.UUID           `gorm:"column:confirmed_by;type:uuid;not null"`
	Condition       string              `gorm:"column:condition;not null"`
	Lines           []types.ReceiptLine `gorm:"column:lines;type:jsonb;serializer:json"`
	Notes           *string             `gorm:"column:notes"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}
