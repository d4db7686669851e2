package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/enums"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

// Invoice is a vendor bill raised against a purchase order, reconciled by
// the three-way matching engine before any payment approval.
type Invoice struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID           `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	VendorID        uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	InvoiceNumber   string              `gorm:"column:invoice_number;not null"`
	Status          enums.InvoiceStatus `gorm:"column:status;type:text;not null;default:'submitted'"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency        enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	MatchResult     *types.MatchResult  `gorm:"column:match_result;type:jsonb;serializer:json"`
	Version         int                 `gorm:"column:version;not null;default:1"`
	LineItems       []InvoiceLineItem   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// InvoiceLineItem is one billed line on a vendor invoice.
type InvoiceLineItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID  uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	Position   int             `gorm:"column:position;not null"`
	Name       string          `gorm:"column:name;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null"`
}
