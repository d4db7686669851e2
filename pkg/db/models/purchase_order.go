package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/enums"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

// PurchaseOrder is the commercial document issued from a selected quote.
// The unique index on quote_id makes generation idempotent per quote.
type PurchaseOrder struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID       uuid.UUID                 `gorm:"column:quote_id;type:uuid;not null;uniqueIndex"`
	RequisitionID uuid.UUID                 `gorm:"column:requisition_id;type:uuid;not null;index"`
	VendorID      uuid.UUID                 `gorm:"column:vendor_id;type:uuid;not null"`
	PONumber      string                    `gorm:"column:po_number;not null;uniqueIndex"`
	Status        enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	TotalAmount   decimal.Decimal           `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency      enums.Currency            `gorm:"column:currency;type:text;not null;default:'USD'"`
	// ExchangeRate is snapshotted at creation against the fleet accounting
	// currency and never refreshed.
	ExchangeRate  decimal.Decimal     `gorm:"column:exchange_rate;type:numeric(14,6);not null;default:1"`
	PaymentTerms  types.PaymentTerms  `gorm:"column:payment_terms;type:jsonb;serializer:json"`
	DeliveryTerms types.DeliveryTerms `gorm:"column:delivery_terms;type:jsonb;serializer:json"`
	Notes         *string             `gorm:"column:notes"`

	// The two confirmations are independent; both must be present before
	// the order advances to delivered.
	DeliveryConfirmedAt *time.Time `gorm:"column:delivery_confirmed_at"`
	ReceiptConfirmedAt  *time.Time `gorm:"column:receipt_confirmed_at"`

	Version   int                 `gorm:"column:version;not null;default:1"`
	LineItems []POLineItem        `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	Receipt   *DeliveryReceipt    `gorm:"foreignKey:PurchaseOrderID"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// POLineItem is one ordered line on a purchase order, copied from the
// winning quote at generation time.
type POLineItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	Position        int             `gorm:"column:position;not null"`
	Name            string          `gorm:"column:name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null"`
}

// POSequence backs the per-calendar-month monotonic PO number counter.
type POSequence struct {
	Month     string `gorm:"column:month;primaryKey"` // YYYYMM
	LastValue int    `gorm:"column:last_value;not null;default:0"`
}

// TableName keeps the historical plural-free name for the counter table.
func (POSequence) TableName() string {
	return "po_sequences"
}
