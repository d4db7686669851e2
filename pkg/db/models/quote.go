package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// Quote is one vendor's response to an RFQ. Many quotes may exist per RFQ;
// exactly one may ever reach selected.
type Quote struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	RFQID        uuid.UUID         `gorm:"column:rfq_id;type:uuid;not null;index"`
	VendorID     uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null"`
	Status       enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'submitted'"`
	TotalAmount  decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Currency     enums.Currency    `gorm:"column:currency;type:text;not null;default:'USD'"`
	LeadTimeDays int               `gorm:"column:lead_time_days;not null;default:0"`
	NetDays      int               `gorm:"column:net_days;not null;default:30"`
	Terms        *string           `gorm:"column:terms"`
	// SelectionReason is recorded when the quote wins or loses selection.
	SelectionReason *string         `gorm:"column:selection_reason"`
	LineItems       []QuoteLineItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// QuoteLineItem is one priced line on a vendor quote.
type QuoteLineItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID    uuid.UUID       `gorm:"column:quote_id;type:uuid;not null;index"`
	Position   int             `gorm:"column:position;not null"`
	Name       string          `gorm:"column:name;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null"`
}
