package enums

import "fmt"

// PurchaseOrderStatus tracks the lifecycle of an issued purchase order.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft        PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent         PurchaseOrderStatus = "sent"
	PurchaseOrderStatusAcknowledged PurchaseOrderStatus = "acknowledged"
	PurchaseOrderStatusInProgress   PurchaseOrderStatus = "in_progress"
	PurchaseOrderStatusDelivered    PurchaseOrderStatus = "delivered"
	PurchaseOrderStatusInvoiced     PurchaseOrderStatus = "invoiced"
	PurchaseOrderStatusPaid         PurchaseOrderStatus = "paid"
	PurchaseOrderStatusCancelled    PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusAcknowledged,
	PurchaseOrderStatusInProgress,
	PurchaseOrderStatusDelivered,
	PurchaseOrderStatusInvoiced,
	PurchaseOrderStatusPaid,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
