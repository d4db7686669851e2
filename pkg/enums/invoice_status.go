package enums

import "fmt"

// InvoiceStatus tracks a vendor invoice through matching and payment approval.
type InvoiceStatus string

const (
	InvoiceStatusSubmitted          InvoiceStatus = "submitted"
	InvoiceStatusMatched            InvoiceStatus = "matched"
	InvoiceStatusApprovedForPayment InvoiceStatus = "approved_for_payment"
	InvoiceStatusDisputed           InvoiceStatus = "disputed"
	InvoiceStatusRejected           InvoiceStatus = "rejected"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusSubmitted,
	InvoiceStatusMatched,
	InvoiceStatusApprovedForPayment,
	InvoiceStatusDisputed,
	InvoiceStatusRejected,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
