package enums

import "fmt"

// RequisitionStatus tracks the lifecycle of a requisition.
type RequisitionStatus string

const (
	RequisitionStatusDraft           RequisitionStatus = "draft"
	RequisitionStatusPendingApproval RequisitionStatus = "pending_approval"
	RequisitionStatusApproved        RequisitionStatus = "approved"
	RequisitionStatusRFQIssued       RequisitionStatus = "rfq_issued"
	RequisitionStatusPOIssued        RequisitionStatus = "po_issued"
	RequisitionStatusDelivered       RequisitionStatus = "delivered"
	RequisitionStatusClosed          RequisitionStatus = "closed"
	RequisitionStatusCancelled       RequisitionStatus = "cancelled"
)

var validRequisitionStatuses = []RequisitionStatus{
	RequisitionStatusDraft,
	RequisitionStatusPendingApproval,
	RequisitionStatusApproved,
	RequisitionStatusRFQIssued,
	RequisitionStatusPOIssued,
	RequisitionStatusDelivered,
	RequisitionStatusClosed,
	RequisitionStatusCancelled,
}

// String implements fmt.Stringer.
func (r RequisitionStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RequisitionStatus.
func (r RequisitionStatus) IsValid() bool {
	for _, candidate := range validRequisitionStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (r RequisitionStatus) IsTerminal() bool {
	return r == RequisitionStatusClosed || r == RequisitionStatusCancelled
}

// ParseRequisitionStatus converts raw input into a RequisitionStatus.
func ParseRequisitionStatus(value string) (RequisitionStatus, error) {
	for _, candidate := range validRequisitionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid requisition status %q", value)
}
