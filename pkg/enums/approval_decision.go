package enums

import "fmt"

// ApprovalDecision records the outcome captured on an ApprovalRecord.
type ApprovalDecision string

const (
	ApprovalDecisionApproved          ApprovalDecision = "approved"
	ApprovalDecisionRejected          ApprovalDecision = "rejected"
	ApprovalDecisionEmergencyOverride ApprovalDecision = "emergency_override"
)

var validApprovalDecisions = []ApprovalDecision{
	ApprovalDecisionApproved,
	ApprovalDecisionRejected,
	ApprovalDecisionEmergencyOverride,
}

// String implements fmt.Stringer.
func (a ApprovalDecision) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalDecision.
func (a ApprovalDecision) IsValid() bool {
	for _, candidate := range validApprovalDecisions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApprovalDecision converts raw input into an ApprovalDecision.
func ParseApprovalDecision(value string) (ApprovalDecision, error) {
	for _, candidate := range validApprovalDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval decision %q", value)
}
