package enums

import "fmt"

// UrgencyLevel ranks how quickly a requisition must be sourced.
type UrgencyLevel string

const (
	UrgencyRoutine   UrgencyLevel = "routine"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyEmergency UrgencyLevel = "emergency"
)

var validUrgencyLevels = []UrgencyLevel{
	UrgencyRoutine,
	UrgencyUrgent,
	UrgencyEmergency,
}

// String implements fmt.Stringer.
func (u UrgencyLevel) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UrgencyLevel.
func (u UrgencyLevel) IsValid() bool {
	for _, candidate := range validUrgencyLevels {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUrgencyLevel converts raw input into an UrgencyLevel.
func ParseUrgencyLevel(value string) (UrgencyLevel, error) {
	for _, candidate := range validUrgencyLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid urgency level %q", value)
}
