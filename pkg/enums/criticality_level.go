package enums

import "fmt"

// CriticalityLevel classifies how essential a line item is to vessel operation.
type CriticalityLevel string

const (
	CriticalityNormal         CriticalityLevel = "normal"
	CriticalityImportant      CriticalityLevel = "important"
	CriticalitySafetyCritical CriticalityLevel = "safety_critical"
)

var validCriticalityLevels = []CriticalityLevel{
	CriticalityNormal,
	CriticalityImportant,
	CriticalitySafetyCritical,
}

// String implements fmt.Stringer.
func (c CriticalityLevel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CriticalityLevel.
func (c CriticalityLevel) IsValid() bool {
	for _, candidate := range validCriticalityLevels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCriticalityLevel converts raw input into a CriticalityLevel.
func ParseCriticalityLevel(value string) (CriticalityLevel, error) {
	for _, candidate := range validCriticalityLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid criticality level %q", value)
}
