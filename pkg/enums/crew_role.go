package enums

import "fmt"

// CrewRole is the closed set of organizational roles that can act on
// procurement workflows. Authority ceilings and capabilities for each role
// live in the approvals resolver's lookup tables.
type CrewRole string

const (
	CrewRoleCrew               CrewRole = "crew"
	CrewRoleOfficer            CrewRole = "officer"
	CrewRoleChiefEngineer      CrewRole = "chief_engineer"
	CrewRoleCaptain            CrewRole = "captain"
	CrewRoleSuperintendent     CrewRole = "superintendent"
	CrewRoleFleetManager       CrewRole = "fleet_manager"
	CrewRoleProcurementOfficer CrewRole = "procurement_officer"
)

var validCrewRoles = []CrewRole{
	CrewRoleCrew,
	CrewRoleOfficer,
	CrewRoleChiefEngineer,
	CrewRoleCaptain,
	CrewRoleSuperintendent,
	CrewRoleFleetManager,
	CrewRoleProcurementOfficer,
}

// String implements fmt.Stringer.
func (c CrewRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CrewRole.
func (c CrewRole) IsValid() bool {
	for _, candidate := range validCrewRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCrewRole converts raw input into a CrewRole.
func ParseCrewRole(value string) (CrewRole, error) {
	for _, candidate := range validCrewRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid crew role %q", value)
}
