package enums

import "fmt"

// DelegationPermission names a grantable authority inside a delegation window.
type DelegationPermission string

const (
	PermissionApproveRequisitions DelegationPermission = "approve_requisitions"
	PermissionManageBudgets       DelegationPermission = "manage_budgets"
	PermissionSelectQuotes        DelegationPermission = "select_quotes"
)

var validDelegationPermissions = []DelegationPermission{
	PermissionApproveRequisitions,
	PermissionManageBudgets,
	PermissionSelectQuotes,
}

// String implements fmt.Stringer.
func (d DelegationPermission) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DelegationPermission.
func (d DelegationPermission) IsValid() bool {
	for _, candidate := range validDelegationPermissions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDelegationPermission converts raw input into a DelegationPermission.
func ParseDelegationPermission(value string) (DelegationPermission, error) {
	for _, candidate := range validDelegationPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delegation permission %q", value)
}
