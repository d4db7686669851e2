package approvals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// Capability names a fixed role power checked outside the spend-threshold
// logic.
type Capability string

const (
	// CapabilityEmergencyOverride allows bypassing normal approval
	// sequencing for safety-critical, time-sensitive needs.
	CapabilityEmergencyOverride Capability = "emergency_override"
)

// roleRank orders roles from least to most authority. Higher-ranked roles
// may approve anything a lower-ranked role may approve.
var roleRank = map[enums.CrewRole]int{
	enums.CrewRoleCrew:               0,
	enums.CrewRoleOfficer:            1,
	enums.CrewRoleChiefEngineer:      2,
	enums.CrewRoleCaptain:            3,
	enums.CrewRoleProcurementOfficer: 4,
	enums.CrewRoleSuperintendent:     5,
	enums.CrewRoleFleetManager:       6,
}

// authorityCeilings caps the requisition total each role may approve. A nil
// ceiling means unlimited.
var authorityCeilings = map[enums.CrewRole]*decimal.Decimal{
	enums.CrewRoleCrew:               ceiling(0),
	enums.CrewRoleOfficer:            ceiling(5_000),
	enums.CrewRoleChiefEngineer:      ceiling(10_000),
	enums.CrewRoleCaptain:            ceiling(25_000),
	enums.CrewRoleProcurementOfficer: ceiling(50_000),
	enums.CrewRoleSuperintendent:     ceiling(100_000),
	enums.CrewRoleFleetManager:       nil,
}

var roleCapabilities = map[enums.CrewRole][]Capability{
	enums.CrewRoleCaptain:      {CapabilityEmergencyOverride},
	enums.CrewRoleFleetManager: {CapabilityEmergencyOverride},
}

func ceiling(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// RoleRank returns the hierarchy position of a role.
func RoleRank(role enums.CrewRole) int {
	return roleRank[role]
}

// HasCapability reports whether the role carries the fixed capability.
func HasCapability(role enums.CrewRole, cap Capability) bool {
	for _, candidate := range roleCapabilities[role] {
		if candidate == cap {
			return true
		}
	}
	return false
}

// Approver is one member of the authorized actor set. DelegatedFrom is set
// when the authority arrives through an active delegation.
type Approver struct {
	UserID        uuid.UUID
	DelegatedFrom *uuid.UUID
}

// Resolution is the computed approval requirement for one requisition.
type Resolution struct {
	AutoApprove                bool
	RequiredRole               enums.CrewRole
	EmergencyOverrideAvailable bool
	Approvers                  []Approver
}

// ApproverFor looks the actor up in the authorized set. Direct holders win
// over delegated entries for the same user.
func (r Resolution) ApproverFor(actorID uuid.UUID) (Approver, bool) {
	for _, approver := range r.Approvers {
		if approver.UserID == actorID {
			return approver, true
		}
	}
	return Approver{}, false
}

// RequiredRoleFor computes the lowest role whose authority ceiling covers
// the amount. Safety-critical line items force at minimum a superintendent.
func RequiredRoleFor(total decimal.Decimal, safetyCritical bool) enums.CrewRole {
	minRank := roleRank[enums.CrewRoleOfficer]
	if safetyCritical {
		minRank = roleRank[enums.CrewRoleSuperintendent]
	}

	required := enums.CrewRoleFleetManager
	for role, rank := range roleRank {
		if rank < minRank {
			continue
		}
		cap := authorityCeilings[role]
		if cap != nil && cap.LessThan(total) {
			continue
		}
		if rank < roleRank[required] {
			required = role
		}
	}
	return required
}

// Resolve computes the approval requirement for a requisition as a pure
// function of the vessel roster, the active delegation set, and the clock.
// Rules in order: totals strictly below the minor-spend limit auto-approve;
// emergency urgency with an override-capable user present additionally
// exposes the override path; otherwise the lowest covering role is required
// and the actor set is every roster member at or above that role whose
// ceiling covers the total, plus the targets of their active delegations
// carrying the approve-requisitions permission.
func Resolve(
	requisition *models.Requisition,
	vesselUsers []models.User,
	delegations []models.Delegation,
	now time.Time,
	minorSpendLimit decimal.Decimal,
) Resolution {
	resolution := Resolution{}

	safetyCritical := hasSafetyCriticalLines(requisition)
	if !safetyCritical && requisition.TotalAmount.LessThan(minorSpendLimit) {
		resolution.AutoApprove = true
		return resolution
	}

	resolution.RequiredRole = RequiredRoleFor(requisition.TotalAmount, safetyCritical)
	requiredRank := roleRank[resolution.RequiredRole]

	principals := map[uuid.UUID]enums.CrewRole{}
	seen := map[uuid.UUID]bool{}
	for _, user := range vesselUsers {
		if !user.Active {
			continue
		}
		if requisition.UrgencyLevel == enums.UrgencyEmergency &&
			HasCapability(user.Role, CapabilityEmergencyOverride) {
			resolution.EmergencyOverrideAvailable = true
		}
		if roleRank[user.Role] < requiredRank {
			continue
		}
		if cap := authorityCeilings[user.Role]; cap != nil && cap.LessThan(requisition.TotalAmount) {
			continue
		}
		principals[user.ID] = user.Role
		if !seen[user.ID] {
			seen[user.ID] = true
			resolution.Approvers = append(resolution.Approvers, Approver{UserID: user.ID})
		}
	}

	for _, delegation := range delegations {
		if !delegation.ActiveAt(now) {
			continue
		}
		if !delegation.HasPermission(enums.PermissionApproveRequisitions) {
			continue
		}
		if _, ok := principals[delegation.FromUserID]; !ok {
			continue
		}
		if seen[delegation.ToUserID] {
			continue
		}
		seen[delegation.ToUserID] = true
		from := delegation.FromUserID
		resolution.Approvers = append(resolution.Approvers, Approver{
			UserID:        delegation.ToUserID,
			DelegatedFrom: &from,
		})
	}

	return resolution
}

func hasSafetyCriticalLines(requisition *models.Requisition) bool {
	for _, line := range requisition.LineItems {
		if line.Criticality != nil && *line.Criticality == enums.CriticalitySafetyCritical {
			return true
		}
	}
	return false
}
