package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// Delegation is a time-bounded grant of one user's authority to another on a
// vessel. It expires when now() falls outside [StartDate, EndDate); no
// explicit deletion is required for correctness.
type Delegation struct {
	ID          uuid.UUID                    `gorm:"column:id;type:uuid;primaryKey"`
	FromUserID  uuid.UUID                    `gorm:"column:from_user_id;type:uuid;not null;index"`
	ToUserID    uuid.UUID                    `gorm:"column:to_user_id;type:uuid;not null;index"`
	VesselID    uuid.UUID                    `gorm:"column:vessel_id;type:uuid;not null;index"`
	StartDate   time.Time                    `gorm:"column:start_date;not null"`
	EndDate     time.Time                    `gorm:"column:end_date;not null"`
	Permissions []enums.DelegationPermission `gorm:"column:permissions;type:jsonb;serializer:json"`
	Reason      string                       `gorm:"column:reason"`
	CreatedAt   time.Time                    `gorm:"column:created_at;autoCreateTime"`
}

// ActiveAt reports whether the delegation window covers the given instant.
func (d Delegation) ActiveAt(now time.Time) bool {
	return !now.Before(d.StartDate) && now.Before(d.EndDate)
}

// HasPermission reports whether the delegation grants the permission.
func (d Delegation) HasPermission(perm enums.DelegationPermission) bool {
	for _, candidate := range d.Permissions {
		if candidate == perm {
			return true
		}
	}
	return false
}
