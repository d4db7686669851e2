package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxVesselID contextKey = "vessel_id"
)

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

// UserIDFromContext returns the authenticated user id, or uuid.Nil when the
// request never passed the auth middleware.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func WithRole(ctx context.Context, role enums.CrewRole) context.Context {
	return context.WithValue(ctx, ctxRole, role)
}

func RoleFromContext(ctx context.Context) enums.CrewRole {
	if role, ok := ctx.Value(ctxRole).(enums.CrewRole); ok {
		return role
	}
	return ""
}

func WithVesselID(ctx context.Context, vesselID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxVesselID, vesselID)
}

// VesselIDFromContext returns the vessel the token is scoped to. Shore-side
// roles carry no vessel assignment, so ok is false for them.
func VesselIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if id, ok := ctx.Value(ctxVesselID).(uuid.UUID); ok {
		return id, true
	}
	return uuid.Nil, false
}
