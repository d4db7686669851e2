package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// AccessTokenClaims is the typed JWT issued by the external auth subsystem.
// This service only consumes the identity and role it yields.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Role     enums.CrewRole `json:"role"`
	VesselID *uuid.UUID     `json:"vessel_id,omitempty"`
	jwt.RegisteredClaims
}
