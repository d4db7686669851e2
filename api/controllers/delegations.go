package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/api/validators"
	internalapprovals "github.com/harborops/seaprocure-backend/internal/approvals"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
)

type delegationCreateRequest struct {
	ToUserID    string    `json:"to_user_id" validate:"required,uuid4"`
	VesselID    string    `json:"vessel_id" validate:"required,uuid4"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Permissions []string  `json:"permissions" validate:"required,min=1"`
	Reason      string    `json:"reason" validate:"required"`
}

// DelegationCreate opens a delegation window from the authenticated user to
// another crew member.
func DelegationCreate(svc internalapprovals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload delegationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		toUserID, err := uuid.Parse(strings.TrimSpace(payload.ToUserID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to_user_id"))
			return
		}
		vesselID, err := uuid.Parse(strings.TrimSpace(payload.VesselID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vessel id"))
			return
		}

		permissions := make([]enums.DelegationPermission, 0, len(payload.Permissions))
		for _, raw := range payload.Permissions {
			permission, err := enums.ParseDelegationPermission(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permission"))
				return
			}
			permissions = append(permissions, permission)
		}

		delegation, err := svc.CreateDelegation(r.Context(), internalapprovals.CreateDelegationInput{
			FromUserID:  actor.UserID,
			ToUserID:    toUserID,
			VesselID:    vesselID,
			StartDate:   payload.StartDate,
			EndDate:     payload.EndDate,
			Permissions: permissions,
			Reason:      payload.Reason,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, delegation)
	}
}

// DelegationList returns delegations granted by or to the authenticated
// user.
func DelegationList(svc internalapprovals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delegations, err := svc.ListDelegations(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, delegations)
	}
}
