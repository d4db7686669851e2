package requisitions

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/api/middleware"
	"github.com/harborops/seaprocure-backend/api/responses"
	"github.com/harborops/seaprocure-backend/api/validators"
	"github.com/harborops/seaprocure-backend/internal/audit"
	internalrequisitions "github.com/harborops/seaprocure-backend/internal/requisitions"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/logger"
	"github.com/harborops/seaprocure-backend/pkg/pagination"
)

type lineItemRequest struct {
	Name        string          `json:"name" validate:"required"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
	Criticality *string         `json:"criticality,omitempty"`
}

type createRequest struct {
	VesselID        string            `json:"vessel_id" validate:"required,uuid4"`
	UrgencyLevel    string            `json:"urgency_level,omitempty"`
	Currency        string            `json:"currency,omitempty"`
	LineItems       []lineItemRequest `json:"line_items" validate:"required,min=1,dive"`
	ComplianceFlags []string          `json:"compliance_flags,omitempty"`
}

// Create opens a new draft requisition for the caller's vessel.
func Create(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateInput(payload, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requisition, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, requisition)
	}
}

// Get returns one requisition with its line items.
func Get(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requisition, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requisition)
	}
}

// List returns the requisition page for a vessel, newest first.
func List(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		vesselID, err := resolveVesselID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		var filters internalrequisitions.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseRequisitionStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListByVessel(r.Context(), vesselID, pagination.Params{Limit: limit, Cursor: cursor}, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Submit moves a draft into the approval flow.
func Submit(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type decisionRequest struct {
	Comments   string  `json:"comments,omitempty"`
	BudgetCode *string `json:"budget_code,omitempty"`
}

// Approve records an approval decision by the resolved authority.
func Approve(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(svc, logg, svcApprove)
}

// Reject returns the requisition to draft for rework.
func Reject(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(svc, logg, svcReject)
}

type decisionFunc func(svc internalrequisitions.Service, r *http.Request, input internalrequisitions.DecisionInput) (any, error)

func svcApprove(svc internalrequisitions.Service, r *http.Request, input internalrequisitions.DecisionInput) (any, error) {
	return svc.Approve(r.Context(), input)
}

func svcReject(svc internalrequisitions.Service, r *http.Request, input internalrequisitions.DecisionInput) (any, error) {
	return svc.Reject(r.Context(), input)
}

func decisionHandler(svc internalrequisitions.Service, logg *logger.Logger, decide decisionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := decide(svc, r, internalrequisitions.DecisionInput{
			RequisitionID: id,
			Comments:      payload.Comments,
			BudgetCode:    payload.BudgetCode,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Cancel terminates a requisition that has not yet been approved.
func Cancel(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requisition, err := svc.Cancel(r.Context(), id, payload.Reason, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requisition)
	}
}

type overrideRequest struct {
	Reason               string `json:"reason" validate:"required"`
	SafetyJustification  string `json:"safety_justification" validate:"required"`
	RequiresPostApproval bool   `json:"requires_post_approval,omitempty"`
}

// Override applies an emergency approval bypassing the threshold chain.
func Override(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload overrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requisition, err := svc.EmergencyOverride(r.Context(), internalrequisitions.OverrideInput{
			RequisitionID:        id,
			Reason:               payload.Reason,
			SafetyJustification:  payload.SafetyJustification,
			RequiresPostApproval: payload.RequiresPostApproval,
			Actor:                actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requisition)
	}
}

// GenerateRFQ fans the approved requisition out to eligible vendors.
// Notification failures surface as warnings, not errors.
func GenerateRFQ(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GenerateRFQ(r.Context(), id, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessWarnings(w, http.StatusCreated, result, result.Warnings)
	}
}

type syncRequest struct {
	createRequest
	OfflineID        string     `json:"offline_id" validate:"required"`
	OfflineTimestamp *time.Time `json:"offline_timestamp,omitempty"`
}

// Sync folds a client-buffered requisition into the workflow. Replays of the
// same offline id return the existing record unchanged.
func Sync(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		actor, err := middleware.ActorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload syncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		createInput, err := buildCreateInput(payload.createRequest, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalrequisitions.SyncInput{
			CreateInput: createInput,
			OfflineID:   payload.OfflineID,
		}
		if payload.OfflineTimestamp != nil {
			input.OfflineTimestamp = *payload.OfflineTimestamp
		}

		result, err := svc.SyncOffline(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.AlreadySynced {
			responses.WriteSuccess(w, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ApprovalRecords returns the decision history for a requisition.
func ApprovalRecords(svc internalrequisitions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requisitions service unavailable"))
			return
		}

		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListApprovalRecords(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// AuditTrail returns the append-only event trail anchored on the
// requisition, including downstream quote, PO, and invoice events.
func AuditTrail(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		id, err := parseRequisitionID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		trail, err := svc.Trail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trail)
	}
}

func buildCreateInput(payload createRequest, actor audit.Actor) (internalrequisitions.CreateInput, error) {
	var input internalrequisitions.CreateInput

	vesselID, err := uuid.Parse(strings.TrimSpace(payload.VesselID))
	if err != nil {
		return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vessel id")
	}

	urgency := enums.UrgencyLevel("")
	if raw := strings.TrimSpace(payload.UrgencyLevel); raw != "" {
		urgency, err = enums.ParseUrgencyLevel(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid urgency level")
		}
	}
	currency := enums.Currency("")
	if raw := strings.TrimSpace(payload.Currency); raw != "" {
		currency, err = enums.ParseCurrency(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
	}

	lines := make([]internalrequisitions.LineItemInput, 0, len(payload.LineItems))
	for _, line := range payload.LineItems {
		item := internalrequisitions.LineItemInput{
			Name:      line.Name,
			Category:  line.Category,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.Criticality != nil {
			criticality, err := enums.ParseCriticalityLevel(*line.Criticality)
			if err != nil {
				return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid criticality")
			}
			item.Criticality = &criticality
		}
		lines = append(lines, item)
	}

	return internalrequisitions.CreateInput{
		VesselID:        vesselID,
		UrgencyLevel:    urgency,
		Currency:        currency,
		LineItems:       lines,
		ComplianceFlags: payload.ComplianceFlags,
		Actor:           actor,
	}, nil
}

func parseRequisitionID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "requisitionId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "requisition id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid requisition id")
	}
	return id, nil
}

// resolveVesselID prefers an explicit vessel_id query parameter (shore-side
// roles browse any vessel) and falls back to the token's vessel scope.
func resolveVesselID(r *http.Request) (uuid.UUID, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("vessel_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vessel id")
		}
		return id, nil
	}
	if vesselID, ok := middleware.VesselIDFromContext(r.Context()); ok {
		return vesselID, nil
	}
	return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "vessel id required")
}
