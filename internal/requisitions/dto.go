package requisitions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
)

// LineItemInput is one requested line on a new requisition.
type LineItemInput struct {
	Name        string
	Category    string
	Quantity    int
	UnitPrice   decimal.Decimal
	Criticality *enums.CriticalityLevel
}

// CreateInput carries the fields for a new requisition.
type CreateInput struct {
	VesselID        uuid.UUID
	UrgencyLevel    enums.UrgencyLevel
	Currency        enums.Currency
	LineItems       []LineItemInput
	ComplianceFlags []string
	Actor           audit.Actor
}

// SubmitResult reports the outcome of a submit, including the resolved
// approval level the caller surfaces to the client.
type SubmitResult struct {
	Requisition   *models.Requisition `json:"requisition"`
	ApprovalLevel string              `json:"approval_level"`
	AutoApproved  bool                `json:"auto_approved"`
}

// DecisionInput carries an approve or reject call.
type DecisionInput struct {
	RequisitionID uuid.UUID
	Comments      string
	BudgetCode    *string
	Actor         audit.Actor
}

// OverrideInput carries an emergency override call.
type OverrideInput struct {
	RequisitionID        uuid.UUID
	Reason               string
	SafetyJustification  string
	RequiresPostApproval bool
	Actor                audit.Actor
}

// SyncInput is a client-buffered requisition created while disconnected.
// OfflineTimestamp is the client-observed creation time and is persisted
// uncorrected.
type SyncInput struct {
	CreateInput
	OfflineID        string
	OfflineTimestamp time.Time
}

// SyncResult reports the reconciliation outcome. AlreadySynced marks an
// idempotent replay that performed no writes.
type SyncResult struct {
	Requisition   *models.Requisition `json:"requisition"`
	ApprovalLevel string              `json:"approval_level"`
	AutoApproved  bool                `json:"auto_approved"`
	AlreadySynced bool                `json:"already_synced"`
}

// RFQResult reports RFQ generation, including best-effort notification
// warnings that do not fail the transition.
type RFQResult struct {
	RFQ             *models.RFQ `json:"rfq"`
	VendorsNotified int         `json:"vendors_notified"`
	Warnings        []string    `json:"warnings,omitempty"`
}

// List wraps a paginated requisition page.
type List struct {
	Requisitions []models.Requisition `json:"requisitions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}
