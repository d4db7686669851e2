package requisitions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/approvals"
	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/metrics"
	"github.com/harborops/seaprocure-backend/pkg/pagination"
)

const entityType = "requisition"

// approvalLevelAuto is surfaced as the approvalLevel when no human approver
// is required.
const approvalLevelAuto = "auto_approved"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type authorityResolver interface {
	Resolve(ctx context.Context, requisition *models.Requisition) (approvals.Resolution, error)
	CanEmergencyOverride(ctx context.Context, actorID uuid.UUID, vesselID uuid.UUID) (bool, error)
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// rfqIssuer creates the RFQ row inside the caller's transaction and returns
// the vendor set to notify after commit.
type rfqIssuer interface {
	IssueForRequisition(ctx context.Context, tx *gorm.DB, requisition *models.Requisition) (*models.RFQ, []models.Vendor, error)
}

type vendorNotifier interface {
	NotifyRFQIssued(ctx context.Context, rfq *models.RFQ, vendorList []models.Vendor) error
}

// Service owns the requisition lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Requisition, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Requisition, error)
	ListByVessel(ctx context.Context, vesselID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error)
	ListApprovalRecords(ctx context.Context, requisitionID uuid.UUID) ([]models.ApprovalRecord, error)
	Submit(ctx context.Context, id uuid.UUID, actor audit.Actor) (*SubmitResult, error)
	Approve(ctx context.Context, input DecisionInput) (*models.Requisition, error)
	Reject(ctx context.Context, input DecisionInput) (*models.Requisition, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actor audit.Actor) (*models.Requisition, error)
	EmergencyOverride(ctx context.Context, input OverrideInput) (*models.Requisition, error)
	GenerateRFQ(ctx context.Context, id uuid.UUID, actor audit.Actor) (*RFQResult, error)
	SyncOffline(ctx context.Context, input SyncInput) (*SyncResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	resolver authorityResolver
	rfq      rfqIssuer
	notifier vendorNotifier
	audit    auditRecorder
	metrics  *metrics.WorkflowMetrics
	cfg      config.ProcurementConfig
	now      func() time.Time
}

// NewService builds the requisition service with the required dependencies.
// The metrics sink may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	resolver authorityResolver,
	rfq rfqIssuer,
	notifier vendorNotifier,
	auditSvc auditRecorder,
	workflowMetrics *metrics.WorkflowMetrics,
	cfg config.ProcurementConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requisitions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("authority resolver required")
	}
	if rfq == nil {
		return nil, fmt.Errorf("rfq issuer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("vendor notifier required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		resolver: resolver,
		rfq:      rfq,
		notifier: notifier,
		audit:    auditSvc,
		metrics:  workflowMetrics,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// Create validates every line item before anything touches the database, so
// a bad line never leaves partial state behind.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Requisition, error) {
	requisition, err := s.buildRequisition(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, requisition); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create requisition")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionCreated,
			Actor:      input.Actor,
			Details: map[string]any{
				"total_amount": requisition.TotalAmount.String(),
				"currency":     requisition.Currency.String(),
				"line_items":   len(requisition.LineItems),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionCreated))
	return requisition, nil
}

func (s *service) buildRequisition(input CreateInput) (*models.Requisition, error) {
	if input.VesselID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vessel id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	urgency := input.UrgencyLevel
	if urgency == "" {
		urgency = enums.UrgencyRoutine
	}
	if !urgency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown urgency level %q", urgency))
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown currency %q", currency))
	}

	requisitionID := uuid.New()
	total := decimal.Zero
	lines := make([]models.RequisitionLineItem, 0, len(input.LineItems))
	for i, line := range input.LineItems {
		if line.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: name required", i+1))
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price must not be negative", i+1))
		}
		if line.Criticality != nil && !line.Criticality.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unknown criticality", i+1))
		}

		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, models.RequisitionLineItem{
			ID:            uuid.New(),
			RequisitionID: requisitionID,
			Position:      i + 1,
			Name:          line.Name,
			Category:      line.Category,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalPrice:    lineTotal,
			Criticality:   line.Criticality,
		})
	}

	return &models.Requisition{
		ID:              requisitionID,
		VesselID:        input.VesselID,
		RequesterID:     input.Actor.UserID,
		Status:          enums.RequisitionStatusDraft,
		UrgencyLevel:    urgency,
		Currency:        currency,
		TotalAmount:     total,
		ComplianceFlags: input.ComplianceFlags,
		Version:         1,
		LineItems:       lines,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Requisition, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requisition id required")
	}
	requisition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "requisition not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requisition")
	}
	return requisition, nil
}

func (s *service) ListByVessel(ctx context.Context, vesselID uuid.UUID, params pagination.Params, filters ListFilters) (*List, error) {
	if vesselID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vessel id required")
	}
	rows, next, err := s.repo.ListByVessel(ctx, vesselID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requisitions")
	}
	return &List{Requisitions: rows, NextCursor: next}, nil
}

func (s *service) ListApprovalRecords(ctx context.Context, requisitionID uuid.UUID) ([]models.ApprovalRecord, error) {
	if requisitionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requisition id required")
	}
	records, err := s.repo.ListApprovalRecords(ctx, requisitionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list approval records")
	}
	return records, nil
}

// Submit moves a draft into the approval flow. Totals below the minor-spend
// limit skip human approval entirely and land in approved with a synthetic
// approval record.
func (s *service) Submit(ctx context.Context, id uuid.UUID, actor audit.Actor) (*SubmitResult, error) {
	requisition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requisition.Status != enums.RequisitionStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft requisitions can be submitted")
	}

	resolution, err := s.resolver.Resolve(ctx, requisition)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Requisition: requisition}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if resolution.AutoApprove {
			if err := s.casTransition(ctx, repo, requisition, enums.RequisitionStatusApproved, nil); err != nil {
				return err
			}
			record := &models.ApprovalRecord{
				ID:            uuid.New(),
				RequisitionID: requisition.ID,
				ApproverID:    actor.UserID,
				Decision:      enums.ApprovalDecisionApproved,
				Comments:      "auto-approved below minor spend limit",
				Synthetic:     true,
			}
			if err := repo.CreateApprovalRecord(ctx, record); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create approval record")
			}
			result.ApprovalLevel = approvalLevelAuto
			result.AutoApproved = true
		} else {
			if err := s.casTransition(ctx, repo, requisition, enums.RequisitionStatusPendingApproval, nil); err != nil {
				return err
			}
			result.ApprovalLevel = resolution.RequiredRole.String()
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionSubmitted,
			Actor:      actor,
			Details:    map[string]any{"approval_level": result.ApprovalLevel},
		}); err != nil {
			return err
		}
		if result.AutoApproved {
			return s.audit.Record(ctx, tx, audit.Entry{
				EntityID:   requisition.ID,
				EntityType: entityType,
				Action:     enums.AuditActionApproved,
				Actor:      actor,
				Details:    map[string]any{"synthetic": true},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionSubmitted))
	result.Requisition.Status = enums.RequisitionStatusPendingApproval
	if result.AutoApproved {
		result.Requisition.Status = enums.RequisitionStatusApproved
	}
	result.Requisition.Version++
	return result, nil
}

// Approve is a compare-and-swap on (status, version): of N concurrent
// callers observing pending_approval, exactly one wins.
func (s *service) Approve(ctx context.Context, input DecisionInput) (*models.Requisition, error) {
	return s.decide(ctx, input, enums.ApprovalDecisionApproved)
}

// Reject returns the requisition to draft for resubmission.
func (s *service) Reject(ctx context.Context, input DecisionInput) (*models.Requisition, error) {
	return s.decide(ctx, input, enums.ApprovalDecisionRejected)
}

func (s *service) decide(ctx context.Context, input DecisionInput, decision enums.ApprovalDecision) (*models.Requisition, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	requisition, err := s.Get(ctx, input.RequisitionID)
	if err != nil {
		return nil, err
	}
	if requisition.Status != enums.RequisitionStatusPendingApproval {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "requisition is not pending approval")
	}

	resolution, err := s.resolver.Resolve(ctx, requisition)
	if err != nil {
		return nil, err
	}
	approver, ok := resolution.ApproverFor(input.Actor.UserID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor lacks the resolved approval authority")
	}

	target := enums.RequisitionStatusApproved
	action := enums.AuditActionApproved
	if decision == enums.ApprovalDecisionRejected {
		target = enums.RequisitionStatusDraft
		action = enums.AuditActionRejected
	}

	actor := input.Actor
	actor.DelegatedFrom = approver.DelegatedFrom

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.casTransition(ctx, repo, requisition, target, nil); err != nil {
			return err
		}
		record := &models.ApprovalRecord{
			ID:            uuid.New(),
			RequisitionID: requisition.ID,
			ApproverID:    input.Actor.UserID,
			DelegatedFrom: approver.DelegatedFrom,
			Decision:      decision,
			Comments:      input.Comments,
			BudgetCode:    input.BudgetCode,
		}
		if err := repo.CreateApprovalRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create approval record")
		}
		details := map[string]any{"comments": input.Comments}
		if input.BudgetCode != nil {
			details["budget_code"] = *input.BudgetCode
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     action,
			Actor:      actor,
			Details:    details,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(action))
	requisition.Status = target
	requisition.Version++
	return requisition, nil
}

// Cancel terminates a requisition that has not yet been approved.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string, actor audit.Actor) (*models.Requisition, error) {
	requisition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch requisition.Status {
	case enums.RequisitionStatusDraft, enums.RequisitionStatusPendingApproval:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pre-approval requisitions can be cancelled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.casTransition(ctx, repo, requisition, enums.RequisitionStatusCancelled, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionCancelled,
			Actor:      actor,
			Details:    map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionCancelled))
	requisition.Status = enums.RequisitionStatusCancelled
	requisition.Version++
	return requisition, nil
}

// EmergencyOverride bypasses the threshold logic behind a fixed capability
// check: only an override-capable role on the requisition's vessel may use
// it, and it lands directly in approved.
func (s *service) EmergencyOverride(ctx context.Context, input OverrideInput) (*models.Requisition, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Reason == "" || input.SafetyJustification == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason and safety justification required")
	}

	requisition, err := s.Get(ctx, input.RequisitionID)
	if err != nil {
		return nil, err
	}
	switch requisition.Status {
	case enums.RequisitionStatusDraft, enums.RequisitionStatusPendingApproval:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "emergency override only applies before approval")
	}

	capable, err := s.resolver.CanEmergencyOverride(ctx, input.Actor.UserID, requisition.VesselID)
	if err != nil {
		return nil, err
	}
	if !capable {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "emergency override requires captain-level capability on this vessel")
	}

	requiredDocs := []string{"EMERGENCY_JUSTIFICATION"}
	if input.RequiresPostApproval {
		requiredDocs = append(requiredDocs, "POST_APPROVAL_REVIEW")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"emergency_override":    true,
			"pending_documentation": input.RequiresPostApproval,
		}
		if err := s.casTransition(ctx, repo, requisition, enums.RequisitionStatusApproved, updates); err != nil {
			return err
		}
		record := &models.ApprovalRecord{
			ID:            uuid.New(),
			RequisitionID: requisition.ID,
			ApproverID:    input.Actor.UserID,
			Decision:      enums.ApprovalDecisionEmergencyOverride,
			Comments:      input.Reason,
		}
		if err := repo.CreateApprovalRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create approval record")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionEmergencyOverride,
			Actor:      input.Actor,
			Details: map[string]any{
				"reason":                 input.Reason,
				"safety_justification":   input.SafetyJustification,
				"required_documentation": requiredDocs,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionEmergencyOverride))
	requisition.Status = enums.RequisitionStatusApproved
	requisition.EmergencyOverride = true
	requisition.PendingDocumentation = input.RequiresPostApproval
	requisition.Version++
	return requisition, nil
}

// GenerateRFQ fans the approved requisition out to eligible vendors. Vendor
// notification runs after commit; failures become response warnings, never
// rollbacks.
func (s *service) GenerateRFQ(ctx context.Context, id uuid.UUID, actor audit.Actor) (*RFQResult, error) {
	requisition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requisition.Status != enums.RequisitionStatusApproved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rfq generation requires an approved requisition")
	}

	var (
		rfq        *models.RFQ
		vendorList []models.Vendor
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, vendorList, err = s.rfq.IssueForRequisition(ctx, tx, requisition)
		if err != nil {
			return err
		}
		if err := s.casTransition(ctx, repo, requisition, enums.RequisitionStatusRFQIssued, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionRFQIssued,
			Actor:      actor,
			Details: map[string]any{
				"rfq_id":  rfq.ID.String(),
				"vendors": len(vendorList),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionRFQIssued))

	result := &RFQResult{RFQ: rfq, VendorsNotified: len(vendorList)}
	if notifyErr := s.notifier.NotifyRFQIssued(ctx, rfq, vendorList); notifyErr != nil {
		for _, e := range multierr.Errors(notifyErr) {
			result.Warnings = append(result.Warnings, e.Error())
		}
	}
	return result, nil
}

// SyncOffline folds a client-buffered requisition into the workflow. The
// offline id is the idempotency key: a replay returns the existing record
// without writing anything, then a fresh sync continues straight into
// submit so connectivity-delayed requests skip an extra round trip.
func (s *service) SyncOffline(ctx context.Context, input SyncInput) (*SyncResult, error) {
	if input.OfflineID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offline id required")
	}

	existing, err := s.repo.FindByOfflineID(ctx, input.OfflineID)
	if err == nil {
		return &SyncResult{Requisition: existing, AlreadySynced: true}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup offline id")
	}

	requisition, err := s.buildRequisition(input.CreateInput)
	if err != nil {
		return nil, err
	}
	offlineID := input.OfflineID
	offlineTS := input.OfflineTimestamp
	requisition.CreatedOffline = true
	requisition.OfflineID = &offlineID
	if !offlineTS.IsZero() {
		requisition.OfflineTimestamp = &offlineTS
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, requisition); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create requisition")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionCreated,
			Actor:      input.Actor,
			Details:    map[string]any{"created_offline": true},
		}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: entityType,
			Action:     enums.AuditActionOfflineSynced,
			Actor:      input.Actor,
			Details: map[string]any{
				"offline_id":        input.OfflineID,
				"offline_timestamp": input.OfflineTimestamp,
			},
		})
	})
	if err != nil {
		// Two devices racing the same offline id: the unique index picks
		// the winner and the loser reads it back.
		if db.IsUniqueViolation(err, "") {
			winner, readErr := s.repo.FindByOfflineID(ctx, input.OfflineID)
			if readErr == nil {
				return &SyncResult{Requisition: winner, AlreadySynced: true}, nil
			}
		}
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionOfflineSynced))

	submit, err := s.Submit(ctx, requisition.ID, input.Actor)
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		Requisition:   submit.Requisition,
		ApprovalLevel: submit.ApprovalLevel,
		AutoApproved:  submit.AutoApproved,
	}, nil
}

// casTransition performs the conditional status write and classifies a zero
// row outcome: vanished row, stale precondition, or lost race.
func (s *service) casTransition(
	ctx context.Context,
	repo Repository,
	requisition *models.Requisition,
	target enums.RequisitionStatus,
	extra map[string]any,
) error {
	updates := map[string]any{"status": target}
	for k, v := range extra {
		updates[k] = v
	}

	won, err := repo.UpdateCAS(ctx, requisition.ID, requisition.Version, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update requisition")
	}
	if won {
		return nil
	}

	s.metrics.IncCASConflict(entityType)
	return pkgerrors.New(pkgerrors.CodeConflict, "requisition was modified concurrently").
		WithDetails(map[string]any{"expected_version": requisition.Version})
}
