package purchaseorders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/metrics"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

const entityType = "purchase_order"

// Fixed maritime payment template. NetDays comes from the winning quote's
// negotiated terms.
var (
	latePenaltyRatePct = decimal.NewFromFloat(1.5)
	retentionPct       = decimal.NewFromInt(5)
)

const retentionDays = 90

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type vendorNotifier interface {
	NotifyPOSent(ctx context.Context, po *models.PurchaseOrder) error
}

// GenerateInput carries a PO generation call.
type GenerateInput struct {
	QuoteID      uuid.UUID
	ExchangeRate decimal.Decimal
	Notes        *string
	Actor        audit.Actor
}

// GenerateResult reports generation. Created is false on an idempotent
// replay that returned the existing order.
type GenerateResult struct {
	PurchaseOrder *models.PurchaseOrder `json:"purchase_order"`
	Created       bool                  `json:"created"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// ReceiptInput carries the crew-side receipt confirmation.
type ReceiptInput struct {
	PurchaseOrderID uuid.UUID
	Condition       string
	Lines           []types.ReceiptLine
	Notes           *string
	Actor           audit.Actor
}

// Service owns purchase order generation and the delivery lifecycle.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	Approve(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.PurchaseOrder, []string, error)
	ConfirmDelivery(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.PurchaseOrder, error)
	ConfirmReceipt(ctx context.Context, input ReceiptInput) (*models.PurchaseOrder, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier vendorNotifier
	audit    auditRecorder
	metrics  *metrics.WorkflowMetrics
	cfg      config.ProcurementConfig
	now      func() time.Time
}

// NewService builds the purchase order service. The metrics sink may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	notifier vendorNotifier,
	auditSvc auditRecorder,
	workflowMetrics *metrics.WorkflowMetrics,
	cfg config.ProcurementConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
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
		notifier: notifier,
		audit:    auditSvc,
		metrics:  workflowMetrics,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// Generate turns a selected quote into a purchase order. Calling twice for
// the same quote returns the existing order; the unique index on quote_id
// backs that idempotency under concurrency. High-value orders start as
// draft and wait for an explicit approval before the vendor hears anything.
func (s *service) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	if existing, err := s.repo.FindByQuoteID(ctx, input.QuoteID); err == nil {
		return &GenerateResult{PurchaseOrder: existing, Created: false}, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup purchase order")
	}

	quote, err := s.repo.FindQuote(ctx, input.QuoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	if quote.Status != enums.QuoteStatusSelected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase orders are generated from selected quotes only")
	}

	rfq, err := s.repo.FindRFQ(ctx, quote.RFQID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rfq")
	}
	requisition, err := s.repo.FindRequisition(ctx, rfq.RequisitionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requisition")
	}
	if requisition.Status != enums.RequisitionStatusRFQIssued {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "requisition is not awaiting a purchase order")
	}
	vessel, err := s.repo.FindVessel(ctx, requisition.VesselID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vessel")
	}

	now := s.now()
	status := enums.PurchaseOrderStatusSent
	if quote.TotalAmount.GreaterThan(s.cfg.HighValuePOThreshold) {
		status = enums.PurchaseOrderStatusDraft
	}

	exchangeRate := input.ExchangeRate
	if exchangeRate.IsZero() {
		exchangeRate = decimal.NewFromInt(1)
	}
	if exchangeRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exchange rate must be positive")
	}

	poID := uuid.New()
	lines := make([]models.POLineItem, 0, len(quote.LineItems))
	for _, line := range quote.LineItems {
		lines = append(lines, models.POLineItem{
			ID:              uuid.New(),
			PurchaseOrderID: poID,
			Position:        line.Position,
			Name:            line.Name,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			TotalPrice:      line.TotalPrice,
		})
	}

	po := &models.PurchaseOrder{
		ID:            poID,
		QuoteID:       quote.ID,
		RequisitionID: requisition.ID,
		VendorID:      quote.VendorID,
		Status:        status,
		TotalAmount:   quote.TotalAmount,
		Currency:      quote.Currency,
		ExchangeRate:  exchangeRate,
		PaymentTerms:  buildPaymentTerms(quote),
		DeliveryTerms: buildDeliveryTerms(vessel, now),
		Notes:         input.Notes,
		Version:       1,
		LineItems:     lines,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, err := repo.NextPONumber(ctx, now.Format("200601"))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign po number")
		}
		po.PONumber = fmt.Sprintf("PO-%s-%04d", now.Format("200601"), seq)

		if _, err := repo.Create(ctx, po); err != nil {
			return err
		}

		won, err := repo.UpdateRequisitionCAS(ctx, requisition.ID, requisition.Version, map[string]any{
			"status": enums.RequisitionStatusPOIssued,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update requisition")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "requisition was modified concurrently")
		}

		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   requisition.ID,
			EntityType: "requisition",
			Action:     enums.AuditActionPOGenerated,
			Actor:      input.Actor,
			Details: map[string]any{
				"po_id":        po.ID.String(),
				"po_number":    po.PONumber,
				"total_amount": po.TotalAmount.String(),
				"status":       po.Status.String(),
			},
		})
	})
	if err != nil {
		// A concurrent generate for the same quote won the unique index.
		if db.IsUniqueViolation(err, "idx_purchase_orders_quote_id") {
			existing, readErr := s.repo.FindByQuoteID(ctx, input.QuoteID)
			if readErr == nil {
				return &GenerateResult{PurchaseOrder: existing, Created: false}, nil
			}
		}
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionPOGenerated))

	result := &GenerateResult{PurchaseOrder: po, Created: true}
	if po.Status == enums.PurchaseOrderStatusSent {
		if notifyErr := s.notifier.NotifyPOSent(ctx, po); notifyErr != nil {
			result.Warnings = append(result.Warnings, notifyErr.Error())
		}
	}
	return result, nil
}

func buildPaymentTerms(quote *models.Quote) types.PaymentTerms {
	terms := types.PaymentTerms{
		InspectionContingent:   true,
		BuyerBankChargesAbroad: true,
		NetDays:                quote.NetDays,
		LatePenaltyRatePct:     latePenaltyRatePct,
		RetentionPct:           retentionPct,
		RetentionDays:          retentionDays,
	}
	if quote.Terms != nil {
		terms.Notes = *quote.Terms
	}
	return terms
}

func buildDeliveryTerms(vessel *models.Vessel, at time.Time) types.DeliveryTerms {
	terms := types.DeliveryTerms{
		VesselName: vessel.Name,
		IMONumber:  vessel.IMONumber,
		SnapshotAt: at,
	}
	if vessel.PositionLat != nil && vessel.PositionLon != nil {
		pos := &types.VesselPosition{
			Latitude:  *vessel.PositionLat,
			Longitude: *vessel.PositionLon,
		}
		if vessel.PositionUpdatedAt != nil {
			pos.UpdatedAt = *vessel.PositionUpdatedAt
		}
		terms.Position = pos
	}
	if vessel.VoyageDeparture != nil && vessel.VoyageDestination != nil {
		voyage := &types.VoyageSnapshot{
			DeparturePort:   *vessel.VoyageDeparture,
			DestinationPort: *vessel.VoyageDestination,
		}
		if vessel.VoyageETA != nil {
			voyage.ETA = *vessel.VoyageETA
		}
		terms.Voyage = voyage
	}
	return terms
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	po, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return po, nil
}

// Approve releases a high-value draft to the vendor.
func (s *service) Approve(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.PurchaseOrder, []string, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if po.Status != enums.PurchaseOrderStatusDraft {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft purchase orders can be approved")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.UpdateCAS(ctx, po.ID, po.Version, map[string]any{
			"status": enums.PurchaseOrderStatusSent,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
		}
		if !won {
			s.metrics.IncCASConflict(entityType)
			return pkgerrors.New(pkgerrors.CodeConflict, "purchase order was modified concurrently")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionPOApproved,
			Actor:      actor,
			Details:    map[string]any{"po_number": po.PONumber},
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionPOApproved))
	po.Status = enums.PurchaseOrderStatusSent
	po.Version++

	var warnings []string
	if notifyErr := s.notifier.NotifyPOSent(ctx, po); notifyErr != nil {
		warnings = append(warnings, notifyErr.Error())
	}
	return po, warnings, nil
}

// ConfirmDelivery records the vendor-reported delivery. The order reaches
// delivered only once the crew receipt is also in.
func (s *service) ConfirmDelivery(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.PurchaseOrder, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureConfirmable(po); err != nil {
		return nil, err
	}
	if po.DeliveryConfirmedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already confirmed")
	}

	now := s.now()
	updates := map[string]any{"delivery_confirmed_at": now}
	completed := po.ReceiptConfirmedAt != nil
	if completed {
		updates["status"] = enums.PurchaseOrderStatusDelivered
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.UpdateCAS(ctx, po.ID, po.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
		}
		if !won {
			s.metrics.IncCASConflict(entityType)
			return pkgerrors.New(pkgerrors.CodeConflict, "purchase order was modified concurrently")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionDeliveryConfirmed,
			Actor:      actor,
			Details:    map[string]any{"po_number": po.PONumber},
		}); err != nil {
			return err
		}
		if completed {
			return s.markDelivered(ctx, tx, po, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionDeliveryConfirmed))
	po.DeliveryConfirmedAt = &now
	if completed {
		po.Status = enums.PurchaseOrderStatusDelivered
	}
	po.Version++
	return po, nil
}

// ConfirmReceipt records what the crew actually counted on board. Received
// quantities may differ from ordered; the difference is recorded as-is.
func (s *service) ConfirmReceipt(ctx context.Context, input ReceiptInput) (*models.PurchaseOrder, error) {
	if input.Condition == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "condition required")
	}
	for i, line := range input.Lines {
		if line.ReceivedQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: received quantity must not be negative", i+1))
		}
	}

	po, err := s.Get(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if err := ensureConfirmable(po); err != nil {
		return nil, err
	}
	if po.ReceiptConfirmedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipt already confirmed")
	}

	now := s.now()
	updates := map[string]any{"receipt_confirmed_at": now}
	completed := po.DeliveryConfirmedAt != nil
	if completed {
		updates["status"] = enums.PurchaseOrderStatusDelivered
	}

	receipt := &models.DeliveryReceipt{
		ID:              uuid.New(),
		PurchaseOrderID: po.ID,
		ConfirmedBy:     input.Actor.UserID,
		Condition:       input.Condition,
		Lines:           input.Lines,
		Notes:           input.Notes,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateDeliveryReceipt(ctx, receipt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery receipt")
		}
		won, err := repo.UpdateCAS(ctx, po.ID, po.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
		}
		if !won {
			s.metrics.IncCASConflict(entityType)
			return pkgerrors.New(pkgerrors.CodeConflict, "purchase order was modified concurrently")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionReceiptConfirmed,
			Actor:      input.Actor,
			Details: map[string]any{
				"po_number": po.PONumber,
				"condition": input.Condition,
			},
		}); err != nil {
			return err
		}
		if completed {
			return s.markDelivered(ctx, tx, po, input.Actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionReceiptConfirmed))
	po.ReceiptConfirmedAt = &now
	po.Receipt = receipt
	if completed {
		po.Status = enums.PurchaseOrderStatusDelivered
	}
	po.Version++
	return po, nil
}

// markDelivered advances the owning requisition once both confirmations are
// present.
func (s *service) markDelivered(ctx context.Context, tx *gorm.DB, po *models.PurchaseOrder, actor audit.Actor) error {
	repo := s.repo.WithTx(tx)
	requisition, err := repo.FindRequisition(ctx, po.RequisitionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requisition")
	}
	if requisition.Status == enums.RequisitionStatusPOIssued {
		won, err := repo.UpdateRequisitionCAS(ctx, requisition.ID, requisition.Version, map[string]any{
			"status": enums.RequisitionStatusDelivered,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update requisition")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeConflict, "requisition was modified concurrently")
		}
	}
	return s.audit.Record(ctx, tx, audit.Entry{
		EntityID:   po.RequisitionID,
		EntityType: "requisition",
		Action:     enums.AuditActionDelivered,
		Actor:      actor,
		Details:    map[string]any{"po_number": po.PONumber},
	})
}

func ensureConfirmable(po *models.PurchaseOrder) error {
	switch po.Status {
	case enums.PurchaseOrderStatusSent,
		enums.PurchaseOrderStatusAcknowledged,
		enums.PurchaseOrderStatusInProgress:
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("confirmations are not allowed while the order is %s", po.Status))
	}
}
