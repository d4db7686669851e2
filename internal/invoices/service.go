package invoices

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/metrics"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

const entityType = "invoice"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// LineInput is one billed line on an invoice submission.
type LineInput struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SubmitInput carries a vendor invoice submission.
type SubmitInput struct {
	PurchaseOrderID uuid.UUID
	VendorID        uuid.UUID
	InvoiceNumber   string
	LineItems       []LineInput
	Currency        enums.Currency
	Actor           audit.Actor
}

// MatchOutcome reports a three-way match run.
type MatchOutcome struct {
	Invoice *models.Invoice   `json:"invoice"`
	Result  types.MatchResult `json:"result"`
}

// Service owns invoice submission, three-way matching, and payment
// approval.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	Match(ctx context.Context, id uuid.UUID, actor audit.Actor) (*MatchOutcome, error)
	ApproveForPayment(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.Invoice, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	audit   auditRecorder
	metrics *metrics.WorkflowMetrics
	cfg     config.ProcurementConfig
	now     func() time.Time
}

// NewService builds the invoices service. The metrics sink may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	auditSvc auditRecorder,
	workflowMetrics *metrics.WorkflowMetrics,
	cfg config.ProcurementConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoices repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		audit:   auditSvc,
		metrics: workflowMetrics,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// Submit records a vendor invoice against a delivered purchase order and
// marks the order invoiced.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Invoice, error) {
	if input.PurchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if input.InvoiceNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	po, err := s.repo.FindPurchaseOrder(ctx, input.PurchaseOrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	switch po.Status {
	case enums.PurchaseOrderStatusDelivered, enums.PurchaseOrderStatusInvoiced:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoices are accepted against delivered orders only")
	}
	if input.VendorID != uuid.Nil && input.VendorID != po.VendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice vendor does not match the purchase order")
	}

	currency := input.Currency
	if currency == "" {
		currency = po.Currency
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown currency %q", currency))
	}

	invoiceID := uuid.New()
	total := decimal.Zero
	lines := make([]models.InvoiceLineItem, 0, len(input.LineItems))
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
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		lines = append(lines, models.InvoiceLineItem{
			ID:         uuid.New(),
			InvoiceID:  invoiceID,
			Position:   i + 1,
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
		})
	}

	invoice := &models.Invoice{
		ID:              invoiceID,
		PurchaseOrderID: po.ID,
		VendorID:        po.VendorID,
		InvoiceNumber:   input.InvoiceNumber,
		Status:          enums.InvoiceStatusSubmitted,
		TotalAmount:     total,
		Currency:        currency,
		Version:         1,
		LineItems:       lines,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}
		if po.Status == enums.PurchaseOrderStatusDelivered {
			won, err := repo.UpdatePurchaseOrderCAS(ctx, po.ID, po.Version, map[string]any{
				"status": enums.PurchaseOrderStatusInvoiced,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeConflict, "purchase order was modified concurrently")
			}
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionInvoiceSubmitted,
			Actor:      input.Actor,
			Details: map[string]any{
				"invoice_id":     invoice.ID.String(),
				"invoice_number": input.InvoiceNumber,
				"total_amount":   total.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionInvoiceSubmitted))
	return invoice, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// Match runs the three-way reconciliation. A pass moves the invoice to
// matched; a fail records disputed and the result either way. The engine
// never auto-approves a variance outside tolerance.
func (s *service) Match(ctx context.Context, id uuid.UUID, actor audit.Actor) (*MatchOutcome, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case enums.InvoiceStatusSubmitted, enums.InvoiceStatusDisputed:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not open for matching")
	}

	po, err := s.repo.FindPurchaseOrder(ctx, invoice.PurchaseOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	if po.Receipt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipt confirmation required before matching")
	}

	result := Match(invoice, po, po.Receipt, s.cfg.PriceVarianceTolerance)

	target := enums.InvoiceStatusMatched
	action := enums.AuditActionThreeWayMatched
	outcome := "passed"
	if !result.Passed {
		target = enums.InvoiceStatusDisputed
		action = enums.AuditActionInvoiceDisputed
		outcome = "disputed"
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode match result")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.UpdateCAS(ctx, invoice.ID, invoice.Version, map[string]any{
			"status":       target,
			"match_result": string(resultJSON),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		if !won {
			s.metrics.IncCASConflict(entityType)
			return pkgerrors.New(pkgerrors.CodeConflict, "invoice was modified concurrently")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     action,
			Actor:      actor,
			Details: map[string]any{
				"invoice_id":     invoice.ID.String(),
				"po_match":       result.POMatch,
				"receipt_match":  result.ReceiptMatch,
				"price_variance": result.PriceVariance.StringFixed(4),
				"passed":         result.Passed,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMatchOutcome(outcome)
	invoice.Status = target
	invoice.MatchResult = &result
	invoice.Version++
	return &MatchOutcome{Invoice: invoice, Result: result}, nil
}

// ApproveForPayment releases a matched invoice, marks the order paid and
// closes the delivered requisition behind it.
func (s *service) ApproveForPayment(ctx context.Context, id uuid.UUID, actor audit.Actor) (*models.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != enums.InvoiceStatusMatched {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment approval requires a passing three-way match")
	}

	po, err := s.repo.FindPurchaseOrder(ctx, invoice.PurchaseOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.UpdateCAS(ctx, invoice.ID, invoice.Version, map[string]any{
			"status": enums.InvoiceStatusApprovedForPayment,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		if !won {
			s.metrics.IncCASConflict(entityType)
			return pkgerrors.New(pkgerrors.CodeConflict, "invoice was modified concurrently")
		}
		if po.Status == enums.PurchaseOrderStatusInvoiced {
			won, err := repo.UpdatePurchaseOrderCAS(ctx, po.ID, po.Version, map[string]any{
				"status": enums.PurchaseOrderStatusPaid,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
			}
			if !won {
				return pkgerrors.New(pkgerrors.CodeConflict, "purchase order was modified concurrently")
			}
		}
		if err := s.closeRequisition(ctx, tx, po, actor); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   po.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionPaymentApproved,
			Actor:      actor,
			Details: map[string]any{
				"invoice_id":     invoice.ID.String(),
				"invoice_number": invoice.InvoiceNumber,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(entityType, string(enums.AuditActionPaymentApproved))
	invoice.Status = enums.InvoiceStatusApprovedForPayment
	invoice.Version++
	return invoice, nil
}

// closeRequisition completes the workflow: payment approval on a delivered
// requisition closes it out.
func (s *service) closeRequisition(ctx context.Context, tx *gorm.DB, po *models.PurchaseOrder, actor audit.Actor) error {
	repo := s.repo.WithTx(tx)
	requisition, err := repo.FindRequisition(ctx, po.RequisitionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requisition")
	}
	if requisition.Status != enums.RequisitionStatusDelivered {
		return nil
	}
	won, err := repo.UpdateRequisitionCAS(ctx, requisition.ID, requisition.Version, map[string]any{
		"status": enums.RequisitionStatusClosed,
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
		Action:     enums.AuditActionClosed,
		Actor:      actor,
		Details:    map[string]any{"purchase_order_id": po.ID.String()},
	})
}
