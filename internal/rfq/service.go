package rfq

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// vendorDirectory is the eligibility lookup: active vendors covering the
// requested categories, fastest-response first for emergencies.
type vendorDirectory interface {
	Eligible(ctx context.Context, categories []string, urgency enums.UrgencyLevel) ([]models.Vendor, error)
}

// QuoteLineInput is one priced line on a vendor quote submission.
type QuoteLineInput struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// SubmitQuoteInput carries a vendor quote submission.
type SubmitQuoteInput struct {
	RFQID        uuid.UUID
	VendorID     uuid.UUID
	LineItems    []QuoteLineInput
	Currency     enums.Currency
	LeadTimeDays int
	NetDays      int
	Terms        *string
	Actor        audit.Actor
}

// SelectQuoteInput carries a quote selection.
type SelectQuoteInput struct {
	QuoteID uuid.UUID
	Reason  string
	Actor   audit.Actor
}

// Service manages RFQ fan-out and vendor quote submission/selection.
type Service interface {
	IssueForRequisition(ctx context.Context, tx *gorm.DB, requisition *models.Requisition) (*models.RFQ, []models.Vendor, error)
	GetByRequisition(ctx context.Context, requisitionID uuid.UUID) (*models.RFQ, error)
	SubmitQuote(ctx context.Context, input SubmitQuoteInput) (*models.Quote, error)
	SelectQuote(ctx context.Context, input SelectQuoteInput) (*models.Quote, error)
	ListQuotes(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	vendors vendorDirectory
	audit   auditRecorder
	metrics *metrics.WorkflowMetrics
	cfg     config.ProcurementConfig
	now     func() time.Time
}

// NewService builds the RFQ service. The metrics sink may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	vendors vendorDirectory,
	auditSvc auditRecorder,
	workflowMetrics *metrics.WorkflowMetrics,
	cfg config.ProcurementConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rfq repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor directory required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		vendors: vendors,
		audit:   auditSvc,
		metrics: workflowMetrics,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// IssueForRequisition creates the RFQ row inside the caller's transaction.
// Vendor candidates come from the directory filtered by the requisition's
// line categories; emergencies shorten the deadline and order vendors by
// response time.
func (s *service) IssueForRequisition(ctx context.Context, tx *gorm.DB, requisition *models.Requisition) (*models.RFQ, []models.Vendor, error) {
	categories := map[string]bool{}
	var categoryList []string
	for _, line := range requisition.LineItems {
		if line.Category != "" && !categories[line.Category] {
			categories[line.Category] = true
			categoryList = append(categoryList, line.Category)
		}
	}

	eligible, err := s.vendors.Eligible(ctx, categoryList, requisition.UrgencyLevel)
	if err != nil {
		return nil, nil, err
	}
	if len(eligible) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNoEligibleVendors, "no vendors cover the requested categories")
	}

	deadlineHours := s.cfg.RFQDeadlineHours
	if requisition.UrgencyLevel == enums.UrgencyEmergency {
		deadlineHours = s.cfg.EmergencyRFQHours
	}

	vendorIDs := make([]uuid.UUID, 0, len(eligible))
	for _, vendor := range eligible {
		vendorIDs = append(vendorIDs, vendor.ID)
	}

	rfq := &models.RFQ{
		ID:            uuid.New(),
		RequisitionID: requisition.ID,
		VendorIDs:     vendorIDs,
		UrgencyLevel:  requisition.UrgencyLevel,
		Deadline:      s.now().Add(time.Duration(deadlineHours) * time.Hour),
	}
	if _, err := s.repo.WithTx(tx).CreateRFQ(ctx, rfq); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rfq")
	}
	return rfq, eligible, nil
}

func (s *service) GetByRequisition(ctx context.Context, requisitionID uuid.UUID) (*models.RFQ, error) {
	if requisitionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requisition id required")
	}
	rfq, err := s.repo.FindRFQByRequisition(ctx, requisitionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rfq")
	}
	return rfq, nil
}

// SubmitQuote records one vendor response. Quotes are independent; nothing
// blocks siblings from submitting against the same RFQ.
func (s *service) SubmitQuote(ctx context.Context, input SubmitQuoteInput) (*models.Quote, error) {
	if input.RFQID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rfq id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	rfq, err := s.repo.FindRFQByID(ctx, input.RFQID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rfq")
	}
	if s.now().After(rfq.Deadline) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "rfq deadline has passed")
	}

	invited := false
	for _, id := range rfq.VendorIDs {
		if id == input.VendorID {
			invited = true
			break
		}
	}
	if !invited {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor was not invited to this rfq")
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown currency %q", currency))
	}
	netDays := input.NetDays
	if netDays <= 0 {
		netDays = 30
	}

	quoteID := uuid.New()
	total := decimal.Zero
	lines := make([]models.QuoteLineItem, 0, len(input.LineItems))
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
		lines = append(lines, models.QuoteLineItem{
			ID:        uuid.New(),
			QuoteID:   quoteID,
			Position:  i + 1,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			TotalPrice: lineTotal,
		})
	}

	quote := &models.Quote{
		ID:           quoteID,
		RFQID:        rfq.ID,
		VendorID:     input.VendorID,
		Status:       enums.QuoteStatusSubmitted,
		TotalAmount:  total,
		Currency:     currency,
		LeadTimeDays: input.LeadTimeDays,
		NetDays:      netDays,
		Terms:        input.Terms,
		LineItems:    lines,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateQuote(ctx, quote); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   rfq.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionQuoteSubmitted,
			Actor:      input.Actor,
			Details: map[string]any{
				"quote_id":     quote.ID.String(),
				"vendor_id":    input.VendorID.String(),
				"total_amount": total.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition("quote", string(enums.AuditActionQuoteSubmitted))
	return quote, nil
}

// SelectQuote promotes exactly one quote to selected and rejects every
// sibling in the same atomic unit. The conditional update is the second
// compare-and-swap point in the workflow: a concurrent selection that
// already completed surfaces as QuoteAlreadySelected.
func (s *service) SelectQuote(ctx context.Context, input SelectQuoteInput) (*models.Quote, error) {
	if input.QuoteID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote id required")
	}

	quote, err := s.repo.FindQuoteByID(ctx, input.QuoteID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}

	rfq, err := s.repo.FindRFQByID(ctx, quote.RFQID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rfq")
	}
	requisition, err := s.repo.FindRequisition(ctx, rfq.RequisitionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requisition")
	}
	if requisition.Status != enums.RequisitionStatusRFQIssued {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote selection requires an rfq-issued requisition")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		won, err := repo.MarkQuoteSelected(ctx, quote.ID, rfq.ID, input.Reason)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_quotes_rfq_selected") {
				s.metrics.IncCASConflict("quote")
				return pkgerrors.New(pkgerrors.CodeQuoteSelected, "another quote was already selected for this rfq")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select quote")
		}
		if !won {
			selected, selErr := repo.HasSelectedQuote(ctx, rfq.ID)
			if selErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, selErr, "check selection state")
			}
			if selected {
				s.metrics.IncCASConflict("quote")
				return pkgerrors.New(pkgerrors.CodeQuoteSelected, "another quote was already selected for this rfq")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote is not open for selection")
		}

		if err := repo.RejectSiblingQuotes(ctx, rfq.ID, quote.ID, "another quote was selected"); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling quotes")
		}

		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   rfq.RequisitionID,
			EntityType: "requisition",
			Action:     enums.AuditActionQuoteSelected,
			Actor:      input.Actor,
			Details: map[string]any{
				"quote_id":  quote.ID.String(),
				"vendor_id": quote.VendorID.String(),
				"reason":    input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition("quote", string(enums.AuditActionQuoteSelected))
	quote.Status = enums.QuoteStatusSelected
	reason := input.Reason
	quote.SelectionReason = &reason
	return quote, nil
}

func (s *service) ListQuotes(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error) {
	if rfqID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rfq id required")
	}
	quotes, err := s.repo.ListQuotesByRFQ(ctx, rfqID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quotes")
	}
	return quotes, nil
}
