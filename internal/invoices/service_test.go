package invoices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *stubAudit) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

type stubRepo struct {
	mu           sync.Mutex
	invoices     map[uuid.UUID]*models.Invoice
	orders       map[uuid.UUID]*models.PurchaseOrder
	requisitions map[uuid.UUID]*models.Requisition
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		invoices:     map[uuid.UUID]*models.Invoice{},
		orders:       map[uuid.UUID]*models.PurchaseOrder{},
		requisitions: map[uuid.UUID]*models.Requisition{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *invoice
	s.invoices[invoice.ID] = &clone
	return invoice, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) ListByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, stored := range s.invoices {
		if stored.PurchaseOrderID == poID {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (s *stubRepo) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.invoices[id]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		stored.Status = v.(enums.InvoiceStatus)
	}
	stored.Version = expectedVersion + 1
	return true, nil
}

func (s *stubRepo) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) UpdatePurchaseOrderCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		stored.Status = v.(enums.PurchaseOrderStatus)
	}
	stored.Version = expectedVersion + 1
	return true, nil
}

func (s *stubRepo) FindRequisition(ctx context.Context, id uuid.UUID) (*models.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requisitions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) UpdateRequisitionCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requisitions[id]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		stored.Status = v.(enums.RequisitionStatus)
	}
	stored.Version = expectedVersion + 1
	return true, nil
}

func testConfig() config.ProcurementConfig {
	return config.ProcurementConfig{
		MinorSpendLimit:        decimal.NewFromInt(500),
		HighValuePOThreshold:   decimal.NewFromInt(25000),
		PriceVarianceTolerance: decimal.NewFromFloat(0.02),
	}
}

func newTestService(t *testing.T, repo *stubRepo, auditStub *stubAudit) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, auditStub, nil, testConfig())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

// seedDeliveredOrder stores a delivered purchase order with a matching
// receipt for the standard three-line test set.
func seedDeliveredOrder(repo *stubRepo) *models.PurchaseOrder {
	poID := uuid.New()
	receiptAt := time.Now().Add(-time.Hour)
	requisition := &models.Requisition{
		ID:      uuid.New(),
		Status:  enums.RequisitionStatusDelivered,
		Version: 5,
	}
	repo.requisitions[requisition.ID] = requisition
	po := &models.PurchaseOrder{
		ID:            poID,
		QuoteID:       uuid.New(),
		RequisitionID: requisition.ID,
		VendorID:      uuid.New(),
		PONumber:      "PO-202608-0001",
		Status:        enums.PurchaseOrderStatusDelivered,
		TotalAmount:   decimal.NewFromInt(420),
		Currency:      enums.CurrencyUSD,
		Version:       2,
		LineItems: []models.POLineItem{
			{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(140), TotalPrice: decimal.NewFromInt(420)},
		},
		ReceiptConfirmedAt: &receiptAt,
		Receipt: &models.DeliveryReceipt{
			ID:              uuid.New(),
			PurchaseOrderID: poID,
			Condition:       "good",
			Lines: []types.ReceiptLine{
				{Name: "fuel filter", OrderedQty: 3, ReceivedQty: 3, Condition: "good"},
			},
		},
	}
	repo.orders[po.ID] = po
	return po
}

func matchingLines() []LineInput {
	return []LineInput{
		{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(140)},
	}
}

func TestSubmitMarksOrderInvoiced(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)

	invoice, err := svc.Submit(context.Background(), SubmitInput{
		PurchaseOrderID: po.ID,
		InvoiceNumber:   "INV-7781",
		LineItems:       matchingLines(),
		Actor:           audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusSubmitted {
		t.Fatalf("expected submitted got %s", invoice.Status)
	}
	if !invoice.TotalAmount.Equal(decimal.NewFromInt(420)) {
		t.Fatalf("expected total 420 got %s", invoice.TotalAmount)
	}
	if invoice.Currency != enums.CurrencyUSD {
		t.Fatal("expected currency defaulted from the order")
	}
	if repo.orders[po.ID].Status != enums.PurchaseOrderStatusInvoiced {
		t.Fatalf("expected order invoiced got %s", repo.orders[po.ID].Status)
	}
}

func TestSubmitRejectsUndeliveredOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	repo.orders[po.ID].Status = enums.PurchaseOrderStatusSent

	_, err := svc.Submit(context.Background(), SubmitInput{
		PurchaseOrderID: po.ID,
		InvoiceNumber:   "INV-7781",
		LineItems:       matchingLines(),
		Actor:           audit.Actor{UserID: uuid.New()},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestSubmitRejectsWrongVendor(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)

	_, err := svc.Submit(context.Background(), SubmitInput{
		PurchaseOrderID: po.ID,
		VendorID:        uuid.New(),
		InvoiceNumber:   "INV-7781",
		LineItems:       matchingLines(),
		Actor:           audit.Actor{UserID: uuid.New()},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func submitInvoice(t *testing.T, svc Service, po *models.PurchaseOrder, lines []LineInput) *models.Invoice {
	t.Helper()
	invoice, err := svc.Submit(context.Background(), SubmitInput{
		PurchaseOrderID: po.ID,
		InvoiceNumber:   "INV-7781",
		LineItems:       lines,
		Actor:           audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return invoice
}

func TestMatchPassMovesToMatched(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	svc := newTestService(t, repo, auditStub)
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())

	outcome, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !outcome.Result.Passed {
		t.Fatalf("expected pass, discrepancies: %v", outcome.Result.Discrepancies)
	}
	if outcome.Invoice.Status != enums.InvoiceStatusMatched {
		t.Fatalf("expected matched got %s", outcome.Invoice.Status)
	}

	sawMatched := false
	for _, entry := range auditStub.entries {
		if entry.Action == enums.AuditActionThreeWayMatched {
			sawMatched = true
			if entry.EntityID != po.RequisitionID {
				t.Fatal("match must be audited against the requisition")
			}
		}
	}
	if !sawMatched {
		t.Fatal("expected a three-way-matched audit entry")
	}
}

func TestMatchVarianceOutsideToleranceDisputes(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, []LineInput{
		{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(150)},
	})

	outcome, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if outcome.Result.Passed {
		t.Fatal("expected dispute")
	}
	if outcome.Invoice.Status != enums.InvoiceStatusDisputed {
		t.Fatalf("expected disputed got %s", outcome.Invoice.Status)
	}
}

func TestMatchRequiresReceipt(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())
	repo.orders[po.ID].Receipt = nil

	_, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestDisputedInvoiceCanBeRematched(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, []LineInput{
		{Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(150)},
	})

	first, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("first match failed: %v", err)
	}
	if first.Invoice.Status != enums.InvoiceStatusDisputed {
		t.Fatalf("expected disputed got %s", first.Invoice.Status)
	}

	second, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("rematch failed: %v", err)
	}
	if second.Invoice.Status != enums.InvoiceStatusDisputed {
		t.Fatalf("expected disputed got %s", second.Invoice.Status)
	}
}

func TestApproveForPaymentRequiresMatch(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())

	_, err := svc.ApproveForPayment(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestApproveForPaymentClosesOutOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())

	if _, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("match failed: %v", err)
	}

	approved, err := svc.ApproveForPayment(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != enums.InvoiceStatusApprovedForPayment {
		t.Fatalf("expected approved_for_payment got %s", approved.Status)
	}
	if repo.orders[po.ID].Status != enums.PurchaseOrderStatusPaid {
		t.Fatalf("expected paid got %s", repo.orders[po.ID].Status)
	}
}

func TestApproveForPaymentClosesRequisition(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	svc := newTestService(t, repo, auditStub)
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())

	if _, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if _, err := svc.ApproveForPayment(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	requisition := repo.requisitions[po.RequisitionID]
	if requisition.Status != enums.RequisitionStatusClosed {
		t.Fatalf("expected closed got %s", requisition.Status)
	}

	sawClosed := false
	for _, entry := range auditStub.entries {
		if entry.Action == enums.AuditActionClosed {
			sawClosed = true
			if entry.EntityID != requisition.ID {
				t.Fatal("closure must be audited against the requisition")
			}
		}
	}
	if !sawClosed {
		t.Fatal("expected a closed audit entry")
	}
}

func TestApproveForPaymentSkipsUndeliveredRequisition(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubAudit{})
	po := seedDeliveredOrder(repo)
	invoice := submitInvoice(t, svc, po, matchingLines())
	repo.requisitions[po.RequisitionID].Status = enums.RequisitionStatusCancelled

	if _, err := svc.Match(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if _, err := svc.ApproveForPayment(context.Background(), invoice.ID, audit.Actor{UserID: uuid.New()}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := repo.requisitions[po.RequisitionID].Status; got != enums.RequisitionStatusCancelled {
		t.Fatalf("expected requisition untouched got %s", got)
	}
}
