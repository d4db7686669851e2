package purchaseorders

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

func (s *stubAudit) actions() []enums.AuditAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]enums.AuditAction, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.Action)
	}
	return out
}

type stubNotifier struct {
	err    error
	called int
}

func (s *stubNotifier) NotifyPOSent(ctx context.Context, po *models.PurchaseOrder) error {
	s.called++
	return s.err
}

type stubRepo struct {
	mu           sync.Mutex
	orders       map[uuid.UUID]*models.PurchaseOrder
	quotes       map[uuid.UUID]*models.Quote
	rfqs         map[uuid.UUID]*models.RFQ
	requisitions map[uuid.UUID]*models.Requisition
	vessels      map[uuid.UUID]*models.Vessel
	receipts     map[uuid.UUID]*models.DeliveryReceipt
	sequences    map[string]int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders:       map[uuid.UUID]*models.PurchaseOrder{},
		quotes:       map[uuid.UUID]*models.Quote{},
		rfqs:         map[uuid.UUID]*models.RFQ{},
		requisitions: map[uuid.UUID]*models.Requisition{},
		vessels:      map[uuid.UUID]*models.Vessel{},
		receipts:     map[uuid.UUID]*models.DeliveryReceipt{},
		sequences:    map[string]int{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, po *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *po
	s.orders[po.ID] = &clone
	return po, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.orders {
		if stored.QuoteID == quoteID {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) NextPONumber(ctx context.Context, month string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[month]++
	return s.sequences[month], nil
}

func (s *stubRepo) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[id]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		stored.Status = v.(enums.PurchaseOrderStatus)
	}
	if v, ok := updates["delivery_confirmed_at"]; ok {
		ts := v.(time.Time)
		stored.DeliveryConfirmedAt = &ts
	}
	if v, ok := updates["receipt_confirmed_at"]; ok {
		ts := v.(time.Time)
		stored.ReceiptConfirmedAt = &ts
	}
	stored.Version = expectedVersion + 1
	return true, nil
}

func (s *stubRepo) CreateDeliveryReceipt(ctx context.Context, receipt *models.DeliveryReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *receipt
	s.receipts[receipt.PurchaseOrderID] = &clone
	return nil
}

func (s *stubRepo) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) FindRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rfqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
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

func (s *stubRepo) FindVessel(ctx context.Context, id uuid.UUID) (*models.Vessel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.vessels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func testConfig() config.ProcurementConfig {
	return config.ProcurementConfig{
		MinorSpendLimit:        decimal.NewFromInt(500),
		HighValuePOThreshold:   decimal.NewFromInt(25000),
		PriceVarianceTolerance: decimal.NewFromFloat(0.02),
		RFQDeadlineHours:       72,
		EmergencyRFQHours:      12,
	}
}

func newTestService(t *testing.T, repo *stubRepo, notifier *stubNotifier, auditStub *stubAudit) *service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, notifier, auditStub, nil, testConfig())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc.(*service)
}

// seedSelectedQuote wires up the full chain a generation needs: vessel,
// rfq-issued requisition, rfq, and a selected quote at the given total.
func seedSelectedQuote(repo *stubRepo, total decimal.Decimal) *models.Quote {
	lat, lon := decimal.NewFromFloat(1.2644), decimal.NewFromFloat(103.8222)
	departure, destination := "SGSIN", "NLRTM"
	vessel := &models.Vessel{
		ID:                uuid.New(),
		Name:              "MV Coral Trader",
		IMONumber:         "9321483",
		PositionLat:       &lat,
		PositionLon:       &lon,
		VoyageDeparture:   &departure,
		VoyageDestination: &destination,
	}
	repo.vessels[vessel.ID] = vessel

	requisition := &models.Requisition{
		ID:       uuid.New(),
		VesselID: vessel.ID,
		Status:   enums.RequisitionStatusRFQIssued,
		Version:  3,
	}
	repo.requisitions[requisition.ID] = requisition

	rfq := &models.RFQ{ID: uuid.New(), RequisitionID: requisition.ID}
	repo.rfqs[rfq.ID] = rfq

	terms := "FOB Singapore"
	quote := &models.Quote{
		ID:          uuid.New(),
		RFQID:       rfq.ID,
		VendorID:    uuid.New(),
		Status:      enums.QuoteStatusSelected,
		TotalAmount: total,
		Currency:    enums.CurrencyUSD,
		NetDays:     45,
		Terms:       &terms,
		LineItems: []models.QuoteLineItem{
			{ID: uuid.New(), Position: 1, Name: "fuel filter", Quantity: 3, UnitPrice: decimal.NewFromInt(140), TotalPrice: decimal.NewFromInt(420)},
		},
	}
	repo.quotes[quote.ID] = quote
	return quote
}

func TestGenerateSendsBelowThreshold(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, notifier, &stubAudit{})
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC) }

	quote := seedSelectedQuote(repo, decimal.NewFromInt(420))

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !result.Created {
		t.Fatal("expected a fresh order")
	}
	po := result.PurchaseOrder
	if po.Status != enums.PurchaseOrderStatusSent {
		t.Fatalf("expected sent got %s", po.Status)
	}
	if po.PONumber != "PO-202608-0001" {
		t.Fatalf("unexpected po number %s", po.PONumber)
	}
	if po.PaymentTerms.NetDays != 45 {
		t.Fatalf("expected quote's net days got %d", po.PaymentTerms.NetDays)
	}
	if !po.PaymentTerms.InspectionContingent || !po.PaymentTerms.BuyerBankChargesAbroad {
		t.Fatal("expected maritime payment template flags")
	}
	if po.DeliveryTerms.VesselName != "MV Coral Trader" || po.DeliveryTerms.IMONumber != "9321483" {
		t.Fatal("expected vessel snapshot in delivery terms")
	}
	if po.DeliveryTerms.Position == nil || po.DeliveryTerms.Voyage == nil {
		t.Fatal("expected position and voyage snapshots")
	}
	if notifier.called != 1 {
		t.Fatalf("expected vendor notification got %d", notifier.called)
	}

	requisition := repo.requisitions[po.RequisitionID]
	if requisition.Status != enums.RequisitionStatusPOIssued {
		t.Fatalf("expected po_issued got %s", requisition.Status)
	}
}

func TestGenerateHighValueStaysDraft(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, notifier, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(30000))

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.PurchaseOrder.Status != enums.PurchaseOrderStatusDraft {
		t.Fatalf("expected draft got %s", result.PurchaseOrder.Status)
	}
	if notifier.called != 0 {
		t.Fatal("draft orders must not reach the vendor")
	}
}

func TestGenerateExactlyAtThresholdSends(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(25000))

	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if result.PurchaseOrder.Status != enums.PurchaseOrderStatusSent {
		t.Fatalf("threshold is exclusive, expected sent got %s", result.PurchaseOrder.Status)
	}
}

func TestGenerateIsIdempotentPerQuote(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(420))
	actor := audit.Actor{UserID: uuid.New()}

	first, err := svc.Generate(context.Background(), GenerateInput{QuoteID: quote.ID, Actor: actor})
	if err != nil {
		t.Fatalf("first generate failed: %v", err)
	}

	second, err := svc.Generate(context.Background(), GenerateInput{QuoteID: quote.ID, Actor: actor})
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if second.Created {
		t.Fatal("replay must not create")
	}
	if second.PurchaseOrder.ID != first.PurchaseOrder.ID {
		t.Fatal("replay must return the existing order")
	}
	if second.PurchaseOrder.PONumber != first.PurchaseOrder.PONumber {
		t.Fatal("replay must keep the same po number")
	}
	if len(repo.orders) != 1 {
		t.Fatalf("expected one order got %d", len(repo.orders))
	}
}

func TestGenerateRequiresSelectedQuote(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(420))
	repo.quotes[quote.ID].Status = enums.QuoteStatusSubmitted

	_, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestPONumbersIncrementWithinMonth(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})
	svc.now = func() time.Time { return time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC) }

	first := seedSelectedQuote(repo, decimal.NewFromInt(420))
	second := seedSelectedQuote(repo, decimal.NewFromInt(900))
	actor := audit.Actor{UserID: uuid.New()}

	a, err := svc.Generate(context.Background(), GenerateInput{QuoteID: first.ID, Actor: actor})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	b, err := svc.Generate(context.Background(), GenerateInput{QuoteID: second.ID, Actor: actor})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if a.PurchaseOrder.PONumber != "PO-202608-0001" || b.PurchaseOrder.PONumber != "PO-202608-0002" {
		t.Fatalf("unexpected numbering %s %s", a.PurchaseOrder.PONumber, b.PurchaseOrder.PONumber)
	}
}

func TestApproveReleasesDraft(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, notifier, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(30000))
	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	approved, warnings, err := svc.Approve(context.Background(), result.PurchaseOrder.ID, audit.Actor{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != enums.PurchaseOrderStatusSent {
		t.Fatalf("expected sent got %s", approved.Status)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if notifier.called != 1 {
		t.Fatal("approval must notify the vendor")
	}
}

func TestApproveRejectsNonDraft(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	quote := seedSelectedQuote(repo, decimal.NewFromInt(420))
	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	_, _, err = svc.Approve(context.Background(), result.PurchaseOrder.ID, audit.Actor{UserID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func generateSentOrder(t *testing.T, svc *service, repo *stubRepo) *models.PurchaseOrder {
	t.Helper()
	quote := seedSelectedQuote(repo, decimal.NewFromInt(420))
	result, err := svc.Generate(context.Background(), GenerateInput{
		QuoteID: quote.ID,
		Actor:   audit.Actor{UserID: uuid.New()},
	})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return result.PurchaseOrder
}

func TestDeliveryThenReceiptCompletesOrder(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	svc := newTestService(t, repo, &stubNotifier{}, auditStub)

	po := generateSentOrder(t, svc, repo)
	actor := audit.Actor{UserID: uuid.New()}

	afterDelivery, err := svc.ConfirmDelivery(context.Background(), po.ID, actor)
	if err != nil {
		t.Fatalf("confirm delivery failed: %v", err)
	}
	if afterDelivery.Status == enums.PurchaseOrderStatusDelivered {
		t.Fatal("one confirmation must not complete the order")
	}

	afterReceipt, err := svc.ConfirmReceipt(context.Background(), ReceiptInput{
		PurchaseOrderID: po.ID,
		Condition:       "good",
		Lines: []types.ReceiptLine{
			{Name: "fuel filter", OrderedQty: 3, ReceivedQty: 3, Condition: "good"},
		},
		Actor: actor,
	})
	if err != nil {
		t.Fatalf("confirm receipt failed: %v", err)
	}
	if afterReceipt.Status != enums.PurchaseOrderStatusDelivered {
		t.Fatalf("expected delivered got %s", afterReceipt.Status)
	}

	requisition := repo.requisitions[po.RequisitionID]
	if requisition.Status != enums.RequisitionStatusDelivered {
		t.Fatalf("expected requisition delivered got %s", requisition.Status)
	}

	sawDelivered := false
	for _, action := range auditStub.actions() {
		if action == enums.AuditActionDelivered {
			sawDelivered = true
		}
	}
	if !sawDelivered {
		t.Fatal("expected a delivered audit entry")
	}
}

func TestReceiptThenDeliveryCompletesOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	po := generateSentOrder(t, svc, repo)
	actor := audit.Actor{UserID: uuid.New()}

	afterReceipt, err := svc.ConfirmReceipt(context.Background(), ReceiptInput{
		PurchaseOrderID: po.ID,
		Condition:       "good",
		Lines: []types.ReceiptLine{
			{Name: "fuel filter", OrderedQty: 3, ReceivedQty: 2, Condition: "one unit missing"},
		},
		Actor: actor,
	})
	if err != nil {
		t.Fatalf("confirm receipt failed: %v", err)
	}
	if afterReceipt.Status == enums.PurchaseOrderStatusDelivered {
		t.Fatal("one confirmation must not complete the order")
	}

	afterDelivery, err := svc.ConfirmDelivery(context.Background(), po.ID, actor)
	if err != nil {
		t.Fatalf("confirm delivery failed: %v", err)
	}
	if afterDelivery.Status != enums.PurchaseOrderStatusDelivered {
		t.Fatalf("expected delivered got %s", afterDelivery.Status)
	}

	receipt := repo.receipts[po.ID]
	if receipt == nil {
		t.Fatal("expected a stored delivery receipt")
	}
	if receipt.Lines[0].ReceivedQty != 2 {
		t.Fatal("short delivery must be recorded as counted")
	}
}

func TestConfirmDeliveryTwiceFails(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	po := generateSentOrder(t, svc, repo)
	actor := audit.Actor{UserID: uuid.New()}

	if _, err := svc.ConfirmDelivery(context.Background(), po.ID, actor); err != nil {
		t.Fatalf("confirm delivery failed: %v", err)
	}
	_, err := svc.ConfirmDelivery(context.Background(), po.ID, actor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestConfirmReceiptRejectsNegativeQuantity(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubNotifier{}, &stubAudit{})

	po := generateSentOrder(t, svc, repo)

	_, err := svc.ConfirmReceipt(context.Background(), ReceiptInput{
		PurchaseOrderID: po.ID,
		Condition:       "good",
		Lines: []types.ReceiptLine{
			{Name: "fuel filter", OrderedQty: 3, ReceivedQty: -1},
		},
		Actor: audit.Actor{UserID: uuid.New()},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}
