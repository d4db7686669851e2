package requisitions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/approvals"
	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
	"github.com/harborops/seaprocure-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	mu           sync.Mutex
	requisitions map[uuid.UUID]*models.Requisition
	records      []models.ApprovalRecord
	createCalls  int
	// frozenRead pins FindByID to a snapshot so concurrent callers all
	// observe the same starting state.
	frozenRead *models.Requisition
}

func newStubRepo() *stubRepo {
	return &stubRepo{requisitions: map[uuid.UUID]*models.Requisition{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, requisition *models.Requisition) (*models.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	clone := *requisition
	s.requisitions[requisition.ID] = &clone
	return requisition, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozenRead != nil && s.frozenRead.ID == id {
		clone := *s.frozenRead
		return &clone, nil
	}
	stored, ok := s.requisitions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) FindByOfflineID(ctx context.Context, offlineID string) (*models.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.requisitions {
		if stored.OfflineID != nil && *stored.OfflineID == offlineID {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requisitions[id]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	if status, ok := updates["status"]; ok {
		stored.Status = status.(enums.RequisitionStatus)
	}
	if v, ok := updates["emergency_override"]; ok {
		stored.EmergencyOverride = v.(bool)
	}
	if v, ok := updates["pending_documentation"]; ok {
		stored.PendingDocumentation = v.(bool)
	}
	stored.Version = expectedVersion + 1
	return true, nil
}

func (s *stubRepo) CreateApprovalRecord(ctx context.Context, record *models.ApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *stubRepo) ListApprovalRecords(ctx context.Context, requisitionID uuid.UUID) ([]models.ApprovalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ApprovalRecord
	for _, record := range s.records {
		if record.RequisitionID == requisitionID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubRepo) ListByVessel(ctx context.Context, vesselID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Requisition, string, error) {
	return nil, "", nil
}

type stubResolver struct {
	resolution  approvals.Resolution
	canOverride bool
}

func (s *stubResolver) Resolve(ctx context.Context, requisition *models.Requisition) (approvals.Resolution, error) {
	return s.resolution, nil
}

func (s *stubResolver) CanEmergencyOverride(ctx context.Context, actorID, vesselID uuid.UUID) (bool, error) {
	return s.canOverride, nil
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

func (s *stubAudit) byAction(action enums.AuditAction) []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Entry
	for _, entry := range s.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}

type stubIssuer struct {
	rfq     *models.RFQ
	vendors []models.Vendor
	err     error
}

func (s *stubIssuer) IssueForRequisition(ctx context.Context, tx *gorm.DB, requisition *models.Requisition) (*models.RFQ, []models.Vendor, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.rfq, s.vendors, nil
}

type stubNotifier struct {
	err    error
	called int
}

func (s *stubNotifier) NotifyRFQIssued(ctx context.Context, rfq *models.RFQ, vendorList []models.Vendor) error {
	s.called++
	return s.err
}

func testConfig() config.ProcurementConfig {
	return config.ProcurementConfig{
		MinorSpendLimit:        decimal.NewFromInt(1000),
		HighValuePOThreshold:   decimal.NewFromInt(25000),
		PriceVarianceTolerance: decimal.NewFromFloat(0.02),
		RFQDeadlineHours:       72,
		EmergencyRFQHours:      12,
	}
}

func newTestService(t *testing.T, repo *stubRepo, resolver *stubResolver, issuer *stubIssuer, notifier *stubNotifier, auditStub *stubAudit) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, resolver, issuer, notifier, auditStub, nil, testConfig())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func testActor() audit.Actor {
	return audit.Actor{UserID: uuid.New(), IPAddress: "10.1.2.3", UserAgent: "bridge-tablet"}
}

func validCreateInput(actor audit.Actor) CreateInput {
	return CreateInput{
		VesselID:     uuid.New(),
		UrgencyLevel: enums.UrgencyRoutine,
		Currency:     enums.CurrencyUSD,
		Actor:        actor,
		LineItems: []LineItemInput{
			{Name: "fuel filter", Category: "engine", Quantity: 3, UnitPrice: decimal.NewFromInt(150)},
			{Name: "hydraulic oil", Category: "engine", Quantity: 2, UnitPrice: decimal.NewFromInt(150)},
		},
	}
}

func TestCreateComputesTotalFromLines(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	svc := newTestService(t, repo, &stubResolver{}, &stubIssuer{}, &stubNotifier{}, auditStub)

	created, err := svc.Create(context.Background(), validCreateInput(testActor()))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !created.TotalAmount.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected total 750 got %s", created.TotalAmount)
	}
	if created.Status != enums.RequisitionStatusDraft {
		t.Fatalf("expected draft got %s", created.Status)
	}
	if len(auditStub.byAction(enums.AuditActionCreated)) != 1 {
		t.Fatal("expected a created audit entry")
	}
}

func TestCreateRejectsNegativeQuantityWithoutPersisting(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubResolver{}, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	input := validCreateInput(testActor())
	input.LineItems[1].Quantity = -2

	_, err := svc.Create(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no persistence, got %d creates", repo.createCalls)
	}
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubResolver{}, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	input := validCreateInput(testActor())
	input.LineItems[0].UnitPrice = decimal.NewFromInt(-5)

	_, err := svc.Create(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatal("expected no persistence")
	}
}

func TestSubmitAutoApprovesBelowMinorSpendLimit(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	resolver := &stubResolver{resolution: approvals.Resolution{AutoApprove: true}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, auditStub)

	actor := testActor()
	created, err := svc.Create(context.Background(), validCreateInput(actor))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	result, err := svc.Submit(context.Background(), created.ID, actor)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !result.AutoApproved {
		t.Fatal("expected auto approval")
	}
	if result.Requisition.Status != enums.RequisitionStatusApproved {
		t.Fatalf("expected approved got %s", result.Requisition.Status)
	}
	if len(repo.records) != 1 || !repo.records[0].Synthetic {
		t.Fatal("expected one synthetic approval record")
	}
}

func TestSubmitRoutesToPendingApproval(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{RequiredRole: enums.CrewRoleCaptain}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	actor := testActor()
	created, _ := svc.Create(context.Background(), validCreateInput(actor))

	result, err := svc.Submit(context.Background(), created.ID, actor)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.AutoApproved {
		t.Fatal("expected human approval required")
	}
	if result.ApprovalLevel != enums.CrewRoleCaptain.String() {
		t.Fatalf("expected captain approval level got %s", result.ApprovalLevel)
	}
	if len(repo.records) != 0 {
		t.Fatal("expected no approval record yet")
	}
}

func TestSubmitRequiresDraft(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{RequiredRole: enums.CrewRoleCaptain}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	actor := testActor()
	created, _ := svc.Create(context.Background(), validCreateInput(actor))
	if _, err := svc.Submit(context.Background(), created.ID, actor); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err := svc.Submit(context.Background(), created.ID, actor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestApproveRecordsDelegation(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	principal := uuid.New()
	delegate := uuid.New()
	resolver := &stubResolver{resolution: approvals.Resolution{
		RequiredRole: enums.CrewRoleCaptain,
		Approvers:    []approvals.Approver{{UserID: delegate, DelegatedFrom: &principal}},
	}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, auditStub)

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))
	if _, err := svc.Submit(context.Background(), created.ID, testActor()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	actor := audit.Actor{UserID: delegate}
	approved, err := svc.Approve(context.Background(), DecisionInput{
		RequisitionID: created.ID,
		Comments:      "within delegated window",
		Actor:         actor,
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != enums.RequisitionStatusApproved {
		t.Fatalf("expected approved got %s", approved.Status)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected one approval record got %d", len(repo.records))
	}
	record := repo.records[0]
	if record.ApproverID != delegate {
		t.Fatal("record must carry the delegate's id")
	}
	if record.DelegatedFrom == nil || *record.DelegatedFrom != principal {
		t.Fatal("record must carry the delegating principal")
	}

	entries := auditStub.byAction(enums.AuditActionApproved)
	if len(entries) != 1 {
		t.Fatalf("expected one approved audit entry got %d", len(entries))
	}
	if entries[0].Actor.UserID != delegate {
		t.Fatal("audit entry must carry the delegate's user id")
	}
	if entries[0].Actor.DelegatedFrom == nil || *entries[0].Actor.DelegatedFrom != principal {
		t.Fatal("audit entry must carry delegatedFrom")
	}
}

func TestApproveWithoutAuthorityFails(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{RequiredRole: enums.CrewRoleCaptain}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))
	if _, err := svc.Submit(context.Background(), created.ID, testActor()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err := svc.Approve(context.Background(), DecisionInput{
		RequisitionID: created.ID,
		Actor:         testActor(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	const callers = 5

	repo := newStubRepo()
	approver := uuid.New()
	resolver := &stubResolver{resolution: approvals.Resolution{
		RequiredRole: enums.CrewRoleCaptain,
		Approvers:    []approvals.Approver{{UserID: approver}},
	}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))
	if _, err := svc.Submit(context.Background(), created.ID, testActor()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Pin reads to the pending snapshot so every caller observes the same
	// starting (status, version) before racing the conditional write.
	repo.mu.Lock()
	snapshot := *repo.requisitions[created.ID]
	repo.frozenRead = &snapshot
	repo.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = svc.Approve(context.Background(), DecisionInput{
				RequisitionID: created.ID,
				Actor:         audit.Actor{UserID: approver},
			})
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner got %d", wins)
	}
	if conflicts != callers-1 {
		t.Fatalf("expected %d conflicts got %d", callers-1, conflicts)
	}

	repo.mu.Lock()
	final := repo.requisitions[created.ID]
	repo.mu.Unlock()
	if final.Status != enums.RequisitionStatusApproved {
		t.Fatalf("expected approved got %s", final.Status)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected exactly one approval record got %d", len(repo.records))
	}
}

func TestRejectReturnsToDraft(t *testing.T) {
	repo := newStubRepo()
	approver := uuid.New()
	resolver := &stubResolver{resolution: approvals.Resolution{
		RequiredRole: enums.CrewRoleCaptain,
		Approvers:    []approvals.Approver{{UserID: approver}},
	}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))
	if _, err := svc.Submit(context.Background(), created.ID, testActor()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	rejected, err := svc.Reject(context.Background(), DecisionInput{
		RequisitionID: created.ID,
		Comments:      "needs budget code",
		Actor:         audit.Actor{UserID: approver},
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != enums.RequisitionStatusDraft {
		t.Fatalf("expected draft for resubmission got %s", rejected.Status)
	}
	if len(repo.records) != 1 || repo.records[0].Decision != enums.ApprovalDecisionRejected {
		t.Fatal("expected a rejected approval record")
	}
}

func TestEmergencyOverrideRequiresCapability(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{canOverride: false}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))

	_, err := svc.EmergencyOverride(context.Background(), OverrideInput{
		RequisitionID:       created.ID,
		Reason:              "main engine cooling failure",
		SafetyJustification: "loss of propulsion in traffic lane",
		Actor:               testActor(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestEmergencyOverrideApprovesWithDocumentation(t *testing.T) {
	repo := newStubRepo()
	auditStub := &stubAudit{}
	resolver := &stubResolver{canOverride: true}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, auditStub)

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))

	overridden, err := svc.EmergencyOverride(context.Background(), OverrideInput{
		RequisitionID:        created.ID,
		Reason:               "main engine cooling failure",
		SafetyJustification:  "loss of propulsion in traffic lane",
		RequiresPostApproval: true,
		Actor:                testActor(),
	})
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if overridden.Status != enums.RequisitionStatusApproved {
		t.Fatalf("expected approved got %s", overridden.Status)
	}
	if !overridden.EmergencyOverride || !overridden.PendingDocumentation {
		t.Fatal("expected override flags set")
	}
	if len(repo.records) != 1 || repo.records[0].Decision != enums.ApprovalDecisionEmergencyOverride {
		t.Fatal("expected an emergency override approval record")
	}

	entries := auditStub.byAction(enums.AuditActionEmergencyOverride)
	if len(entries) != 1 {
		t.Fatalf("expected one override audit entry got %d", len(entries))
	}
	docs, ok := entries[0].Details["required_documentation"].([]string)
	if !ok {
		t.Fatal("expected required documentation in audit details")
	}
	found := false
	for _, doc := range docs {
		if doc == "EMERGENCY_JUSTIFICATION" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected EMERGENCY_JUSTIFICATION requirement")
	}
}

func TestGenerateRFQRequiresApproved(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubResolver{}, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))

	_, err := svc.GenerateRFQ(context.Background(), created.ID, testActor())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestGenerateRFQSurfacesNotifyFailuresAsWarnings(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{AutoApprove: true}}
	issuer := &stubIssuer{
		rfq:     &models.RFQ{ID: uuid.New(), RequisitionID: uuid.New(), Deadline: time.Now().Add(72 * time.Hour)},
		vendors: []models.Vendor{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	notifier := &stubNotifier{err: context.DeadlineExceeded}
	svc := newTestService(t, repo, resolver, issuer, notifier, &stubAudit{})

	actor := testActor()
	created, _ := svc.Create(context.Background(), validCreateInput(actor))
	if _, err := svc.Submit(context.Background(), created.ID, actor); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	result, err := svc.GenerateRFQ(context.Background(), created.ID, actor)
	if err != nil {
		t.Fatalf("notification failure must not fail the transition: %v", err)
	}
	if result.VendorsNotified != 2 {
		t.Fatalf("expected 2 vendors got %d", result.VendorsNotified)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected warnings for failed notification")
	}

	repo.mu.Lock()
	final := repo.requisitions[created.ID]
	repo.mu.Unlock()
	if final.Status != enums.RequisitionStatusRFQIssued {
		t.Fatalf("expected rfq_issued got %s", final.Status)
	}
}

func TestSyncOfflineIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{AutoApprove: true}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	actor := testActor()
	offlineTS := time.Now().Add(-6 * time.Hour)
	input := SyncInput{
		CreateInput:      validCreateInput(actor),
		OfflineID:        "tablet-7-req-0042",
		OfflineTimestamp: offlineTS,
	}

	first, err := svc.SyncOffline(context.Background(), input)
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	if first.AlreadySynced {
		t.Fatal("first sync must create")
	}
	if !first.Requisition.CreatedOffline {
		t.Fatal("expected createdOffline set")
	}

	createsAfterFirst := repo.createCalls

	second, err := svc.SyncOffline(context.Background(), input)
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if !second.AlreadySynced {
		t.Fatal("second sync must be a no-op replay")
	}
	if second.Requisition.ID != first.Requisition.ID {
		t.Fatal("replay must return the same requisition")
	}
	if repo.createCalls != createsAfterFirst {
		t.Fatal("replay must perform no additional writes")
	}
}

func TestSyncOfflineContinuesIntoSubmit(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{AutoApprove: true}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	result, err := svc.SyncOffline(context.Background(), SyncInput{
		CreateInput:      validCreateInput(testActor()),
		OfflineID:        "tablet-7-req-0043",
		OfflineTimestamp: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.Requisition.Status != enums.RequisitionStatusApproved {
		t.Fatalf("expected submit to run, got status %s", result.Requisition.Status)
	}
	if !result.AutoApproved {
		t.Fatal("expected auto approval below the limit")
	}
}

func TestCancelBeforeApproval(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, &stubResolver{}, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	created, _ := svc.Create(context.Background(), validCreateInput(testActor()))
	cancelled, err := svc.Cancel(context.Background(), created.ID, "no longer needed", testActor())
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != enums.RequisitionStatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
}

func TestCancelAfterApprovalFails(t *testing.T) {
	repo := newStubRepo()
	resolver := &stubResolver{resolution: approvals.Resolution{AutoApprove: true}}
	svc := newTestService(t, repo, resolver, &stubIssuer{}, &stubNotifier{}, &stubAudit{})

	actor := testActor()
	created, _ := svc.Create(context.Background(), validCreateInput(actor))
	if _, err := svc.Submit(context.Background(), created.ID, actor); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err := svc.Cancel(context.Background(), created.ID, "changed mind", actor)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}
