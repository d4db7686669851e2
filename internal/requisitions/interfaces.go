package requisitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	"github.com/harborops/seaprocure-backend/pkg/pagination"
)

// ListFilters narrows a vessel listing.
type ListFilters struct {
	Status *enums.RequisitionStatus
}

// Repository defines persistence operations for requisitions and their
// approval records. UpdateCAS is the optimistic-concurrency write: it
// applies updates only when the stored version still matches and reports
// whether the write won.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, requisition *models.Requisition) (*models.Requisition, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Requisition, error)
	FindByOfflineID(ctx context.Context, offlineID string) (*models.Requisition, error)
	UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	CreateApprovalRecord(ctx context.Context, record *models.ApprovalRecord) error
	ListApprovalRecords(ctx context.Context, requisitionID uuid.UUID) ([]models.ApprovalRecord, error)
	ListByVessel(ctx context.Context, vesselID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Requisition, string, error)
}
