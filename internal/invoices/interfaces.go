package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

// Repository defines persistence operations for invoices and the purchase
// order rows the matcher reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]models.Invoice, error)
	UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	UpdatePurchaseOrderCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	FindRequisition(ctx context.Context, id uuid.UUID) (*models.Requisition, error)
	UpdateRequisitionCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
}
