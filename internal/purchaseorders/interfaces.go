package purchaseorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

// Repository defines persistence operations for purchase orders, their
// receipts, and the per-month numbering counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) (*models.PurchaseOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.PurchaseOrder, error)
	NextPONumber(ctx context.Context, month string) (int, error)
	UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	CreateDeliveryReceipt(ctx context.Context, receipt *models.DeliveryReceipt) error
	FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	FindRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	FindRequisition(ctx context.Context, id uuid.UUID) (*models.Requisition, error)
	UpdateRequisitionCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error)
	FindVessel(ctx context.Context, id uuid.UUID) (*models.Vessel, error)
}
