package rfq

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

// Repository defines persistence operations for RFQs and quotes.
// MarkQuoteSelected is conditional: it wins only while the quote is still
// submitted and no sibling has been selected.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRFQ(ctx context.Context, rfq *models.RFQ) (*models.RFQ, error)
	FindRFQByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	FindRFQByRequisition(ctx context.Context, requisitionID uuid.UUID) (*models.RFQ, error)
	CreateQuote(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	FindQuoteByID(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	ListQuotesByRFQ(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error)
	MarkQuoteSelected(ctx context.Context, quoteID, rfqID uuid.UUID, reason string) (bool, error)
	RejectSiblingQuotes(ctx context.Context, rfqID, winnerID uuid.UUID, reason string) error
	HasSelectedQuote(ctx context.Context, rfqID uuid.UUID) (bool, error)
	FindRequisition(ctx context.Context, id uuid.UUID) (*models.Requisition, error)
}
