package rfq

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an RFQ repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRFQ(ctx context.Context, rfq *models.RFQ) (*models.RFQ, error) {
	if err := r.db.WithContext(ctx).Create(rfq).Error; err != nil {
		return nil, err
	}
	return rfq, nil
}

func (r *repository) FindRFQByID(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	var rfq models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotes").
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *repository) FindRFQByRequisition(ctx context.Context, requisitionID uuid.UUID) (*models.RFQ, error) {
	var rfq models.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotes").
		Where("requisition_id = ?", requisitionID).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *repository) CreateQuote(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

func (r *repository) FindQuoteByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *repository) ListQuotesByRFQ(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error) {
	var quotes []models.Quote
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("rfq_id = ?", rfqID).
		Order("created_at ASC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

// MarkQuoteSelected wins only when the quote is still submitted and no
// sibling for the same RFQ already reached selected. The NOT EXISTS guard
// is advisory under READ COMMITTED; the idx_quotes_rfq_selected partial
// unique index is what actually holds the one-winner invariant, so a
// concurrent second selection surfaces as a unique violation.
func (r *repository) MarkQuoteSelected(ctx context.Context, quoteID, rfqID uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ? AND status = ?", quoteID, enums.QuoteStatusSubmitted).
		Where("NOT EXISTS (SELECT 1 FROM quotes selected WHERE selected.rfq_id = ? AND selected.status = ?)",
			rfqID, enums.QuoteStatusSelected).
		Updates(map[string]any{
			"status":           enums.QuoteStatusSelected,
			"selection_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RejectSiblingQuotes(ctx context.Context, rfqID, winnerID uuid.UUID, reason string) error {
	return r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("rfq_id = ? AND id <> ? AND status = ?", rfqID, winnerID, enums.QuoteStatusSubmitted).
		Updates(map[string]any{
			"status":           enums.QuoteStatusRejected,
			"selection_reason": reason,
		}).Error
}

func (r *repository) HasSelectedQuote(ctx context.Context, rfqID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("rfq_id = ? AND status = ?", rfqID, enums.QuoteStatusSelected).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindRequisition(ctx context.Context, id uuid.UUID) (*models.Requisition, error) {
	var requisition models.Requisition
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&requisition).Error
	if err != nil {
		return nil, err
	}
	return &requisition, nil
}
