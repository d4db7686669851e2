package purchaseorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return nil, err
	}
	return po, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Receipt").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) FindByQuoteID(ctx context.Context, quoteID uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Receipt").
		Where("quote_id = ?", quoteID).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// NextPONumber bumps the per-month counter atomically and returns the new
// value. The upsert keeps concurrent generators from ever sharing a number.
func (r *repository) NextPONumber(ctx context.Context, month string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO po_sequences (month, last_value) VALUES (?, 1)
		 ON CONFLICT (month) DO UPDATE SET last_value = po_sequences.last_value + 1
		 RETURNING last_value`,
		month,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	merged := map[string]any{"version": expectedVersion + 1}
	for k, v := range updates {
		merged[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateDeliveryReceipt(ctx context.Context, receipt *models.DeliveryReceipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *repository) FindQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
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

func (r *repository) FindRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	var rfq models.RFQ
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rfq).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
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

func (r *repository) UpdateRequisitionCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	merged := map[string]any{"version": expectedVersion + 1}
	for k, v := range updates {
		merged[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.Requisition{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindVessel(ctx context.Context, id uuid.UUID) (*models.Vessel, error) {
	var vessel models.Vessel
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&vessel).Error
	if err != nil {
		return nil, err
	}
	return &vessel, nil
}
