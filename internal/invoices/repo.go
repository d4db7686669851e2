package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an invoices repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) (*models.Invoice, error) {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) ListByPurchaseOrder(ctx context.Context, poID uuid.UUID) ([]models.Invoice, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("purchase_order_id = ?", poID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
	merged := map[string]any{"version": expectedVersion + 1}
	for k, v := range updates {
		merged[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(merged)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
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

func (r *repository) UpdatePurchaseOrderCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
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
