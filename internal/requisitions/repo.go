package requisitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a requisitions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, requisition *models.Requisition) (*models.Requisition, error) {
	if err := r.db.WithContext(ctx).Create(requisition).Error; err != nil {
		return nil, err
	}
	return requisition, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Requisition, error) {
	var requisition models.Requisition
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&requisition).Error
	if err != nil {
		return nil, err
	}
	return &requisition, nil
}

func (r *repository) FindByOfflineID(ctx context.Context, offlineID string) (*models.Requisition, error) {
	var requisition models.Requisition
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("offline_id = ?", offlineID).
		First(&requisition).Error
	if err != nil {
		return nil, err
	}
	return &requisition, nil
}

// UpdateCAS conditions the write on the version being unchanged since the
// caller's read. Zero rows affected means a lost race or a vanished row;
// the caller re-reads to tell which.
func (r *repository) UpdateCAS(ctx context.Context, id uuid.UUID, expectedVersion int, updates map[string]any) (bool, error) {
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

func (r *repository) CreateApprovalRecord(ctx context.Context, record *models.ApprovalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) ListApprovalRecords(ctx context.Context, requisitionID uuid.UUID) ([]models.ApprovalRecord, error) {
	var records []models.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("requisition_id = ?", requisitionID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListByVessel(ctx context.Context, vesselID uuid.UUID, params pagination.Params, filters ListFilters) ([]models.Requisition, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("vessel_id = ?", vesselID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Requisition
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
