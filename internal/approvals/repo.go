package approvals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an approvals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) ListActiveUsersByVessel(ctx context.Context, vesselID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("vessel_id = ? AND active = ?", vesselID, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) ListDelegationsByVessel(ctx context.Context, vesselID uuid.UUID, at time.Time) ([]models.Delegation, error) {
	var rows []models.Delegation
	err := r.db.WithContext(ctx).
		Where("vessel_id = ? AND start_date <= ? AND end_date > ?", vesselID, at, at).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateDelegation(ctx context.Context, delegation *models.Delegation) (*models.Delegation, error) {
	if err := r.db.WithContext(ctx).Create(delegation).Error; err != nil {
		return nil, err
	}
	return delegation, nil
}

func (r *repository) ListDelegationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Delegation, error) {
	var rows []models.Delegation
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
