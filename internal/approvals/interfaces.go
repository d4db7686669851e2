package approvals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

// Repository defines persistence operations for the roster and delegation
// tables the resolver reads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActiveUsersByVessel(ctx context.Context, vesselID uuid.UUID) ([]models.User, error)
	ListDelegationsByVessel(ctx context.Context, vesselID uuid.UUID, at time.Time) ([]models.Delegation, error)
	CreateDelegation(ctx context.Context, delegation *models.Delegation) (*models.Delegation, error)
	ListDelegationsByUser(ctx context.Context, userID uuid.UUID) ([]models.Delegation, error)
}
