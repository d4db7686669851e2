package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
)

// Repository defines persistence operations for the append-only audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]models.AuditEntry, error)
}
