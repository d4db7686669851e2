package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
)

// Actor identifies who performed an action and from where. DelegatedFrom is
// set when the actor acted under another user's delegated authority.
type Actor struct {
	UserID        uuid.UUID
	DelegatedFrom *uuid.UUID
	IPAddress     string
	UserAgent     string
}

// Entry is the input for one audit trail record.
type Entry struct {
	EntityID   uuid.UUID
	EntityType string
	Action     enums.AuditAction
	Actor      Actor
	Details    map[string]any
}

// Service records workflow events and serves the per-entity trail.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	Trail(ctx context.Context, entityID uuid.UUID) ([]models.AuditEntry, error)
}

type service struct {
	repo Repository
}

// NewService builds the audit service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// Record appends one entry inside the caller's transaction so the event is
// committed atomically with the transition that produced it.
func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if entry.EntityID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entity id required")
	}
	if entry.Action == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit action required")
	}
	if entry.Actor.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit actor required")
	}

	row := &models.AuditEntry{
		ID:            uuid.New(),
		EntityID:      entry.EntityID,
		EntityType:    entry.EntityType,
		Action:        entry.Action,
		UserID:        entry.Actor.UserID,
		DelegatedFrom: entry.Actor.DelegatedFrom,
		IPAddress:     entry.Actor.IPAddress,
		UserAgent:     entry.Actor.UserAgent,
		Details:       entry.Details,
	}

	if err := s.repo.WithTx(tx).Create(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
	}
	return nil
}

func (s *service) Trail(ctx context.Context, entityID uuid.UUID) ([]models.AuditEntry, error) {
	if entityID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "entity id required")
	}
	entries, err := s.repo.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load audit trail")
	}
	return entries, nil
}
