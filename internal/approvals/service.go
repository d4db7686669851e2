package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborops/seaprocure-backend/internal/audit"
	"github.com/harborops/seaprocure-backend/pkg/config"
	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Service resolves approval authority and manages delegations.
type Service interface {
	Resolve(ctx context.Context, requisition *models.Requisition) (Resolution, error)
	CanEmergencyOverride(ctx context.Context, actorID uuid.UUID, vesselID uuid.UUID) (bool, error)
	CreateDelegation(ctx context.Context, input CreateDelegationInput) (*models.Delegation, error)
	ListDelegations(ctx context.Context, userID uuid.UUID) ([]models.Delegation, error)
}

// CreateDelegationInput carries the fields for a new delegation window.
type CreateDelegationInput struct {
	FromUserID  uuid.UUID
	ToUserID    uuid.UUID
	VesselID    uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Permissions []enums.DelegationPermission
	Reason      string
	Actor       audit.Actor
}

type service struct {
	repo  Repository
	tx    txRunner
	audit auditRecorder
	cfg   config.ProcurementConfig
	now   func() time.Time
}

// NewService builds the approvals service.
func NewService(repo Repository, tx txRunner, auditSvc auditRecorder, cfg config.ProcurementConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("approvals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if auditSvc == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:  repo,
		tx:    tx,
		audit: auditSvc,
		cfg:   cfg,
		now:   time.Now,
	}, nil
}

// Resolve loads the vessel roster and active delegations and computes the
// approval requirement.
func (s *service) Resolve(ctx context.Context, requisition *models.Requisition) (Resolution, error) {
	if requisition == nil {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "requisition required")
	}

	now := s.now()
	users, err := s.repo.ListActiveUsersByVessel(ctx, requisition.VesselID)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vessel roster")
	}
	delegations, err := s.repo.ListDelegationsByVessel(ctx, requisition.VesselID, now)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delegations")
	}

	return Resolve(requisition, users, delegations, now, s.cfg.MinorSpendLimit), nil
}

// CanEmergencyOverride checks the fixed capability gate: the actor must be
// an active roster member of the requisition's vessel holding a role with
// the override capability.
func (s *service) CanEmergencyOverride(ctx context.Context, actorID uuid.UUID, vesselID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil || vesselID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "actor and vessel ids required")
	}

	user, err := s.repo.FindUser(ctx, actorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor")
	}
	if !user.Active {
		return false, nil
	}
	if user.VesselID == nil || *user.VesselID != vesselID {
		return false, nil
	}
	return HasCapability(user.Role, CapabilityEmergencyOverride), nil
}

func (s *service) CreateDelegation(ctx context.Context, input CreateDelegationInput) (*models.Delegation, error) {
	if input.FromUserID == uuid.Nil || input.ToUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delegation requires both users")
	}
	if input.FromUserID == input.ToUserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot delegate to self")
	}
	if input.VesselID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vessel id required")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delegation window must end after it starts")
	}
	if len(input.Permissions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one permission required")
	}
	for _, perm := range input.Permissions {
		if !perm.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown permission %q", perm))
		}
	}
	// Only the principal may hand out their own authority.
	if input.Actor.UserID != input.FromUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the delegating user can create the delegation")
	}

	fromUser, err := s.repo.FindUser(ctx, input.FromUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delegating user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delegating user")
	}
	if !fromUser.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delegating user is inactive")
	}
	if _, err := s.repo.FindUser(ctx, input.ToUserID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delegate user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delegate user")
	}

	delegation := &models.Delegation{
		ID:          uuid.New(),
		FromUserID:  input.FromUserID,
		ToUserID:    input.ToUserID,
		VesselID:    input.VesselID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Permissions: input.Permissions,
		Reason:      input.Reason,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateDelegation(ctx, delegation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delegation")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			EntityID:   delegation.ID,
			EntityType: "delegation",
			Action:     enums.AuditActionDelegationCreated,
			Actor:      input.Actor,
			Details: map[string]any{
				"to_user_id": input.ToUserID.String(),
				"vessel_id":  input.VesselID.String(),
				"start_date": input.StartDate,
				"end_date":   input.EndDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return delegation, nil
}

func (s *service) ListDelegations(ctx context.Context, userID uuid.UUID) ([]models.Delegation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListDelegationsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delegations")
	}
	return rows, nil
}
