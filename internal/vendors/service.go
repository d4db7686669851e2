package vendors

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/harborops/seaprocure-backend/pkg/db/models"
	"github.com/harborops/seaprocure-backend/pkg/enums"
	pkgerrors "github.com/harborops/seaprocure-backend/pkg/errors"
)

// Service exposes directory reads plus the eligibility lookup consumed by
// RFQ generation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context) ([]models.Vendor, error)
	Eligible(ctx context.Context, categories []string, urgency enums.UrgencyLevel) ([]models.Vendor, error)
}

// CreateInput carries the fields for a new directory entry.
type CreateInput struct {
	Name             string
	Email            string
	Categories       []string
	ServiceAreas     []string
	AvgResponseHours int
}

type service struct {
	repo Repository
}

// NewService builds a vendor directory service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Vendor, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor email required")
	}

	vendor := &models.Vendor{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		Categories:   input.Categories,
		ServiceAreas: input.ServiceAreas,
		Active:       true,
	}
	if input.AvgResponseHours > 0 {
		vendor.AvgResponseHours = input.AvgResponseHours
	} else {
		vendor.AvgResponseHours = 48
	}

	created, err := s.repo.Create(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}
	return vendor, nil
}

func (s *service) List(ctx context.Context) ([]models.Vendor, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	return rows, nil
}

// Eligible returns active vendors covering at least one of the requested
// categories. Emergency urgency orders candidates fastest-response first;
// directory volume is small enough that filtering happens in memory.
func (s *service) Eligible(ctx context.Context, categories []string, urgency enums.UrgencyLevel) ([]models.Vendor, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	wanted := map[string]bool{}
	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			wanted[c] = true
		}
	}

	var eligible []models.Vendor
	for _, vendor := range rows {
		if len(wanted) == 0 {
			eligible = append(eligible, vendor)
			continue
		}
		for _, c := range vendor.Categories {
			if wanted[strings.ToLower(c)] {
				eligible = append(eligible, vendor)
				break
			}
		}
	}

	if urgency == enums.UrgencyEmergency {
		sort.SliceStable(eligible, func(i, j int) bool {
			return eligible[i].AvgResponseHours < eligible[j].AvgResponseHours
		})
	}
	return eligible, nil
}
