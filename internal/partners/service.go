package partners

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts partner persistence for the service.
type RepositoryPort interface {
	ListPartners(ctx context.Context, kind Kind, search string) ([]Partner, error)
	GetPartner(ctx context.Context, kind Kind, id string) (*Partner, error)
	CreatePartner(ctx context.Context, partner Partner) error
	UpdatePartner(ctx context.Context, partner Partner) error
	DeletePartner(ctx context.Context, kind Kind, id string) error
}

// Service coordinates partner directory operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// PartnerInput carries fields for creating or updating a partner.
type PartnerInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// ListPartners returns partners of the given kind, optionally filtered by a
// search term over name and phone.
func (s *Service) ListPartners(ctx context.Context, kind Kind, search string) ([]Partner, error) {
	return s.repo.ListPartners(ctx, kind, strings.TrimSpace(search))
}

// GetPartner fetches a single partner of the given kind.
func (s *Service) GetPartner(ctx context.Context, kind Kind, id string) (*Partner, error) {
	return s.repo.GetPartner(ctx, kind, id)
}

// CreatePartner registers a partner in the given directory.
func (s *Service) CreatePartner(ctx context.Context, kind Kind, input PartnerInput) (*Partner, error) {
	now := time.Now().UTC()
	partner := Partner{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.TrimSpace(input.Email),
		Address:   strings.TrimSpace(input.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePartner(ctx, partner); err != nil {
		return nil, err
	}
	return &partner, nil
}

// UpdatePartner modifies an existing partner.
func (s *Service) UpdatePartner(ctx context.Context, kind Kind, id string, input PartnerInput) (*Partner, error) {
	partner, err := s.repo.GetPartner(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	partner.Name = strings.TrimSpace(input.Name)
	partner.Phone = strings.TrimSpace(input.Phone)
	partner.Email = strings.TrimSpace(input.Email)
	partner.Address = strings.TrimSpace(input.Address)
	partner.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdatePartner(ctx, *partner); err != nil {
		return nil, err
	}
	return partner, nil
}

// DeletePartner removes a partner from the directory.
func (s *Service) DeletePartner(ctx context.Context, kind Kind, id string) error {
	return s.repo.DeletePartner(ctx, kind, id)
}
