package healthcareservice

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/appointments/internal/platform/validation"
)

// Service manages the catalog. It is also the lookup the scheduling core
// uses for durations and prices.
type Service struct {
	services HealthcareServiceRepository
}

func NewService(services HealthcareServiceRepository) *Service {
	return &Service{services: services}
}

// GetDurationAndPrice returns the service's duration in minutes and its
// price. Unknown ids fail with a NotFound error.
func (s *Service) GetDurationAndPrice(ctx context.Context, id uuid.UUID) (int, decimal.Decimal, error) {
	hs, err := s.services.GetByID(ctx, id)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return hs.DurationMinutes, hs.Price, nil
}

func (s *Service) CreateHealthcareService(ctx context.Context, hs *HealthcareService) error {
	if err := validation.Struct(hs); err != nil {
		return err
	}
	return s.services.Create(ctx, hs)
}

func (s *Service) GetHealthcareService(ctx context.Context, id uuid.UUID) (*HealthcareService, error) {
	return s.services.GetByID(ctx, id)
}

func (s *Service) UpdateHealthcareService(ctx context.Context, hs *HealthcareService) error {
	if err := validation.Struct(hs); err != nil {
		return err
	}
	return s.services.Update(ctx, hs)
}

func (s *Service) ListHealthcareServices(ctx context.Context, limit, offset int) ([]*HealthcareService, int, error) {
	return s.services.List(ctx, limit, offset)
}

// Catalog returns every service as its public summary, sorted by name.
func (s *Service) Catalog(ctx context.Context) ([]Summary, error) {
	items, err := s.services.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(items))
	for _, hs := range items {
		out = append(out, hs.Summary())
	}
	return out, nil
}
