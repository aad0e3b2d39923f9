package healthcareservice

import (
	"context"

	"github.com/google/uuid"
)

type HealthcareServiceRepository interface {
	Create(ctx context.Context, hs *HealthcareService) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthcareService, error)
	Update(ctx context.Context, hs *HealthcareService) error
	// List and ListAll order by name ascending.
	List(ctx context.Context, limit, offset int) ([]*HealthcareService, int, error)
	ListAll(ctx context.Context) ([]*HealthcareService, error)
}
