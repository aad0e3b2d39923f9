package healthcareservice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HealthcareService is a billable clinic offering with a fixed duration and
// price.
type HealthcareService struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name" validate:"required,max=140"`
	Description     *string         `db:"description" json:"description,omitempty"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes" validate:"gt=0"`
	Price           decimal.Decimal `db:"price" json:"price" validate:"gte=0"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Summary is the public view of a service shown on the booking page.
type Summary struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Description     *string         `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes int             `json:"duration_minutes"`
}

func (hs *HealthcareService) Summary() Summary {
	return Summary{
		ID:              hs.ID,
		Name:            hs.Name,
		Description:     hs.Description,
		Price:           hs.Price,
		DurationMinutes: hs.DurationMinutes,
	}
}
