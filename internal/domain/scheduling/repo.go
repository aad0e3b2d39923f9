package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// ListActiveByDate returns the non-cancelled appointments on date other
	// than excludeID.
	ListActiveByDate(ctx context.Context, date Date, excludeID uuid.UUID) ([]*Appointment, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	// SetInvoice records invoiceID on an appointment that has none yet.
	SetInvoice(ctx context.Context, id, invoiceID uuid.UUID) error
}
