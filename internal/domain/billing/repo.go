package billing

import (
	"context"

	"github.com/google/uuid"
)

type CustomerRepository interface {
	// GetOrCreate returns the customer with the given name, creating it on
	// first use.
	GetOrCreate(ctx context.Context, name, customerType string) (*Customer, error)
}

type ItemRepository interface {
	// GetOrCreate returns the item with the given code, creating a non-stock
	// service item on first use.
	GetOrCreate(ctx context.Context, code string) (*Item, error)
}

type InvoiceRepository interface {
	// Create stores the header with its items and payments.
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
}
