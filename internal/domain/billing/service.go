package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/appointments/internal/platform/apperr"
	"github.com/clinic/appointments/internal/platform/events"
)

// AppointmentSource is billing's view of the scheduling core.
type AppointmentSource interface {
	GetForInvoice(ctx context.Context, appointmentID uuid.UUID) (*Billable, error)
	// LinkInvoice must fail if the appointment already has an invoice.
	LinkInvoice(ctx context.Context, appointmentID, invoiceID uuid.UUID) error
}

// TxFunc runs fn in a transaction carried on the context it passes to fn.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	customers CustomerRepository
	items     ItemRepository
	invoices  InvoiceRepository
	appts     AppointmentSource
	currency  string
	inTx      TxFunc
	events    events.Publisher
	now       func() time.Time
}

func NewService(customers CustomerRepository, items ItemRepository, invoices InvoiceRepository, appts AppointmentSource, currency string) *Service {
	return &Service{
		customers: customers,
		items:     items,
		invoices:  invoices,
		appts:     appts,
		currency:  currency,
		inTx:      func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) },
		events:    events.NopPublisher{},
		now:       time.Now,
	}
}

// SetTxRunner makes invoice creation and the appointment link commit
// together.
func (s *Service) SetTxRunner(fn TxFunc) {
	if fn != nil {
		s.inTx = fn
	}
}

func (s *Service) SetPublisher(p events.Publisher) {
	if p != nil {
		s.events = p
	}
}

// CreateForAppointment issues a paid POS invoice for the appointment's total
// to the walk-in customer and links it onto the appointment.
//
// Any failure is reported as InvoicingFailed except NotFound for an
// unknown appointment and InvalidTransition for one already invoiced.
func (s *Service) CreateForAppointment(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error) {
	var inv *Invoice
	err := s.inTx(ctx, func(ctx context.Context) error {
		b, err := s.appts.GetForInvoice(ctx, appointmentID)
		if err != nil {
			return err
		}
		// a zero total is treated as unset
		if !b.TotalAmount.Valid || b.TotalAmount.Decimal.IsZero() {
			return apperr.New(apperr.InvoicingFailed, "Invoicing Failed",
				fmt.Sprintf("Cannot create Sales Invoice: total amount is not set on appointment %s.", appointmentID))
		}

		cust, err := s.customers.GetOrCreate(ctx, WalkInCustomer, CustomerIndividual)
		if err != nil {
			return err
		}
		item, err := s.items.GetOrCreate(ctx, b.ServiceName)
		if err != nil {
			return err
		}

		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		inv = &Invoice{
			AppointmentID: b.AppointmentID,
			CustomerID:    cust.ID,
			PostingDate:   today,
			DueDate:       today,
			IsPOS:         true,
			Status:        InvoiceStatusDraft,
			Currency:      s.currency,
		}
		inv.AddItem(&InvoiceLineItem{
			ItemCode:    item.Code,
			ItemName:    item.Name,
			Description: b.LineDescription(),
			Quantity:    decimal.NewFromInt(1),
			Rate:        b.TotalAmount.Decimal,
			UOM:         item.UOM,
		})
		if err := inv.Submit(ModeCash, now); err != nil {
			return err
		}

		if err := s.invoices.Create(ctx, inv); err != nil {
			return err
		}
		return s.appts.LinkInvoice(ctx, b.AppointmentID, inv.ID)
	})
	if err != nil {
		return nil, invoicingErr(appointmentID, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("appointment_id", appointmentID.String()).
		Str("invoice_id", inv.ID.String()).
		Str("grand_total", inv.GrandTotal.String()).
		Msg("sales invoice submitted")
	events.Emit(ctx, s.events, events.InvoicePaid, inv)
	return inv, nil
}

func invoicingErr(appointmentID uuid.UUID, err error) error {
	if ae, ok := apperr.As(err); ok {
		switch ae.Category {
		case apperr.NotFound, apperr.InvalidTransition, apperr.InvoicingFailed:
			return err
		}
	}
	return apperr.Wrap(apperr.InvoicingFailed, err,
		fmt.Sprintf("Could not create Sales Invoice for appointment %s.", appointmentID))
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) ListInvoicesByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Invoice, error) {
	return s.invoices.ListByAppointment(ctx, appointmentID)
}

func (s *Service) ListInvoices(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.List(ctx, limit, offset)
}
