package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinic/appointments/internal/domain/billing"
	"github.com/clinic/appointments/internal/domain/healthcareservice"
	"github.com/clinic/appointments/internal/domain/scheduling"
	"github.com/clinic/appointments/internal/platform/apperr"
)

// AppointmentStore is what InvoiceSource needs from scheduling.
type AppointmentStore interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	LinkInvoice(ctx context.Context, appointmentID, invoiceID uuid.UUID) error
}

// ServiceLookup resolves a service id to its catalog entry.
type ServiceLookup interface {
	GetHealthcareService(ctx context.Context, id uuid.UUID) (*healthcareservice.HealthcareService, error)
}

// InvoiceSource joins appointments with their catalog entry for billing.
type InvoiceSource struct {
	appts    AppointmentStore
	services ServiceLookup
}

var _ billing.AppointmentSource = (*InvoiceSource)(nil)

func NewInvoiceSource(appts AppointmentStore, services ServiceLookup) *InvoiceSource {
	return &InvoiceSource{appts: appts, services: services}
}

func (s *InvoiceSource) GetForInvoice(ctx context.Context, appointmentID uuid.UUID) (*billing.Billable, error) {
	a, err := s.appts.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	hs, err := s.services.GetHealthcareService(ctx, a.ServiceID)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.Wrap(apperr.InvoicingFailed, err,
				fmt.Sprintf("Cannot create Sales Invoice: service of appointment %s no longer exists.", appointmentID))
		}
		return nil, err
	}
	return &billing.Billable{
		AppointmentID: a.ID,
		PatientName:   a.PatientName,
		ServiceID:     hs.ID,
		ServiceName:   hs.Name,
		TotalAmount:   a.TotalAmount,
	}, nil
}

func (s *InvoiceSource) LinkInvoice(ctx context.Context, appointmentID, invoiceID uuid.UUID) error {
	return s.appts.LinkInvoice(ctx, appointmentID, invoiceID)
}
