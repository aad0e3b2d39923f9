// Package booking is the patient-facing entry point. It turns a public
// booking form into a Scheduled appointment and a paid invoice.
package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/appointments/internal/domain/billing"
	"github.com/clinic/appointments/internal/domain/healthcareservice"
	"github.com/clinic/appointments/internal/domain/scheduling"
	"github.com/clinic/appointments/internal/platform/apperr"
	"github.com/clinic/appointments/internal/platform/events"
	"github.com/clinic/appointments/internal/platform/validation"
)

const (
	msgAllFieldsRequired = "All fields are required to book an appointment."
	msgUnknownService    = "Selected service does not exist."
)

// Scheduler saves appointments through the scheduling pipeline.
type Scheduler interface {
	Save(ctx context.Context, a *scheduling.Appointment) error
	EstimateEndTime(ctx context.Context, serviceID uuid.UUID, t *scheduling.TimeOfDay) (*scheduling.TimeOfDay, error)
}

// ServiceCatalog is the part of the catalog the public pages read.
type ServiceCatalog interface {
	GetHealthcareService(ctx context.Context, id uuid.UUID) (*healthcareservice.HealthcareService, error)
	Catalog(ctx context.Context) ([]healthcareservice.Summary, error)
}

// Invoicer bills a saved appointment.
type Invoicer interface {
	CreateForAppointment(ctx context.Context, appointmentID uuid.UUID) (*billing.Invoice, error)
}

type Service struct {
	scheduler Scheduler
	catalog   ServiceCatalog
	invoicer  Invoicer
	events    events.Publisher
}

func NewService(scheduler Scheduler, catalog ServiceCatalog, invoicer Invoicer) *Service {
	return &Service{
		scheduler: scheduler,
		catalog:   catalog,
		invoicer:  invoicer,
		events:    events.NopPublisher{},
	}
}

func (s *Service) SetPublisher(p events.Publisher) {
	if p != nil {
		s.events = p
	}
}

// Book saves a new Scheduled appointment, then invoices it. Presence of every
// field is checked first, then the service, then the date and time formats.
//
// The two steps commit separately. When invoicing fails the appointment is
// kept without an invoice and an InvoicingFailed error is returned; billing
// staff can retry it later.
func (s *Service) Book(ctx context.Context, req Request) (*Result, error) {
	req.trim()
	if err := validation.Struct(&req); err != nil {
		if apperr.Is(err, apperr.MissingField) {
			return nil, apperr.Wrap(apperr.MissingField, err, msgAllFieldsRequired)
		}
		return nil, err
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NotFound, err, msgUnknownService)
	}
	if _, err := s.catalog.GetHealthcareService(ctx, serviceID); err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, apperr.Wrap(apperr.NotFound, err, msgUnknownService)
		}
		return nil, err
	}

	date, err := scheduling.ParseDate(req.AppointmentDate)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, err.Error())
	}
	at, err := scheduling.ParseTimeOfDay(req.AppointmentTime)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, err.Error())
	}

	appt := &scheduling.Appointment{
		PatientName:     req.PatientName,
		PatientContact:  req.PatientContact,
		AppointmentDate: date,
		AppointmentTime: &at,
		ServiceID:       serviceID,
		Status:          scheduling.StatusScheduled,
	}
	if err := s.scheduler.Save(ctx, appt); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("appointment_date", appt.AppointmentDate.String()).
		Str("appointment_time", at.String()).
		Msg("appointment booked")
	events.Emit(ctx, s.events, events.AppointmentBooked, appt)

	inv, err := s.invoicer.CreateForAppointment(ctx, appt.ID)
	if err != nil {
		log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("invoicing failed after booking")
		if apperr.Is(err, apperr.InvoicingFailed) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.InvoicingFailed, err,
			fmt.Sprintf("Could not create Sales Invoice for appointment %s.", appt.ID))
	}

	return &Result{AppointmentID: appt.ID, InvoiceID: inv.ID}, nil
}

// Services lists the catalog for the booking page.
func (s *Service) Services(ctx context.Context) ([]healthcareservice.Summary, error) {
	return s.catalog.Catalog(ctx)
}

// EndTime previews when an appointment starting at t would end.
func (s *Service) EndTime(ctx context.Context, serviceID uuid.UUID, t *scheduling.TimeOfDay) (*scheduling.TimeOfDay, error) {
	return s.scheduler.EstimateEndTime(ctx, serviceID, t)
}
