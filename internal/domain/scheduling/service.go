package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/clinic/appointments/internal/platform/apperr"
	"github.com/clinic/appointments/internal/platform/events"
)

// TxFunc runs fn in a transaction carried on the context it passes to fn.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func noTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type Service struct {
	appts    AppointmentRepository
	catalog  Catalog
	pipeline *Pipeline
	inTx     TxFunc
	events   events.Publisher
}

func NewService(appts AppointmentRepository, catalog Catalog) *Service {
	return &Service{
		appts:    appts,
		catalog:  catalog,
		pipeline: NewPipeline(catalog, appts),
		inTx:     noTx,
		events:   events.NopPublisher{},
	}
}

// SetTxRunner makes every save run the pipeline and the write in one
// transaction.
func (s *Service) SetTxRunner(fn TxFunc) {
	if fn == nil {
		fn = noTx
	}
	s.inTx = fn
}

func (s *Service) SetPublisher(p events.Publisher) {
	if p == nil {
		p = events.NopPublisher{}
	}
	s.events = p
}

// Save validates a, recomputes its derived fields and inserts it (zero ID)
// or updates it.
func (s *Service) Save(ctx context.Context, a *Appointment) error {
	a.PatientName = strings.TrimSpace(a.PatientName)
	a.PatientContact = strings.TrimSpace(a.PatientContact)
	if err := checkRequired(a); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !a.Status.Valid() {
		return apperr.New(apperr.InvalidInput, "Invalid Status",
			fmt.Sprintf("status must be one of %s, %s, %s", StatusScheduled, StatusCompleted, StatusCancelled))
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if err := s.pipeline.Run(ctx, a); err != nil {
			return err
		}
		if a.ID == uuid.Nil {
			return s.appts.Create(ctx, a)
		}
		return s.appts.Update(ctx, a)
	})
}

func checkRequired(a *Appointment) error {
	var field string
	switch {
	case a.PatientName == "":
		field = "patient_name"
	case a.AppointmentDate.IsZero():
		field = "appointment_date"
	case a.ServiceID == uuid.Nil:
		field = "service"
	default:
		return nil
	}
	return apperr.New(apperr.MissingField, "Missing Field", field+" is required")
}

// CreateAppointment saves a new Scheduled appointment.
func (s *Service) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.Status != "" && a.Status != StatusScheduled {
		return apperr.New(apperr.InvalidTransition, "Invalid Status",
			"New appointments start as Scheduled.")
	}
	a.ID = uuid.Nil
	a.Status = StatusScheduled
	a.InvoiceID = nil
	a.EstimatedEndTime = nil
	a.TotalAmount = decimal.NullDecimal{}
	return s.Save(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

// UpdateAppointment applies the editable fields of a onto the stored
// appointment and re-saves it. Status and invoice are left alone; on return a
// holds the saved record.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	existing, err := s.appts.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	existing.PatientName = a.PatientName
	existing.PatientContact = a.PatientContact
	existing.AppointmentDate = a.AppointmentDate
	existing.AppointmentTime = a.AppointmentTime
	existing.ServiceID = a.ServiceID
	if err := s.Save(ctx, existing); err != nil {
		return err
	}
	*a = *existing
	return nil
}

func (s *Service) ListAppointments(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.Search(ctx, params, limit, offset)
}

// CompleteAppointment marks a Scheduled appointment Completed.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.transition(ctx, id, StatusCompleted)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", a.ID.String()).
		Str("patient_name", a.PatientName).
		Str("patient_contact", a.PatientContact).
		Msg("appointment completed")
	events.Emit(ctx, s.events, events.AppointmentCompleted, a)
	return a, nil
}

// CancelAppointment marks a Scheduled appointment Cancelled. The record is
// kept and its slot becomes free.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.transition(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	events.Emit(ctx, s.events, events.AppointmentCancelled, a)
	return a, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, apperr.New(apperr.InvalidTransition, "Invalid Status Change",
			fmt.Sprintf("Appointment is %s and can no longer be marked %s.", a.Status, to))
	}
	a.Status = to
	if err := s.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// LinkInvoice records the invoice issued for an appointment. It fails if
// one is already linked.
func (s *Service) LinkInvoice(ctx context.Context, appointmentID, invoiceID uuid.UUID) error {
	return s.appts.SetInvoice(ctx, appointmentID, invoiceID)
}

// EstimateEndTime previews the end time of an appointment of the given
// service starting at t. It returns nil when either input is empty, the
// service does not exist or it has no duration.
func (s *Service) EstimateEndTime(ctx context.Context, serviceID uuid.UUID, t *TimeOfDay) (*TimeOfDay, error) {
	if serviceID == uuid.Nil || t == nil {
		return nil, nil
	}
	duration, _, err := s.catalog.GetDurationAndPrice(ctx, serviceID)
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, nil
	}
	end := t.AddMinutes(duration)
	return &end, nil
}

// GetPrice returns the catalog price of a service, nil for an empty or
// unknown id.
func (s *Service) GetPrice(ctx context.Context, serviceID uuid.UUID) (*decimal.Decimal, error) {
	if serviceID == uuid.Nil {
		return nil, nil
	}
	_, price, err := s.catalog.GetDurationAndPrice(ctx, serviceID)
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}
