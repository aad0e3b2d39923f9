package scheduling

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is one booked visit for one service on one day.
//
// EstimatedEndTime and TotalAmount are derived on every save and any value
// supplied by a client is overwritten.
type Appointment struct {
	ID               uuid.UUID           `db:"id" json:"id"`
	PatientName      string              `db:"patient_name" json:"patient_name"`
	PatientContact   string              `db:"patient_contact" json:"patient_contact"`
	AppointmentDate  Date                `db:"appointment_date" json:"appointment_date"`
	AppointmentTime  *TimeOfDay          `db:"appointment_time" json:"appointment_time"`
	ServiceID        uuid.UUID           `db:"service_id" json:"service"`
	Status           Status              `db:"status" json:"status"`
	EstimatedEndTime *TimeOfDay          `db:"estimated_end_time" json:"estimated_end_time"`
	TotalAmount      decimal.NullDecimal `db:"total_amount" json:"total_amount"`
	InvoiceID        *uuid.UUID          `db:"invoice_id" json:"invoice,omitempty"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
}

// Span is a half-open [Start, End) interval in seconds from midnight of the
// appointment date. End is never wrapped, so an appointment running past
// midnight still ends after it starts.
type Span struct {
	Start, End int
}

// StartTime and EndTime are the wall-clock ends of s.
func (s Span) StartTime() TimeOfDay { return wrap(s.Start) }
func (s Span) EndTime() TimeOfDay   { return wrap(s.End) }

// Interval returns the appointment's span given its service duration. ok is
// false when the start time is unset.
func (a *Appointment) Interval(durationMinutes int) (span Span, ok bool) {
	if a.AppointmentTime == nil {
		return Span{}, false
	}
	start := int(*a.AppointmentTime)
	return Span{Start: start, End: start + durationMinutes*60}, true
}
