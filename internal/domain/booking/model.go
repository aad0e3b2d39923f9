package booking

import (
	"strings"

	"github.com/google/uuid"
)

// Request is the public booking form. Every field is required.
type Request struct {
	PatientName     string `json:"patient_name" validate:"required"`
	PatientContact  string `json:"patient_contact" validate:"required"`
	AppointmentDate string `json:"appointment_date" validate:"required"`
	AppointmentTime string `json:"appointment_time" validate:"required"`
	ServiceID       string `json:"service" validate:"required"`
}

func (r *Request) trim() {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.PatientContact = strings.TrimSpace(r.PatientContact)
	r.AppointmentDate = strings.TrimSpace(r.AppointmentDate)
	r.AppointmentTime = strings.TrimSpace(r.AppointmentTime)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
}

// Result identifies what a successful booking created.
type Result struct {
	AppointmentID uuid.UUID `json:"appointment"`
	InvoiceID     uuid.UUID `json:"invoice"`
}
