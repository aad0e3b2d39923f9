package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic/appointments/internal/platform/apperr"
)

// Working hours: 09:00 inclusive to 17:00 exclusive. Only the start time is
// checked, an appointment may run past closing.
var (
	OpeningTime = NewTimeOfDay(9, 0, 0)
	ClosingTime = NewTimeOfDay(17, 0, 0)
)

// Catalog is the only view of the service catalog the scheduling core
// needs. Unknown ids must fail with an apperr.NotFound error.
type Catalog interface {
	GetDurationAndPrice(ctx context.Context, id uuid.UUID) (int, decimal.Decimal, error)
}

// ActiveLister finds the appointments an overlap check compares against.
type ActiveLister interface {
	ListActiveByDate(ctx context.Context, date Date, excludeID uuid.UUID) ([]*Appointment, error)
}

// Pipeline validates a candidate appointment and fills in its derived
// fields. It runs before every insert and update:
//
//  1. working hours
//  2. overlap with other non-cancelled appointments that day
//  3. estimated end time and total amount
//
// The first failing step aborts the run. Steps 1 and 2 never modify the
// appointment.
type Pipeline struct {
	catalog Catalog
	appts   ActiveLister
}

func NewPipeline(catalog Catalog, appts ActiveLister) *Pipeline {
	return &Pipeline{catalog: catalog, appts: appts}
}

// Run executes the three steps in order.
func (p *Pipeline) Run(ctx context.Context, a *Appointment) error {
	if err := CheckWorkingHours(a.AppointmentTime); err != nil {
		return err
	}
	if a.AppointmentTime == nil || a.ServiceID == uuid.Nil {
		return nil
	}

	duration, price, err := p.catalog.GetDurationAndPrice(ctx, a.ServiceID)
	if err != nil {
		return err
	}

	if !a.AppointmentDate.IsZero() {
		if err := p.checkOverlap(ctx, a, duration); err != nil {
			return err
		}
	}

	end := a.AppointmentTime.AddMinutes(duration)
	a.EstimatedEndTime = &end
	a.TotalAmount = decimal.NewNullDecimal(price)
	return nil
}

// CheckWorkingHours fails with OutsideWorkingHours unless
// OpeningTime <= t < ClosingTime. A nil time passes.
func CheckWorkingHours(t *TimeOfDay) error {
	if t == nil {
		return nil
	}
	if t.Before(OpeningTime) || !t.Before(ClosingTime) {
		return apperr.New(apperr.OutsideWorkingHours, "Outside Working Hours",
			"Appointments can only be scheduled between 9:00 AM and 5:00 PM. "+
				"Please choose a time within clinic working hours.")
	}
	return nil
}

// Overlaps reports whether two half-open spans intersect. Touching
// endpoints do not overlap.
func Overlaps(a, b Span) bool {
	return a.Start < b.End && a.End > b.Start
}

// CheckOverlap runs the overlap step on its own. It is a no-op when the
// date, time or service is unset.
func (p *Pipeline) CheckOverlap(ctx context.Context, a *Appointment) error {
	if a.AppointmentDate.IsZero() || a.AppointmentTime == nil || a.ServiceID == uuid.Nil {
		return nil
	}
	duration, _, err := p.catalog.GetDurationAndPrice(ctx, a.ServiceID)
	if err != nil {
		return err
	}
	return p.checkOverlap(ctx, a, duration)
}

func (p *Pipeline) checkOverlap(ctx context.Context, a *Appointment, duration int) error {
	span, _ := a.Interval(duration)

	existing, err := p.appts.ListActiveByDate(ctx, a.AppointmentDate, a.ID)
	if err != nil {
		return fmt.Errorf("list appointments on %s: %w", a.AppointmentDate, err)
	}

	for _, ex := range existing {
		// durations are read from the catalog as it is now, not as it was
		// when ex was booked; a service that no longer exists counts as 0
		exDuration, _, err := p.catalog.GetDurationAndPrice(ctx, ex.ServiceID)
		if err != nil {
			if !apperr.Is(err, apperr.NotFound) {
				return err
			}
			exDuration = 0
		}
		exSpan, ok := ex.Interval(exDuration)
		if !ok {
			continue
		}
		if Overlaps(span, exSpan) {
			return apperr.New(apperr.OverlapDetected, "Appointment Overlap Detected",
				fmt.Sprintf("This time slot overlaps with %s's appointment (%s – %s). Please choose a different time.",
					ex.PatientName, exSpan.StartTime().HHMM(), exSpan.EndTime().HHMM()))
		}
	}
	return nil
}
