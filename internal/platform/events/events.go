// Package events publishes appointment and invoice lifecycle notifications
// to a RabbitMQ topic exchange. Downstream consumers (reminders, reporting)
// bind their own queues; the scheduling core never waits on them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Routing keys.
const (
	AppointmentBooked    = "appointment.booked"
	AppointmentCompleted = "appointment.completed"
	AppointmentCancelled = "appointment.cancelled"
	InvoicePaid          = "invoice.paid"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// NewEnvelope wraps data for the given routing key.
func NewEnvelope(key string, data any) Envelope {
	return Envelope{
		ID:         uuid.New(),
		Type:       key,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher sends an event. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, data any) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Emit publishes and logs a failure instead of returning it. Notifications
// are best effort: the appointment is already committed when they go out.
func Emit(ctx context.Context, p Publisher, key string, data any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, data); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event", key).Msg("failed to publish event")
	}
}
