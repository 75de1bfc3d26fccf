// Package notify carries submission events from the public forms to staff:
// live over the admin websocket and asynchronously by e-mail through a queue.
package notify

import (
	"context"
	"log/slog"
	"time"
)

const (
	KindContact        = "contact"
	KindQuote          = "quote"
	KindConsultation   = "consultation"
	KindHRConsultation = "hr_consultation"
	KindTestimonial    = "testimonial"
)

// Event describes a new public submission.
type Event struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher hands events to the asynchronous notification pipeline.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Broadcaster pushes events to connected dashboards.
type Broadcaster interface {
	Broadcast(ev Event)
}

// Dispatcher fans an event out to the live feed and the queue. Publishing is
// best effort: the submission has already been stored when Dispatch runs.
type Dispatcher struct {
	Publisher   Publisher
	Broadcaster Broadcaster
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if d.Broadcaster != nil {
		d.Broadcaster.Broadcast(ev)
	}
	if d.Publisher != nil {
		if err := d.Publisher.Publish(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "publish submission event failed", "kind", ev.Kind, "id", ev.ID, "error", err)
		}
	}
}

// NoopPublisher drops events; used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// FuncPublisher adapts a function to Publisher. The in-process fallback wires
// the worker's Handle here so mail is still sent without a broker.
type FuncPublisher func(ctx context.Context, ev Event) error

func (f FuncPublisher) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }
