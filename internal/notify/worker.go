package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/abic-consultancy/abic_backend/internal/metrics"
)

var kindLabels = map[string]string{
	KindContact:        "contact message",
	KindQuote:          "quote request",
	KindConsultation:   "consultation booking",
	KindHRConsultation: "HR consultation request",
	KindTestimonial:    "testimonial",
}

// adminPaths maps event kinds to their dashboard route segment.
var adminPaths = map[string]string{
	KindContact:        "contact",
	KindQuote:          "quote",
	KindConsultation:   "consultations",
	KindHRConsultation: "hr-consultation",
	KindTestimonial:    "testimonials",
}

// Worker turns submission events into e-mails: one to staff and, for forms
// that carry an address, an acknowledgement to the submitter.
type Worker struct {
	Mailer     Mailer
	StaffEmail mail.Address
	AdminURL   string
}

func (w *Worker) Handle(ctx context.Context, ev Event) error {
	label, ok := kindLabels[ev.Kind]
	if !ok {
		label = ev.Kind
	}

	staff := Message{
		To:      []mail.Address{w.StaffEmail},
		Subject: fmt.Sprintf("New %s: %s", label, ev.Title),
		Text:    w.staffBody(label, ev),
	}
	if ev.Email != "" {
		staff.ReplyTo = &mail.Address{Name: ev.Name, Address: ev.Email}
	}
	if err := w.send(ctx, staff); err != nil {
		return err
	}

	if ev.Email == "" || ev.Kind == KindTestimonial {
		return nil
	}
	ack := Message{
		To:      []mail.Address{{Name: ev.Name, Address: ev.Email}},
		Subject: "We received your " + label,
		Text:    ackBody(label, ev),
	}
	// staff were already mailed; a retry would send them a duplicate
	if err := w.send(ctx, ack); err != nil {
		slog.WarnContext(ctx, "acknowledgement mail failed", "kind", ev.Kind, "id", ev.ID, "error", err)
	}
	return nil
}

func (w *Worker) send(ctx context.Context, msg Message) error {
	if err := w.Mailer.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	return nil
}

func (w *Worker) staffBody(label string, ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new %s was submitted.\n\n", label)
	fmt.Fprintf(&b, "From: %s <%s>\n", ev.Name, ev.Email)
	fmt.Fprintf(&b, "Title: %s\n", ev.Title)
	if ev.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", ev.Summary)
	}
	if w.AdminURL != "" {
		path, ok := adminPaths[ev.Kind]
		if !ok {
			path = ev.Kind
		}
		fmt.Fprintf(&b, "\nReview it at %s/%s/%s\n", strings.TrimRight(w.AdminURL, "/"), path, ev.ID)
	}
	return b.String()
}

func ackBody(label string, ev Event) string {
	name := ev.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,\n\nThank you for your %s. Our team will get back to you shortly.\n\nABIC Consultancy\n", name, label)
}
