package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker"
)

// Message is a plain e-mail.
type Message struct {
	To      []mail.Address
	ReplyTo *mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer is anything that can deliver a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ConsoleMailer logs messages instead of sending them and keeps a copy.
type ConsoleMailer struct {
	From       mail.Address
	SubjPrefix string

	mu   sync.Mutex
	sent []Message
}

func NewConsoleMailer(from mail.Address, appName string) *ConsoleMailer {
	return &ConsoleMailer{From: from, SubjPrefix: "[" + appName + "] "}
}

func (c *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	slog.InfoContext(ctx, "email",
		"from", c.From.String(),
		"to", joinAddresses(msg.To),
		"subject", c.SubjPrefix+msg.Subject,
		"body", msg.Text,
	)
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

// Sent returns the messages handed to Send so far.
func (c *ConsoleMailer) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.sent...)
}

// SendgridMailer delivers through the SendGrid v3 API behind a circuit breaker
// so an outage fails fast instead of tying up the worker.
type SendgridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	breaker    *gobreaker.CircuitBreaker
}

func NewSendgridMailer(apiKey string, from mail.Address, appName string) *SendgridMailer {
	return &SendgridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + appName + "] ",
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "sendgrid",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (s *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("message has no recipients")
	}
	m := s.prepare(msg)
	_, err := s.breaker.Execute(func() (interface{}, error) {
		res, err := s.client.SendWithContext(ctx, m)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (s *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.ReplyTo != nil {
		m.SetReplyTo(sgmail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Address))
	}
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

func joinAddresses(addrs []mail.Address) string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return strings.Join(out, ", ")
}

// NewMailer returns a SendGrid mailer when apiKey is set and a console mailer otherwise.
func NewMailer(apiKey string, from mail.Address, appName string) Mailer {
	if apiKey == "" {
		slog.Warn("SENDGRID_API_KEY not set, e-mails will be logged only")
		return NewConsoleMailer(from, appName)
	}
	return NewSendgridMailer(apiKey, from, appName)
}
