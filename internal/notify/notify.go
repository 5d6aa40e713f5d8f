// Package notify sends WhatsApp notifications to clients through the
// Twilio API. Notification failures are never fatal to a booking.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/sennacar/sennacar/internal/schedule"
)

// Notifier sends a WhatsApp message to a phone number.
type Notifier interface {
	SendWhatsApp(ctx context.Context, to string, body string) error
}

// Opts holds configuration options for the Twilio client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromWhats  string
}

// Option defines a configuration option for the Twilio client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromWhats sets the sending WhatsApp number
// ("whatsapp:+1234567890" format).
func WithFromWhats(from string) Option {
	return func(o *Opts) { o.FromWhats = from }
}

// Client wraps the Twilio REST API for WhatsApp.
type Client struct {
	client    *twilio.RestClient
	fromWhats string
}

// NewClient creates a Twilio WhatsApp client. Options fall back to the
// TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER
// environment variables.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromWhats == "" {
		cfg.FromWhats = os.Getenv("TWILIO_FROM_NUMBER")
	}
	slog.Debug("Twilio client config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromWhats_set", cfg.FromWhats != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromWhats == "" {
		return nil, fmt.Errorf("fromWhats number must be provided")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Client{client: client, fromWhats: cfg.FromWhats}, nil
}

// SendWhatsApp sends a WhatsApp message using the Twilio API.
func (c *Client) SendWhatsApp(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + normalizePhone(to))
	params.SetFrom(c.fromWhats)
	params.SetBody(body)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio SendWhatsApp failed", "to", to, "error", err)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("Twilio message sent", "to", to)
	return nil
}

// normalizePhone strips separators and prefixes the Brazilian country
// code when absent.
func normalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '+' {
			return r
		}
		return -1
	}, phone)
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	return "+55" + cleaned
}

// ConfirmationMessage builds the booking confirmation text.
func ConfirmationMessage(clientName string, scheduledAt time.Time, productNames []string, total float64) string {
	return fmt.Sprintf(
		"Olá %s! Seu agendamento foi confirmado.\n\n📅 Data: %s\n🔧 Serviços: %s\n💳 Valor total: R$%.2f\n\nObrigado por agendar conosco!",
		clientName, schedule.FormatDateTime(scheduledAt), strings.Join(productNames, ", "), total)
}

// ReminderMessage builds the next-day reminder text.
func ReminderMessage(clientName string, scheduledAt time.Time) string {
	return fmt.Sprintf(
		"Olá %s! Lembrete: você tem um agendamento amanhã, %s. Até lá!",
		clientName, schedule.FormatDateTime(scheduledAt))
}

// MockNotifier records sent messages for tests.
type MockNotifier struct {
	SentMessages []SentMessage
	Err          error
}

// SentMessage is one recorded notification.
type SentMessage struct {
	To   string
	Body string
}

// NewMockNotifier creates an empty mock.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{SentMessages: []SentMessage{}}
}

func (m *MockNotifier) SendWhatsApp(ctx context.Context, to string, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.SentMessages = append(m.SentMessages, SentMessage{To: to, Body: body})
	return nil
}
