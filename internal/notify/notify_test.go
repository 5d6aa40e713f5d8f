package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sennacar/sennacar/internal/schedule"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare local number gets country code", "11999999999", "+5511999999999"},
		{"formatted local number", "(11) 99999-9999", "+5511999999999"},
		{"already international", "+5511999999999", "+5511999999999"},
		{"international with separators", "+55 11 99999-9999", "+5511999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePhone(tt.input); got != tt.expected {
				t.Errorf("normalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfirmationMessage(t *testing.T) {
	at, err := schedule.ParseDateTime("10/03/2026 14:30")
	if err != nil {
		t.Fatalf("failed to parse datetime: %v", err)
	}
	msg := ConfirmationMessage("João Silva", at, []string{"Insulfilm G20", "Alto-falante 6x9"}, 420)

	if !strings.Contains(msg, "João Silva") {
		t.Errorf("expected client name in message: %q", msg)
	}
	if !strings.Contains(msg, "10/03/2026 14:30") {
		t.Errorf("expected shop-local datetime in message: %q", msg)
	}
	if !strings.Contains(msg, "Insulfilm G20, Alto-falante 6x9") {
		t.Errorf("expected product list in message: %q", msg)
	}
	if !strings.Contains(msg, "R$420.00") {
		t.Errorf("expected total in message: %q", msg)
	}
}

func TestReminderMessage(t *testing.T) {
	at, err := schedule.ParseDateTime("10/03/2026 09:00")
	if err != nil {
		t.Fatalf("failed to parse datetime: %v", err)
	}
	msg := ReminderMessage("Maria", at)
	if !strings.Contains(msg, "Maria") || !strings.Contains(msg, "amanhã") {
		t.Errorf("unexpected reminder message: %q", msg)
	}
	if !strings.Contains(msg, "10/03/2026 09:00") {
		t.Errorf("expected datetime in reminder: %q", msg)
	}
}

func TestMockNotifier(t *testing.T) {
	mock := NewMockNotifier()
	if err := mock.SendWhatsApp(context.Background(), "11999999999", "oi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.SentMessages) != 1 || mock.SentMessages[0].Body != "oi" {
		t.Errorf("unexpected recorded messages: %+v", mock.SentMessages)
	}

	mock.Err = errors.New("boom")
	if err := mock.SendWhatsApp(context.Background(), "11999999999", "oi"); err == nil {
		t.Error("expected configured error")
	}
	if len(mock.SentMessages) != 1 {
		t.Errorf("failed send should not be recorded, got %d", len(mock.SentMessages))
	}
}

func TestNewClientValidation(t *testing.T) {
	for _, key := range []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER"} {
		t.Setenv(key, "")
	}
	if _, err := NewClient(); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewClient(WithAccountSID("AC123"), WithAuthToken("token")); err == nil {
		t.Error("expected error without from number")
	}
	client, err := NewClient(WithAccountSID("AC123"), WithAuthToken("token"), WithFromWhats("whatsapp:+14155238886"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.fromWhats != "whatsapp:+14155238886" {
		t.Errorf("unexpected from number: %q", client.fromWhats)
	}
}
