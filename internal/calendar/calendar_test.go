package calendar

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockEventCreator(t *testing.T) {
	mock := NewMockEventCreator()
	ev := Event{
		Summary:     "Agendamento - João Silva",
		Description: "Produtos: Insulfilm G20",
		Start:       time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
	}

	id, err := mock.CreateEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Error("expected a non-empty event id")
	}
	if len(mock.Events) != 1 || mock.Events[0].Summary != ev.Summary {
		t.Errorf("unexpected recorded events: %+v", mock.Events)
	}

	mock.Err = errors.New("calendar down")
	if _, err := mock.CreateEvent(context.Background(), ev); err == nil {
		t.Error("expected configured error")
	}
	if len(mock.Events) != 1 {
		t.Errorf("failed create should not be recorded, got %d", len(mock.Events))
	}
}

func TestNewGoogleClientValidation(t *testing.T) {
	if _, err := NewGoogleClient(context.Background()); err == nil {
		t.Error("expected error without credentials and token files")
	}
	if _, err := NewGoogleClient(context.Background(), WithCredentialsFile("/nonexistent/creds.json")); err == nil {
		t.Error("expected error without token file")
	}
	if _, err := NewGoogleClient(context.Background(),
		WithCredentialsFile("/nonexistent/creds.json"),
		WithTokenFile("/nonexistent/token.json"),
	); err == nil {
		t.Error("expected error for missing credentials file")
	}
}
