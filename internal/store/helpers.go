package store

import (
	"encoding/json"
	"fmt"

	"github.com/sennacar/sennacar/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to marshal product ids: %w", err)
	}
	return string(b), nil
}

func unmarshalIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product ids: %w", err)
	}
	return ids, nil
}

func scanClient(row rowScanner) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanEmployee(row rowScanner) (models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.PasswordHash, &e.IsAdmin, &e.CreatedAt)
	return e, err
}

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Brand, &p.Price, &p.LaborPrice)
	return p, err
}

func scanAppointment(row rowScanner) (models.Appointment, error) {
	var a models.Appointment
	var rawIDs string
	if err := row.Scan(&a.ID, &a.ClientID, &rawIDs, &a.ScheduledAt, &a.Total, &a.Status, &a.Notes, &a.CreatedAt); err != nil {
		return a, err
	}
	ids, err := unmarshalIDs(rawIDs)
	if err != nil {
		return a, err
	}
	a.ProductIDs = ids
	a.ScheduledAt = a.ScheduledAt.UTC()
	return a, nil
}

func marshalSession(sess *models.ChatSession) (string, error) {
	b, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat session: %w", err)
	}
	return string(b), nil
}

func unmarshalSession(raw string) (*models.ChatSession, error) {
	var sess models.ChatSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat session: %w", err)
	}
	return &sess, nil
}
