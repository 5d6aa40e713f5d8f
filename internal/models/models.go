// Package models defines the core data structures shared across the
// sennacar backend: catalog entities, clients, employees, appointments,
// chatbot replies, and the standard API response envelope.
package models

import (
	"errors"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pendente"
	AppointmentConfirmed AppointmentStatus = "confirmado"
	AppointmentCancelled AppointmentStatus = "cancelado"
)

// Valid reports whether s is one of the known appointment statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled:
		return true
	}
	return false
}

// Blocking reports whether an appointment with this status occupies its
// time slot for double-booking purposes.
func (s AppointmentStatus) Blocking() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

// Client is a shop customer. Clients are created either by an employee
// through the API or by the chatbot during registration.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Email     string    `json:"email"`
	Phone     string    `json:"telefone"`
	Notes     string    `json:"observacoes,omitempty"`
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}

// Employee is a staff member able to log into the management API.
// PasswordHash is never serialized.
type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"criado_em"`
}

// Product is a catalog item. Price is the product price and LaborPrice
// the installation surcharge; the customer pays Price+LaborPrice.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"nome"`
	Description string  `json:"descricao,omitempty"`
	Category    string  `json:"categoria"`
	Brand       string  `json:"marca,omitempty"`
	Price       float64 `json:"preco"`
	LaborPrice  float64 `json:"preco_mao_obra"`
}

// TotalPrice returns the full installed price of the product.
func (p Product) TotalPrice() float64 {
	return p.Price + p.LaborPrice
}

// Category groups products ("insulfilm", "som", "multimidia", "ppf").
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"nome"`
	Description string `json:"descricao,omitempty"`
}

// Brand is a product manufacturer.
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"nome"`
}

// Appointment is a scheduled installation. ScheduledAt is stored in UTC;
// presentation layers convert to the shop timezone.
type Appointment struct {
	ID          string            `json:"id"`
	ClientID    string            `json:"cliente_id"`
	ProductIDs  []string          `json:"produtos"`
	ScheduledAt time.Time         `json:"data_agendada"`
	Total       float64           `json:"valor_total"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"observacoes,omitempty"`
	CreatedAt   time.Time         `json:"criado_em"`
}

// ChatReply is the chatbot's answer to one inbound message. Options, when
// present, are quick-reply choices the frontend should render; Form asks
// the frontend to show the contact form and Calendar the date picker.
type ChatReply struct {
	Response     string        `json:"response"`
	Options      []string      `json:"options,omitempty"`
	Form         bool          `json:"form,omitempty"`
	Calendar     bool          `json:"calendar,omitempty"`
	CalendarData *CalendarData `json:"calendar_data,omitempty"`
}

// CalendarData carries scheduling context alongside a Calendar reply so
// the frontend can preselect the day being discussed.
type CalendarData struct {
	Date  string   `json:"date,omitempty"`
	Slots []string `json:"slots,omitempty"`
}

// Sentinel errors shared by store implementations and handlers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateClient indicates a client with the same email or phone
	// already exists.
	ErrDuplicateClient = errors.New("client with same email or phone already exists")
	// ErrDuplicateEmployee indicates an employee email collision.
	ErrDuplicateEmployee = errors.New("employee with same email already exists")
	// ErrSlotTaken indicates another blocking appointment occupies the
	// requested timestamp.
	ErrSlotTaken = errors.New("time slot already booked")
)

// APIResponse provides a consistent JSON envelope for API endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success returns a success response wrapping result.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: "success", Result: result}
}

// SuccessWithMessage returns a success response with a message and result.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: "success", Message: message, Result: result}
}

// Error returns an error response with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: "error", Message: message}
}
