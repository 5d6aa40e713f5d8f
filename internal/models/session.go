package models

import "time"

// SessionState identifies where a chat session currently is in the
// dialogue. Exactly one state is active at a time; every state carries
// its working data in the ChatSession payload fields.
type SessionState string

const (
	// StateIdle means no sub-flow is active.
	StateIdle SessionState = "idle"
	// StateSelectingProducts means a category was listed and the session
	// is picking products from it.
	StateSelectingProducts SessionState = "selecting_products"
	// StateConfirmingContact means contact data was captured and awaits
	// "dados corretos"/"dados incorretos".
	StateConfirmingContact SessionState = "confirming_contact"
	// StateSchedulingDecision means the session was asked whether it
	// wants to schedule the installation now.
	StateSchedulingDecision SessionState = "scheduling_decision"
	// StateAwaitingDatetime means the session must provide a date and
	// time in "DD/MM/AAAA HH:MM" form.
	StateAwaitingDatetime SessionState = "awaiting_datetime"
	// StateConfirmingAppointment means a draft appointment was echoed and
	// awaits confirmar/cancelar/alterar data.
	StateConfirmingAppointment SessionState = "confirming_appointment"
)

// ContactInfo is the captured "Nome, email, telefone" triple.
type ContactInfo struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
	Phone string `json:"telefone"`
}

// SelectedProduct is one product the session added to its selection.
type SelectedProduct struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"nome"`
	Category   string  `json:"categoria"`
	Price      float64 `json:"preco"`
	LaborPrice float64 `json:"preco_mao_obra"`
}

// Subtotal returns the installed price of the selected product.
func (p SelectedProduct) Subtotal() float64 {
	return p.Price + p.LaborPrice
}

// AppointmentDraft holds the pending appointment while it awaits the
// session's confirmation.
type AppointmentDraft struct {
	ClientID    string    `json:"client_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	ProductIDs  []string  `json:"product_ids"`
	Total       float64   `json:"total"`
}

// ChatSession is the full persisted dialogue state for one conversation.
// Sessions are keyed by the caller-provided session id so concurrent
// conversations never share mutable state.
type ChatSession struct {
	ID    string       `json:"id"`
	State SessionState `json:"state"`

	// ContactDraft holds contact data awaiting confirmation; Contact is
	// the confirmed, registered client data.
	ContactDraft *ContactInfo `json:"contact_draft,omitempty"`
	Contact      *ContactInfo `json:"contact,omitempty"`
	ClientID     string       `json:"client_id,omitempty"`

	// Category and Catalog cache the last listed category so selection
	// by index stays stable while the session is choosing.
	Category string            `json:"category,omitempty"`
	Catalog  []SelectedProduct `json:"catalog,omitempty"`

	Selected []SelectedProduct `json:"selected,omitempty"`
	Draft    *AppointmentDraft `json:"draft,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelectionTotal returns the running subtotal of the selected products.
func (s *ChatSession) SelectionTotal() float64 {
	var total float64
	for _, p := range s.Selected {
		total += p.Subtotal()
	}
	return total
}

// Reset clears every sub-flow buffer and returns the session to idle.
// Confirmed contact data survives a reset so a registered client does
// not have to re-register after cancelling.
func (s *ChatSession) Reset() {
	s.State = StateIdle
	s.ContactDraft = nil
	s.Category = ""
	s.Catalog = nil
	s.Selected = nil
	s.Draft = nil
}
