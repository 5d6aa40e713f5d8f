// Package chatbot implements the rule-based dialogue engine that walks a
// user through product selection, registration and appointment
// scheduling. State is kept per session id in the store; concurrent
// conversations never share mutable state.
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sennacar/sennacar/internal/calendar"
	"github.com/sennacar/sennacar/internal/intent"
	"github.com/sennacar/sennacar/internal/models"
	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/store"
)

// Opts holds configuration options for the dialogue engine.
type Opts struct {
	Store      store.Store
	Classifier intent.Classifier
	Keywords   *intent.KeywordClassifier
	Events     calendar.EventCreator
	Notifier   notify.Notifier
}

// Option defines a configuration option for the dialogue engine.
type Option func(*Opts)

// WithStore sets the persistence backend (required).
func WithStore(s store.Store) Option {
	return func(o *Opts) { o.Store = s }
}

// WithClassifier overrides the intent classifier (defaults to the
// embedded keyword classifier).
func WithClassifier(c intent.Classifier) Option {
	return func(o *Opts) { o.Classifier = c }
}

// WithEventCreator enables best-effort calendar sync on booking.
func WithEventCreator(ec calendar.EventCreator) Option {
	return func(o *Opts) { o.Events = ec }
}

// WithNotifier enables best-effort WhatsApp confirmations on booking.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Opts) { o.Notifier = n }
}

// Engine routes each inbound message to exactly one handler based on
// the session state, then persists the mutated session.
type Engine struct {
	store      store.Store
	classifier intent.Classifier
	keywords   *intent.KeywordClassifier
	events     calendar.EventCreator
	notifier   notify.Notifier
}

// NewEngine creates a dialogue engine.
func NewEngine(opts ...Option) (*Engine, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store must be provided")
	}
	keywords, err := intent.NewKeywordClassifier()
	if err != nil {
		return nil, err
	}
	if cfg.Classifier == nil {
		cfg.Classifier = keywords
	}
	return &Engine{
		store:      cfg.Store,
		classifier: cfg.Classifier,
		keywords:   keywords,
		events:     cfg.Events,
		notifier:   cfg.Notifier,
	}, nil
}

// Top-level quick replies shown after a reset or a dead end.
var topLevelOptions = []string{"Agendar", "Ver serviços", "Tirar dúvida"}

// Category menu shown whenever the user needs to pick a category.
var categoryOptions = []string{"Insulfilm", "Som", "Multimídia", "PPF"}

const clarificationResponse = "Desculpe, não entendi. Poderia reformular sua pergunta? " +
	"Caso queira, posso te transferir para um de nossos atendentes, é só digitar 'transferir'."

// HandleMessage processes one inbound message for a session and returns
// the reply. Every path returns a usable reply; internal failures are
// logged and answered with a generic error message.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, message string) (models.ChatReply, error) {
	if sessionID == "" {
		return models.ChatReply{}, fmt.Errorf("session id must not be empty")
	}
	sess, err := e.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Engine.HandleMessage: session load failed", "error", err, "session_id", sessionID)
		return models.ChatReply{Response: "Desculpe, ocorreu um erro. Tente novamente."}, nil
	}
	if sess == nil {
		sess = &models.ChatSession{ID: sessionID, State: models.StateIdle}
	}

	reply := e.dispatch(ctx, sess, strings.TrimSpace(message))

	if err := e.store.SaveSession(sess); err != nil {
		slog.Error("Engine.HandleMessage: session save failed", "error", err, "session_id", sessionID)
	}
	return reply, nil
}

// dispatch applies the fixed priority order: global cancel, reorder
// literals, state handler, selection summary literal, contact capture,
// intent fallback.
func (e *Engine) dispatch(ctx context.Context, sess *models.ChatSession, message string) models.ChatReply {
	lower := strings.ToLower(message)

	// Cancel beats everything, including state handlers.
	if lower == "cancelar" || lower == "cancelar tudo" {
		return e.handleCancel(sess)
	}

	if lower == "adicionar mais produtos" || lower == "continuar comprando" {
		return models.ChatReply{
			Response: "Escolha a categoria para adicionar mais produtos:",
			Options:  categoryOptions,
		}
	}

	switch sess.State {
	case models.StateSelectingProducts:
		return e.handleProductSelection(ctx, sess, message)
	case models.StateConfirmingContact:
		return e.handleContactConfirmation(ctx, sess, lower)
	case models.StateSchedulingDecision:
		return e.handleSchedulingDecision(sess, lower)
	case models.StateAwaitingDatetime:
		return e.handleDatetime(ctx, sess, message)
	case models.StateConfirmingAppointment:
		return e.handleAppointmentConfirmation(ctx, sess, lower)
	}

	if lower == "ver meus produtos" {
		return e.selectionSummary(sess)
	}

	if contact, ok := parseContact(message); ok {
		return e.beginContactConfirmation(sess, contact)
	}

	return e.handleIntent(ctx, sess, message)
}

// handleCancel resets every sub-flow buffer. Confirmed contact data is
// kept so a registered client does not re-register after cancelling.
func (e *Engine) handleCancel(sess *models.ChatSession) models.ChatReply {
	wasScheduling := sess.State == models.StateAwaitingDatetime ||
		sess.State == models.StateConfirmingAppointment ||
		sess.State == models.StateSchedulingDecision
	sess.Reset()
	if wasScheduling {
		return models.ChatReply{Response: "Agendamento cancelado. Como posso ajudar?", Options: topLevelOptions}
	}
	return models.ChatReply{Response: "Operação cancelada. Como posso ajudar?", Options: topLevelOptions}
}

// handleIntent is the classifier fallback: closed intent set, switch
// dispatch, canned response or clarification when nothing matches.
func (e *Engine) handleIntent(ctx context.Context, sess *models.ChatSession, message string) models.ChatReply {
	it, err := e.classifier.Classify(ctx, message)
	if err != nil {
		slog.Error("Engine.handleIntent: classification failed", "error", err)
		return models.ChatReply{Response: clarificationResponse, Options: topLevelOptions}
	}

	switch it {
	case intent.IntentFullCatalog:
		return e.listAllProducts(sess)
	case intent.IntentQuoteInsulfilm, intent.IntentQuoteSound, intent.IntentQuoteMultimedia, intent.IntentQuotePPF:
		return e.listCategory(sess, it.Category())
	case intent.IntentStartScheduling:
		return e.startSchedulingDecision(sess)
	case intent.IntentUnknown:
		return models.ChatReply{Response: clarificationResponse, Options: topLevelOptions}
	default:
		if resp := e.keywords.Response(it); resp != "" {
			return models.ChatReply{Response: resp}
		}
		return models.ChatReply{Response: clarificationResponse, Options: topLevelOptions}
	}
}
