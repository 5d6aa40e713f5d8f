package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sennacar/sennacar/internal/models"
)

// contactPattern captures "Nome, email, telefone" in one message.
var contactPattern = regexp.MustCompile(`^([\p{L}\s]+),\s*([\w.-]+@[\w.-]+\.\w+),\s*(\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{0,4})$`)

// parseContact extracts a contact draft from a free-form message.
func parseContact(message string) (models.ContactInfo, bool) {
	m := contactPattern.FindStringSubmatch(strings.TrimSpace(message))
	if m == nil {
		return models.ContactInfo{}, false
	}
	return models.ContactInfo{
		Name:  strings.TrimSpace(m[1]),
		Email: strings.TrimSpace(m[2]),
		Phone: strings.TrimSpace(m[3]),
	}, true
}

// beginContactConfirmation stores the draft and echoes it back for the
// "dados corretos"/"dados incorretos" check.
func (e *Engine) beginContactConfirmation(sess *models.ChatSession, contact models.ContactInfo) models.ChatReply {
	sess.ContactDraft = &contact
	sess.State = models.StateConfirmingContact
	return models.ChatReply{
		Response: fmt.Sprintf(
			"Por favor, confirme seus dados:\n\nNome: %s\nEmail: %s\nTelefone: %s\n\nDigite 'dados corretos' para confirmar ou 'dados incorretos' para reenviar.",
			contact.Name, contact.Email, contact.Phone),
		Options: []string{"Dados corretos", "Dados incorretos"},
	}
}

// handleContactConfirmation resolves the pending contact draft.
func (e *Engine) handleContactConfirmation(ctx context.Context, sess *models.ChatSession, lower string) models.ChatReply {
	switch lower {
	case "dados corretos":
		return e.registerClient(ctx, sess)
	case "dados incorretos":
		sess.ContactDraft = nil
		sess.State = models.StateIdle
		return models.ChatReply{
			Response: "↩️ Por favor, reenvie seus dados: Nome, Email, Telefone",
			Form:     true,
		}
	default:
		return models.ChatReply{
			Response: "⚠️ Digite 'dados corretos' para confirmar ou 'dados incorretos' para corrigir",
			Options:  []string{"Dados corretos", "Dados incorretos"},
		}
	}
}

// registerClient commits the draft: an existing client (matched by
// phone) is updated, a new one is created. With products already
// selected the dialogue moves straight to date capture.
func (e *Engine) registerClient(ctx context.Context, sess *models.ChatSession) models.ChatReply {
	draft := sess.ContactDraft
	if draft == nil {
		sess.State = models.StateIdle
		return models.ChatReply{
			Response: "↩️ Por favor, reenvie seus dados: Nome, Email, Telefone",
			Form:     true,
		}
	}

	existing, err := e.store.GetClientByPhone(draft.Phone)
	if err != nil {
		slog.Error("Engine.registerClient: phone lookup failed", "error", err)
		return models.ChatReply{Response: "Desculpe, ocorreu um erro ao salvar seus dados. Tente novamente."}
	}

	var confirmed string
	if existing != nil {
		existing.Name = draft.Name
		existing.Email = draft.Email
		if err := e.store.UpdateClient(*existing); err != nil {
			slog.Error("Engine.registerClient: update failed", "error", err, "client_id", existing.ID)
			return models.ChatReply{Response: "Desculpe, ocorreu um erro ao salvar seus dados. Tente novamente."}
		}
		sess.ClientID = existing.ID
		confirmed = "⚠️ Dados confirmados (cliente já existia)"
	} else {
		created, err := e.store.CreateClient(models.Client{
			Name:  draft.Name,
			Email: draft.Email,
			Phone: draft.Phone,
		})
		if err != nil {
			if errors.Is(err, models.ErrDuplicateClient) {
				sess.ContactDraft = nil
				sess.State = models.StateIdle
				return models.ChatReply{
					Response: "⚠️ Já existe um cadastro com este email. Envie seus dados novamente: Nome, Email, Telefone",
					Form:     true,
				}
			}
			slog.Error("Engine.registerClient: create failed", "error", err)
			return models.ChatReply{Response: "Desculpe, ocorreu um erro ao salvar seus dados. Tente novamente."}
		}
		sess.ClientID = created.ID
		confirmed = "✅ Dados confirmados!"
	}

	contact := *draft
	sess.Contact = &contact
	sess.ContactDraft = nil

	if len(sess.Selected) > 0 {
		sess.State = models.StateAwaitingDatetime
		return models.ChatReply{
			Response: confirmed + "\n\n📅 Informe a data e horário (DD/MM/AAAA HH:MM):",
			Calendar: true,
		}
	}
	sess.State = models.StateIdle
	if existing != nil {
		return models.ChatReply{Response: confirmed, Options: topLevelOptions}
	}
	return models.ChatReply{Response: "✅ Dados confirmados com sucesso!", Options: topLevelOptions}
}
