package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sennacar/sennacar/internal/calendar"
	"github.com/sennacar/sennacar/internal/models"
	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/schedule"
)

const datetimePrompt = "📅 Por favor, informe a data e horário (DD/MM/AAAA HH:MM):"

// startSchedulingDecision is the intent entry point: guards first, then
// asks whether to begin scheduling now.
func (e *Engine) startSchedulingDecision(sess *models.ChatSession) models.ChatReply {
	if reply, ok := e.schedulingGuard(sess); !ok {
		return reply
	}
	sess.State = models.StateSchedulingDecision
	return models.ChatReply{
		Response: fmt.Sprintf(
			"Você tem %d produto(s) selecionado(s), total R$%.2f. Deseja agendar a instalação agora?",
			len(sess.Selected), sess.SelectionTotal()),
		Options: []string{"Sim", "Não"},
	}
}

// startScheduling is the quick-reply entry point ("Agendar instalação"):
// guards first, then goes straight to date capture.
func (e *Engine) startScheduling(sess *models.ChatSession) models.ChatReply {
	if reply, ok := e.schedulingGuard(sess); !ok {
		return reply
	}
	sess.State = models.StateAwaitingDatetime
	return models.ChatReply{
		Response: "Vamos agendar! Por favor, informe a data e horário desejados (formato: DD/MM/AAAA HH:MM):",
		Calendar: true,
	}
}

// schedulingGuard enforces the entry preconditions without changing
// state: products selected and client registered.
func (e *Engine) schedulingGuard(sess *models.ChatSession) (models.ChatReply, bool) {
	if len(sess.Selected) == 0 {
		return models.ChatReply{
			Response: "Nenhum produto selecionado. Por favor, selecione um produto primeiro.",
			Options:  categoryOptions,
		}, false
	}
	if sess.Contact == nil || sess.Contact.Name == "" {
		return models.ChatReply{
			Response: "Para agendar, preciso dos seus dados. Por favor, envie no formato: Nome, Email, Telefone",
			Form:     true,
		}, false
	}
	return models.ChatReply{}, true
}

// handleSchedulingDecision captures the yes/no answer for whether to
// begin scheduling.
func (e *Engine) handleSchedulingDecision(sess *models.ChatSession, lower string) models.ChatReply {
	if lower == "sim" || lower == "s" {
		sess.State = models.StateAwaitingDatetime
		return models.ChatReply{Response: datetimePrompt, Calendar: true}
	}
	sess.State = models.StateIdle
	return models.ChatReply{Response: "Agendamento cancelado. Como posso ajudar?", Options: topLevelOptions}
}

// handleDatetime parses the proposed timestamp and builds the draft
// appointment for confirmation.
func (e *Engine) handleDatetime(ctx context.Context, sess *models.ChatSession, message string) models.ChatReply {
	when, err := schedule.ParseDateTime(message)
	if err != nil {
		return models.ChatReply{
			Response: "❌ Formato inválido. Use DD/MM/AAAA HH:MM ou comandos ('confirmar', 'cancelar', 'alterar data')",
			Calendar: true,
		}
	}

	if len(sess.Selected) == 0 {
		sess.Reset()
		return models.ChatReply{
			Response: "❌ Nenhum produto selecionado. Por favor, recomece.",
			Options:  topLevelOptions,
		}
	}
	if sess.Contact == nil {
		sess.Reset()
		return models.ChatReply{
			Response: "❌ Cliente não encontrado. Por favor, cadastre-se primeiro.",
			Form:     true,
		}
	}

	client, err := e.store.GetClientByPhone(sess.Contact.Phone)
	if err != nil {
		slog.Error("Engine.handleDatetime: client lookup failed", "error", err)
		return models.ChatReply{Response: "Desculpe, ocorreu um erro. Tente novamente."}
	}
	if client == nil {
		sess.Reset()
		return models.ChatReply{
			Response: "❌ Cliente não encontrado. Por favor, cadastre-se primeiro.",
			Form:     true,
		}
	}

	productIDs := make([]string, 0, len(sess.Selected))
	for _, p := range sess.Selected {
		productIDs = append(productIDs, p.ProductID)
	}
	sess.Draft = &models.AppointmentDraft{
		ClientID:    client.ID,
		ScheduledAt: when,
		ProductIDs:  productIDs,
		Total:       sess.SelectionTotal(),
	}
	sess.State = models.StateConfirmingAppointment

	var b strings.Builder
	b.WriteString("📋 Confirme o agendamento:\n\n")
	b.WriteString(fmt.Sprintf("📅 Data: %s\n", schedule.FormatDateTime(when)))
	b.WriteString("🔧 Serviços:\n")
	for _, p := range sess.Selected {
		b.WriteString(fmt.Sprintf("- %s (%s)\n", p.Name, p.Category))
	}
	b.WriteString(fmt.Sprintf("\n💳 Valor Total: R$%.2f\n\n", sess.Draft.Total))
	b.WriteString("Digite:\n- 'confirmar' para finalizar\n- 'cancelar' para abortar\n- 'alterar data' para corrigir")

	return models.ChatReply{
		Response: b.String(),
		Options:  []string{"Confirmar", "Cancelar", "Alterar data"},
	}
}

// handleAppointmentConfirmation resolves the pending appointment draft.
func (e *Engine) handleAppointmentConfirmation(ctx context.Context, sess *models.ChatSession, lower string) models.ChatReply {
	switch lower {
	case "confirmar", "sim":
		return e.commitAppointment(ctx, sess)
	case "alterar data":
		sess.Draft = nil
		sess.State = models.StateAwaitingDatetime
		return models.ChatReply{
			Response: "Por favor, informe a nova data (DD/MM/AAAA HH:MM):",
			Calendar: true,
		}
	default:
		sess.Draft = nil
		sess.State = models.StateIdle
		return models.ChatReply{
			Response: "Agendamento não confirmado. Como posso ajudar?",
			Options:  topLevelOptions,
		}
	}
}

// commitAppointment persists the draft. A slot conflict sends the user
// back to date capture with the day's remaining free slots; calendar
// sync and WhatsApp confirmation are best-effort.
func (e *Engine) commitAppointment(ctx context.Context, sess *models.ChatSession) models.ChatReply {
	draft := sess.Draft
	if draft == nil {
		sess.Reset()
		return models.ChatReply{
			Response: "❌ Dados do agendamento perdidos. Por favor, recomece.",
			Options:  topLevelOptions,
		}
	}

	productNames := make([]string, 0, len(sess.Selected))
	for _, p := range sess.Selected {
		productNames = append(productNames, p.Name)
	}

	created, err := e.store.CreateAppointment(models.Appointment{
		ClientID:    draft.ClientID,
		ProductIDs:  draft.ProductIDs,
		ScheduledAt: draft.ScheduledAt,
		Total:       draft.Total,
		Status:      models.AppointmentConfirmed,
	})
	if err != nil {
		if errors.Is(err, models.ErrSlotTaken) {
			sess.Draft = nil
			sess.State = models.StateAwaitingDatetime
			return models.ChatReply{
				Response:     "❌ Este horário já está ocupado. Por favor, informe outra data (DD/MM/AAAA HH:MM):",
				Calendar:     true,
				CalendarData: e.freeSlots(draft.ScheduledAt),
			}
		}
		slog.Error("Engine.commitAppointment: create failed", "error", err)
		return models.ChatReply{Response: "❌ Não foi possível confirmar o agendamento. Tente novamente."}
	}

	e.syncCalendar(ctx, sess, created, productNames)
	e.notifyClient(ctx, sess, created, productNames)

	when := schedule.FormatDateTime(created.ScheduledAt)
	sess.Selected = nil
	sess.Catalog = nil
	sess.Category = ""
	sess.Draft = nil
	sess.State = models.StateIdle

	return models.ChatReply{
		Response: fmt.Sprintf(
			"✅ Agendamento confirmado!\n\n📅 Data: %s\n🔧 Serviços: %s\n📋 ID: %s\n\nObrigado por agendar conosco!",
			when, strings.Join(productNames, ", "), created.ID),
		Options: topLevelOptions,
	}
}

// freeSlots returns the remaining slots of the requested day for the
// conflict reply. Best-effort: nil on query failure.
func (e *Engine) freeSlots(when time.Time) *models.CalendarData {
	start, end := schedule.DayBounds(when)
	booked, err := e.store.FindAppointmentsByDateRange(start, end, "")
	if err != nil {
		slog.Debug("Engine.freeSlots: appointment query failed", "error", err)
		return nil
	}
	return &models.CalendarData{
		Date:  when.In(schedule.Location()).Format(schedule.DateLayout),
		Slots: schedule.AvailableSlots(when, booked),
	}
}

// syncCalendar mirrors the booking to the external calendar. Failure is
// logged and never blocks the booking.
func (e *Engine) syncCalendar(ctx context.Context, sess *models.ChatSession, a models.Appointment, productNames []string) {
	if e.events == nil {
		return
	}
	name := ""
	if sess.Contact != nil {
		name = sess.Contact.Name
	}
	ev := calendar.Event{
		Summary:     fmt.Sprintf("Agendamento - %s", name),
		Description: fmt.Sprintf("Produtos: %s", strings.Join(productNames, ", ")),
		Start:       a.ScheduledAt.In(schedule.Location()),
		TimeZone:    "America/Sao_Paulo",
	}
	if _, err := e.events.CreateEvent(ctx, ev); err != nil {
		slog.Error("Engine.syncCalendar: calendar sync failed", "error", err, "appointment_id", a.ID)
	}
}

// notifyClient sends the WhatsApp confirmation. Failure is logged and
// never blocks the booking.
func (e *Engine) notifyClient(ctx context.Context, sess *models.ChatSession, a models.Appointment, productNames []string) {
	if e.notifier == nil || sess.Contact == nil {
		return
	}
	body := notify.ConfirmationMessage(sess.Contact.Name, a.ScheduledAt, productNames, a.Total)
	if err := e.notifier.SendWhatsApp(ctx, sess.Contact.Phone, body); err != nil {
		slog.Error("Engine.notifyClient: notification failed", "error", err, "appointment_id", a.ID)
	}
}
