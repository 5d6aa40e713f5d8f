package chatbot

import (
	"context"
	"strings"
	"testing"

	"github.com/sennacar/sennacar/internal/calendar"
	"github.com/sennacar/sennacar/internal/models"
	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/schedule"
	"github.com/sennacar/sennacar/internal/store"
)

type engineFixture struct {
	engine   *Engine
	store    *store.InMemoryStore
	events   *calendar.MockEventCreator
	notifier *notify.MockNotifier
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	st := store.NewInMemoryStore()
	events := calendar.NewMockEventCreator()
	notifier := notify.NewMockNotifier()
	eng, err := NewEngine(WithStore(st), WithEventCreator(events), WithNotifier(notifier))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	for _, p := range []models.Product{
		{Name: "Insulfilm G20", Category: "insulfilm", Price: 100.00, LaborPrice: 20.00},
		{Name: "Insulfilm G35", Category: "insulfilm", Price: 50.00, LaborPrice: 0},
		{Name: "Alto-falante 6x9", Category: "som", Price: 250.00, LaborPrice: 50.00},
	} {
		if _, err := st.CreateProduct(p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}
	return &engineFixture{engine: eng, store: st, events: events, notifier: notifier}
}

func (f *engineFixture) send(t *testing.T, sessionID, message string) models.ChatReply {
	t.Helper()
	reply, err := f.engine.HandleMessage(context.Background(), sessionID, message)
	if err != nil {
		t.Fatalf("HandleMessage(%q) failed: %v", message, err)
	}
	return reply
}

func (f *engineFixture) session(t *testing.T, sessionID string) *models.ChatSession {
	t.Helper()
	sess, err := f.store.GetSession(sessionID)
	if err != nil || sess == nil {
		t.Fatalf("GetSession(%q) failed: %v, %v", sessionID, sess, err)
	}
	return sess
}

// registerAndSelect drives a session through listing, selecting both
// insulfilm products and registering the client.
func (f *engineFixture) registerAndSelect(t *testing.T, sessionID string) {
	t.Helper()
	f.send(t, sessionID, "quanto custa insulfilm?")
	f.send(t, sessionID, "Insulfilm G20")
	f.send(t, sessionID, "Insulfilm G35")
	f.send(t, sessionID, "João Silva, joao@email.com, 11999999999")
	f.send(t, sessionID, "dados corretos")
}

func TestCategoryListingEntersSelection(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "s1", "quanto custa insulfilm?")

	if !strings.Contains(reply.Response, "INSULFILM") {
		t.Errorf("expected category heading, got %q", reply.Response)
	}
	if !strings.Contains(reply.Response, "Insulfilm G20 - R$100.00 + R$20.00 (instalação)") {
		t.Errorf("expected product line with labor surcharge, got %q", reply.Response)
	}
	if len(reply.Options) == 0 || reply.Options[0] != "Quero comprar" {
		t.Errorf("expected buy option, got %v", reply.Options)
	}
	if f.session(t, "s1").State != models.StateSelectingProducts {
		t.Error("expected session in product selection state")
	}
}

func TestSelectionByNameAndIndex(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")

	reply := f.send(t, "s1", "Insulfilm G20")
	if !strings.Contains(reply.Response, "✅ Produto adicionado") {
		t.Errorf("expected add confirmation, got %q", reply.Response)
	}

	// 1-based index into the cached listing (sorted by name).
	reply = f.send(t, "s1", "2")
	if !strings.Contains(reply.Response, "Insulfilm G35") {
		t.Errorf("expected index selection to add G35, got %q", reply.Response)
	}
	if !strings.Contains(reply.Response, "💰 Total: R$170.00") {
		t.Errorf("expected running total 170.00, got %q", reply.Response)
	}
}

func TestSubtotalProperty(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")
	f.send(t, "s1", "Insulfilm G35")

	reply := f.send(t, "s1", "ver meus produtos")
	if !strings.Contains(reply.Response, "💰 TOTAL: R$170.00") {
		t.Errorf("expected total 100+20+50 = 170.00, got %q", reply.Response)
	}
}

func TestInvalidSelectionReprompts(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	reply := f.send(t, "s1", "Produto Inexistente")
	if !strings.Contains(reply.Response, "selecione um produto válido") {
		t.Errorf("expected re-prompt, got %q", reply.Response)
	}
	if len(f.session(t, "s1").Selected) != 0 {
		t.Error("invalid selection must not add products")
	}
}

func TestRemoveSelection(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")
	f.send(t, "s1", "Insulfilm G35")

	reply := f.send(t, "s1", "remover 1")
	if !strings.Contains(reply.Response, "Produto removido: Insulfilm G20") {
		t.Errorf("expected removal confirmation, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if len(sess.Selected) != 1 || sess.Selected[0].Name != "Insulfilm G35" {
		t.Errorf("unexpected selection after removal: %+v", sess.Selected)
	}

	reply = f.send(t, "s1", "remover 9")
	if !strings.Contains(reply.Response, "Índice inválido") {
		t.Errorf("expected invalid index re-prompt, got %q", reply.Response)
	}
}

func TestCancelResetsEverything(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")

	reply := f.send(t, "s1", "cancelar tudo")
	if !strings.Contains(reply.Response, "Operação cancelada") {
		t.Errorf("expected cancel message, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateIdle {
		t.Errorf("expected idle state after cancel, got %q", sess.State)
	}
	if len(sess.Selected) != 0 || len(sess.Catalog) != 0 || sess.Draft != nil || sess.ContactDraft != nil {
		t.Errorf("expected buffers cleared after cancel: %+v", sess)
	}
}

func TestContactCaptureEchoesDraft(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "s1", "João Silva, joao@email.com, 11999999999")

	for _, want := range []string{"João Silva", "joao@email.com", "11999999999"} {
		if !strings.Contains(reply.Response, want) {
			t.Errorf("confirmation prompt missing %q: %q", want, reply.Response)
		}
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateConfirmingContact {
		t.Errorf("expected confirming contact state, got %q", sess.State)
	}
	if sess.ContactDraft == nil || sess.ContactDraft.Name != "João Silva" {
		t.Errorf("unexpected draft: %+v", sess.ContactDraft)
	}
}

func TestContactCaptureWinsOverCategoryKeyword(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")

	// The guard at "Agendar instalação" asks for contact data while the
	// session is still selecting products. An email like "sombra@" must
	// start registration, not re-list the som category.
	f.send(t, "s1", "Agendar instalação")
	reply := f.send(t, "s1", "Maria Silva, sombra@email.com, 11988887777")

	if strings.Contains(reply.Response, "LISTA DE PRODUTOS") {
		t.Fatalf("contact message was treated as a category switch: %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateConfirmingContact {
		t.Fatalf("expected confirming contact state, got %q", sess.State)
	}
	if sess.ContactDraft == nil || sess.ContactDraft.Email != "sombra@email.com" {
		t.Errorf("unexpected draft: %+v", sess.ContactDraft)
	}
	if len(sess.Selected) != 1 {
		t.Error("selection must survive contact capture")
	}
}

func TestDadosCorretosRegistersClient(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "João Silva, joao@email.com, 11999999999")
	reply := f.send(t, "s1", "dados corretos")

	if !strings.Contains(reply.Response, "Dados confirmados") {
		t.Errorf("expected confirmation, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.Contact == nil || sess.Contact.Phone != "11999999999" || sess.ContactDraft != nil {
		t.Errorf("expected draft promoted to contact: %+v", sess)
	}
	client, err := f.store.GetClientByPhone("11999999999")
	if err != nil || client == nil {
		t.Fatalf("expected registered client, got %v, %v", client, err)
	}
	if client.Name != "João Silva" || client.Email != "joao@email.com" {
		t.Errorf("unexpected client record: %+v", client)
	}
}

func TestDadosIncorretosDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "João Silva, joao@email.com, 11999999999")
	reply := f.send(t, "s1", "dados incorretos")

	if !strings.Contains(reply.Response, "reenvie seus dados") {
		t.Errorf("expected resend prompt, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.ContactDraft != nil || sess.Contact != nil {
		t.Errorf("expected draft discarded without registration: %+v", sess)
	}
	if client, _ := f.store.GetClientByPhone("11999999999"); client != nil {
		t.Error("rejected draft must not register a client")
	}
}

func TestExistingClientUpdatedByPhone(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.CreateClient(models.Client{Name: "J. Silva", Email: "antigo@email.com", Phone: "11999999999"}); err != nil {
		t.Fatalf("CreateClient failed: %v", err)
	}

	f.send(t, "s1", "João Silva, joao@email.com, 11999999999")
	reply := f.send(t, "s1", "dados corretos")
	if !strings.Contains(reply.Response, "cliente já existia") {
		t.Errorf("expected existing-client notice, got %q", reply.Response)
	}
	client, _ := f.store.GetClientByPhone("11999999999")
	if client == nil || client.Name != "João Silva" || client.Email != "joao@email.com" {
		t.Errorf("expected client updated in place: %+v", client)
	}
}

func TestSchedulingGuardWithoutProducts(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "s1", "quero agendar")

	if !strings.Contains(reply.Response, "Nenhum produto selecionado") {
		t.Errorf("expected guard message, got %q", reply.Response)
	}
	if f.session(t, "s1").State != models.StateIdle {
		t.Error("guard must not change state")
	}
}

func TestSchedulingGuardWithoutClient(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")

	reply := f.send(t, "s1", "Agendar instalação")
	if !strings.Contains(reply.Response, "preciso dos seus dados") {
		t.Errorf("expected registration prompt, got %q", reply.Response)
	}
	if !reply.Form {
		t.Error("expected form flag on registration prompt")
	}
}

func TestFullBookingFlow(t *testing.T) {
	f := newFixture(t)
	f.registerAndSelect(t, "s1")

	// Registration with products selected goes straight to date capture.
	if f.session(t, "s1").State != models.StateAwaitingDatetime {
		t.Fatalf("expected awaiting datetime, got %q", f.session(t, "s1").State)
	}

	reply := f.send(t, "s1", "10/03/2026 14:30")
	if !strings.Contains(reply.Response, "📋 Confirme o agendamento") ||
		!strings.Contains(reply.Response, "10/03/2026 14:30") ||
		!strings.Contains(reply.Response, "R$170.00") {
		t.Fatalf("unexpected confirmation summary: %q", reply.Response)
	}

	reply = f.send(t, "s1", "confirmar")
	if !strings.Contains(reply.Response, "✅ Agendamento confirmado!") {
		t.Fatalf("expected booking confirmation, got %q", reply.Response)
	}

	// Round trip through the date-range query.
	want, _ := schedule.ParseDateTime("10/03/2026 14:30")
	start, end := schedule.DayBounds(want)
	found, err := f.store.FindAppointmentsByDateRange(start, end, models.AppointmentConfirmed)
	if err != nil || len(found) != 1 {
		t.Fatalf("expected committed appointment in range, got %v, %v", found, err)
	}
	if !found[0].ScheduledAt.Equal(want) || found[0].Total != 170.00 {
		t.Errorf("unexpected stored appointment: %+v", found[0])
	}

	// Calendar and WhatsApp side effects fired.
	if len(f.events.Events) != 1 || !strings.Contains(f.events.Events[0].Summary, "João Silva") {
		t.Errorf("expected calendar event for client, got %+v", f.events.Events)
	}
	if len(f.notifier.SentMessages) != 1 || f.notifier.SentMessages[0].To != "11999999999" {
		t.Errorf("expected WhatsApp confirmation, got %+v", f.notifier.SentMessages)
	}

	// Selection and flags cleared on commit.
	sess := f.session(t, "s1")
	if sess.State != models.StateIdle || len(sess.Selected) != 0 || sess.Draft != nil {
		t.Errorf("expected clean session after commit: %+v", sess)
	}
}

func TestInvalidDatetimeReprompts(t *testing.T) {
	f := newFixture(t)
	f.registerAndSelect(t, "s1")

	reply := f.send(t, "s1", "amanhã de manhã")
	if !strings.Contains(reply.Response, "❌ Formato inválido") {
		t.Errorf("expected format error, got %q", reply.Response)
	}
	if f.session(t, "s1").State != models.StateAwaitingDatetime {
		t.Error("parse failure must keep the session at date capture")
	}
}

func TestAlterarDataReturnsToDateCapture(t *testing.T) {
	f := newFixture(t)
	f.registerAndSelect(t, "s1")
	f.send(t, "s1", "10/03/2026 14:30")

	reply := f.send(t, "s1", "alterar data")
	if !strings.Contains(reply.Response, "nova data") {
		t.Errorf("expected new date prompt, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateAwaitingDatetime || sess.Draft != nil {
		t.Errorf("expected draft discarded and date capture resumed: %+v", sess)
	}
}

func TestSlotConflictReturnsToDateCapture(t *testing.T) {
	f := newFixture(t)
	occupied, _ := schedule.ParseDateTime("10/03/2026 14:30")
	if _, err := f.store.CreateAppointment(models.Appointment{ClientID: "other", ScheduledAt: occupied, Status: models.AppointmentConfirmed}); err != nil {
		t.Fatalf("CreateAppointment failed: %v", err)
	}

	f.registerAndSelect(t, "s1")
	f.send(t, "s1", "10/03/2026 14:30")
	reply := f.send(t, "s1", "confirmar")

	if !strings.Contains(reply.Response, "já está ocupado") {
		t.Fatalf("expected conflict message, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateAwaitingDatetime {
		t.Errorf("expected return to date capture, got %q", sess.State)
	}
	if len(sess.Selected) == 0 {
		t.Error("conflict must keep the product selection")
	}
	if reply.CalendarData == nil {
		t.Fatal("expected free slots attached to conflict reply")
	}
	for _, s := range reply.CalendarData.Slots {
		if s == "14:30" {
			t.Error("occupied slot offered as free")
		}
	}
}

func TestCalendarFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.events.Err = context.DeadlineExceeded

	f.registerAndSelect(t, "s1")
	f.send(t, "s1", "10/03/2026 14:30")
	reply := f.send(t, "s1", "confirmar")

	if !strings.Contains(reply.Response, "✅ Agendamento confirmado!") {
		t.Errorf("calendar failure must not block booking, got %q", reply.Response)
	}
	appointments, _ := f.store.ListAppointments()
	if len(appointments) != 1 {
		t.Errorf("expected committed appointment, got %d", len(appointments))
	}
}

func TestSchedulingDecisionYesNo(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")
	f.send(t, "s1", "João Silva, joao@email.com, 11999999999")
	f.send(t, "s1", "dados corretos")
	// Registration already moved to date capture; cancel back to idle
	// while keeping the registered contact.
	f.send(t, "s1", "cancelar")

	reply := f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")
	reply = f.send(t, "s1", "quero agendar")
	if !strings.Contains(reply.Response, "Deseja agendar a instalação agora?") {
		t.Fatalf("expected scheduling decision prompt, got %q", reply.Response)
	}

	reply = f.send(t, "s1", "não")
	if !strings.Contains(reply.Response, "Agendamento cancelado") {
		t.Errorf("expected decline to cancel, got %q", reply.Response)
	}
	if f.session(t, "s1").State != models.StateIdle {
		t.Error("decline must return to idle")
	}

	f.send(t, "s1", "quero agendar")
	reply = f.send(t, "s1", "sim")
	if !strings.Contains(reply.Response, "DD/MM/AAAA HH:MM") {
		t.Errorf("expected date prompt after yes, got %q", reply.Response)
	}
	if f.session(t, "s1").State != models.StateAwaitingDatetime {
		t.Error("yes must move to date capture")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.send(t, "s1", "quanto custa insulfilm?")
	f.send(t, "s1", "Insulfilm G20")

	// A second conversation sees none of the first one's state.
	reply := f.send(t, "s2", "ver meus produtos")
	if !strings.Contains(reply.Response, "ainda não selecionou") {
		t.Errorf("expected empty selection in second session, got %q", reply.Response)
	}
	if len(f.session(t, "s1").Selected) != 1 {
		t.Error("first session selection must be untouched")
	}
}

func TestUnknownInputFallsThroughToClarification(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "s1", "xyzzy frobnicate")
	if !strings.Contains(reply.Response, "não entendi") {
		t.Errorf("expected clarification, got %q", reply.Response)
	}
}

func TestGreetingGetsCannedResponse(t *testing.T) {
	f := newFixture(t)
	reply := f.send(t, "s1", "bom dia")
	if reply.Response == "" || strings.Contains(reply.Response, "não entendi") {
		t.Errorf("expected canned greeting, got %q", reply.Response)
	}
}

func TestCancelDuringSchedulingKeepsContact(t *testing.T) {
	f := newFixture(t)
	f.registerAndSelect(t, "s1")
	f.send(t, "s1", "10/03/2026 14:30")

	reply := f.send(t, "s1", "cancelar")
	if !strings.Contains(reply.Response, "Agendamento cancelado") {
		t.Errorf("expected scheduling cancel message, got %q", reply.Response)
	}
	sess := f.session(t, "s1")
	if sess.State != models.StateIdle || sess.Draft != nil || len(sess.Selected) != 0 {
		t.Errorf("expected scheduling buffers cleared: %+v", sess)
	}
	if sess.Contact == nil {
		t.Error("confirmed contact must survive a cancel")
	}
}
