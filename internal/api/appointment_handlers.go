package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sennacar/sennacar/internal/models"
	"github.com/sennacar/sennacar/internal/schedule"
)

type appointmentRequest struct {
	ClientID   string   `json:"cliente_id"`
	Scheduled  string   `json:"data_agendada"`
	ProductIDs []string `json:"produtos"`
	Total      float64  `json:"valor_total"`
	Status     string   `json:"status"`
	Notes      string   `json:"observacoes"`
}

func (s *Server) appointmentsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		appointments, err := s.store.ListAppointments()
		if err != nil {
			slog.Error("Server.appointmentsHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(appointments))
	case http.MethodPost:
		var req appointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.appointmentsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if req.ClientID == "" || req.Scheduled == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("cliente_id and data_agendada are required"))
			return
		}
		at, err := schedule.ParseDateTime(req.Scheduled)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("data_agendada must use the DD/MM/AAAA HH:MM format"))
			return
		}
		status := models.AppointmentStatus(req.Status)
		if req.Status == "" {
			status = models.AppointmentPending
		}
		if !status.Valid() {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("status must be pendente, confirmado or cancelado"))
			return
		}
		client, err := s.store.GetClient(req.ClientID)
		if err != nil {
			slog.Error("Server.appointmentsHandler: client lookup failed", "error", err, "client_id", req.ClientID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if client == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("client not found"))
			return
		}
		created, err := s.store.CreateAppointment(models.Appointment{
			ClientID:    req.ClientID,
			ProductIDs:  req.ProductIDs,
			ScheduledAt: at,
			Total:       req.Total,
			Status:      status,
			Notes:       req.Notes,
		})
		if err != nil {
			if errors.Is(err, models.ErrSlotTaken) {
				writeJSONResponse(w, http.StatusConflict, models.Error("time slot already booked"))
				return
			}
			slog.Error("Server.appointmentsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		slog.Info("Server.appointmentsHandler: appointment created", "id", created.ID, "client_id", created.ClientID)
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// slotsHandler lists the free slots of one day: GET /agendamentos/horarios?data=YYYY-MM-DD.
func (s *Server) slotsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("data")
	if raw == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("data query parameter is required"))
		return
	}
	day, err := time.ParseInLocation(schedule.DateLayout, raw, schedule.Location())
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("data must use the YYYY-MM-DD format"))
		return
	}

	start, end := schedule.DayBounds(day)
	appointments, err := s.store.FindAppointmentsByDateRange(start, end, "")
	if err != nil {
		slog.Error("Server.slotsHandler: appointment query failed", "error", err, "data", raw)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	slots := schedule.AvailableSlots(day, appointments)
	writeJSONResponse(w, http.StatusOK, models.Success(models.CalendarData{Date: raw, Slots: slots}))
}

// appointmentsByPeriodHandler lists appointments between two dates:
// GET /agendamentos/periodo?inicio=YYYY-MM-DD&fim=YYYY-MM-DD[&status=...].
func (s *Server) appointmentsByPeriodHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	from, to := q.Get("inicio"), q.Get("fim")
	if from == "" || to == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("inicio and fim query parameters are required"))
		return
	}
	fromDay, err := time.ParseInLocation(schedule.DateLayout, from, schedule.Location())
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("inicio must use the YYYY-MM-DD format"))
		return
	}
	toDay, err := time.ParseInLocation(schedule.DateLayout, to, schedule.Location())
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("fim must use the YYYY-MM-DD format"))
		return
	}
	status := models.AppointmentStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("status must be pendente, confirmado or cancelado"))
		return
	}

	start, _ := schedule.DayBounds(fromDay)
	_, end := schedule.DayBounds(toDay)
	if end.Before(start) {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("fim must not be before inicio"))
		return
	}
	appointments, err := s.store.FindAppointmentsByDateRange(start, end, status)
	if err != nil {
		slog.Error("Server.appointmentsByPeriodHandler: query failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(appointments))
}

func (s *Server) appointmentsByClientHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	clientID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/agendamentos/cliente/"), "/")
	if clientID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("client id is required"))
		return
	}
	appointments, err := s.store.ListAppointmentsByClient(clientID)
	if err != nil {
		slog.Error("Server.appointmentsByClientHandler: query failed", "error", err, "client_id", clientID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(appointments))
}

type appointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status"`
}

type appointmentProductsRequest struct {
	ProductIDs []string `json:"produtos"`
	Total      float64  `json:"valor_total"`
}

// appointmentHandler serves /agendamentos/{id} plus the /status and
// /produtos sub-resources for partial updates.
func (s *Server) appointmentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/agendamentos/"), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("appointment id is required"))
		return
	}

	switch sub {
	case "status":
		s.updateAppointmentStatus(w, r, id)
		return
	case "produtos":
		s.updateAppointmentProducts(w, r, id)
		return
	case "":
	default:
		writeJSONResponse(w, http.StatusNotFound, models.Error("unknown appointment resource"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		appointment, err := s.store.GetAppointment(id)
		if err != nil {
			slog.Error("Server.appointmentHandler: get failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if appointment == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("appointment not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(appointment))
	case http.MethodDelete:
		if err := s.store.DeleteAppointment(id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("appointment not found"))
				return
			}
			slog.Error("Server.appointmentHandler: delete failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("appointment deleted", nil))
	default:
		w.Header().Set("Allow", "GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) updateAppointmentStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req appointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.updateAppointmentStatus: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if !req.Status.Valid() {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("status must be pendente, confirmado or cancelado"))
		return
	}
	if err := s.store.UpdateAppointmentStatus(id, req.Status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("appointment not found"))
			return
		}
		slog.Error("Server.updateAppointmentStatus: update failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	slog.Info("Server.updateAppointmentStatus: status updated", "id", id, "status", req.Status)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("appointment status updated", nil))
}

func (s *Server) updateAppointmentProducts(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req appointmentProductsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.updateAppointmentProducts: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if len(req.ProductIDs) == 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("produtos must not be empty"))
		return
	}
	if err := s.store.UpdateAppointmentProducts(id, req.ProductIDs, req.Total); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("appointment not found"))
			return
		}
		slog.Error("Server.updateAppointmentProducts: update failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("appointment products updated", nil))
}
