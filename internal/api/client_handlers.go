package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sennacar/sennacar/internal/models"
)

func (s *Server) clientsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		clients, err := s.store.ListClients()
		if err != nil {
			slog.Error("Server.clientsHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(clients))
	case http.MethodPost:
		var c models.Client
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			slog.Warn("Server.clientsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if c.Name == "" || c.Phone == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("nome and telefone are required"))
			return
		}
		created, err := s.store.CreateClient(c)
		if err != nil {
			if errors.Is(err, models.ErrDuplicateClient) {
				writeJSONResponse(w, http.StatusConflict, models.Error("client with same email or phone already exists"))
				return
			}
			slog.Error("Server.clientsHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		slog.Info("Server.clientsHandler: client created", "id", created.ID)
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) clientHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/clientes/"), "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("client id is required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		client, err := s.store.GetClient(id)
		if err != nil {
			slog.Error("Server.clientHandler: get failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if client == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("client not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(client))
	case http.MethodPut:
		var c models.Client
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			slog.Warn("Server.clientHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		c.ID = id
		if err := s.store.UpdateClient(c); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("client not found"))
				return
			}
			slog.Error("Server.clientHandler: update failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("client updated", c))
	case http.MethodDelete:
		if err := s.store.DeleteClient(id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("client not found"))
				return
			}
			slog.Error("Server.clientHandler: delete failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("client deleted", nil))
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
