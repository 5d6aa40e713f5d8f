package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sennacar/sennacar/internal/auth"
	"github.com/sennacar/sennacar/internal/models"
)

type employeeRequest struct {
	Name     string `json:"nome"`
	Email    string `json:"email"`
	Password string `json:"senha"`
	IsAdmin  bool   `json:"is_admin"`
}

func (s *Server) employeesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	switch r.Method {
	case http.MethodGet:
		employees, err := s.store.ListEmployees()
		if err != nil {
			slog.Error("Server.employeesHandler: list failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(employees))
	case http.MethodPost:
		var req employeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.employeesHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if req.Name == "" || req.Email == "" || req.Password == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("nome, email and senha are required"))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			slog.Error("Server.employeesHandler: password hashing failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		created, err := s.store.CreateEmployee(models.Employee{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			IsAdmin:      req.IsAdmin,
		})
		if err != nil {
			if errors.Is(err, models.ErrDuplicateEmployee) {
				writeJSONResponse(w, http.StatusConflict, models.Error("employee with same email already exists"))
				return
			}
			slog.Error("Server.employeesHandler: create failed", "error", err)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		slog.Info("Server.employeesHandler: employee created", "id", created.ID, "is_admin", created.IsAdmin)
		writeJSONResponse(w, http.StatusCreated, models.Success(created))
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) employeeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/funcionarios/"), "/")
	if id == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("employee id is required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		employee, err := s.store.GetEmployee(id)
		if err != nil {
			slog.Error("Server.employeeHandler: get failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if employee == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("employee not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(employee))
	case http.MethodPut:
		existing, err := s.store.GetEmployee(id)
		if err != nil {
			slog.Error("Server.employeeHandler: lookup failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		if existing == nil {
			writeJSONResponse(w, http.StatusNotFound, models.Error("employee not found"))
			return
		}
		var req employeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.employeeHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		if req.Name != "" {
			existing.Name = req.Name
		}
		if req.Email != "" {
			existing.Email = req.Email
		}
		existing.IsAdmin = req.IsAdmin
		if req.Password != "" {
			hash, err := auth.HashPassword(req.Password)
			if err != nil {
				slog.Error("Server.employeeHandler: password hashing failed", "error", err)
				writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
				return
			}
			existing.PasswordHash = hash
		}
		if err := s.store.UpdateEmployee(*existing); err != nil {
			slog.Error("Server.employeeHandler: update failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("employee updated", existing))
	case http.MethodDelete:
		if err := s.store.DeleteEmployee(id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeJSONResponse(w, http.StatusNotFound, models.Error("employee not found"))
				return
			}
			slog.Error("Server.employeeHandler: delete failed", "error", err, "id", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("employee deleted", nil))
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
