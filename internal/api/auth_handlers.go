package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sennacar/sennacar/internal/auth"
	"github.com/sennacar/sennacar/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	Employee models.Employee `json:"funcionario"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.loginHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("email and senha are required"))
		return
	}

	employee, err := s.store.GetEmployeeByEmail(req.Email)
	if err != nil {
		slog.Error("Server.loginHandler: employee lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	if employee == nil || !auth.CheckPassword(employee.PasswordHash, req.Password) {
		slog.Warn("Server.loginHandler: invalid credentials", "email", req.Email)
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("invalid email or password"))
		return
	}

	token, err := s.auth.IssueToken(*employee)
	if err != nil {
		slog.Error("Server.loginHandler: token issuance failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	slog.Info("Server.loginHandler: login succeeded", "employee_id", employee.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(loginResponse{Token: token, Employee: *employee}))
}
