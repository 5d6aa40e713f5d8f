package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sennacar/sennacar/internal/models"
)

type chatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatbotMessageHandler feeds one inbound message to the dialogue engine
// and writes the reply verbatim; the reply struct is the wire contract
// the chat frontend renders.
func (s *Server) chatbotMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatbotMessageHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("session_id and message are required"))
		return
	}

	reply, err := s.engine.HandleMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		slog.Error("Server.chatbotMessageHandler: engine failed", "error", err, "session_id", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, reply)
}

// chatbotCategoryHandler lists the products of one category for the chat
// frontend's quick-access buttons. Public, like the message endpoint.
func (s *Server) chatbotCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	category := strings.Trim(strings.TrimPrefix(r.URL.Path, "/chatbot/categoria/"), "/")
	if category == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("categoria is required"))
		return
	}

	products, err := s.store.ListProductsByCategory(category)
	if err != nil {
		slog.Error("Server.chatbotCategoryHandler: product query failed", "error", err, "category", category)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Internal server error"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(products))
}
