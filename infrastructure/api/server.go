package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"text-hub/errors"
	"text-hub/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Server exposes the message operations over HTTP. Caller identity and
// authorization are verified upstream; payloads arriving here are
// already past the trust boundary.
type Server struct {
	log      *slog.Logger
	service  services.IMessageService
	validate *validator.Validate
}

func NewServer(log *slog.Logger, service services.IMessageService) *Server {
	return &Server{log: log, service: service, validate: validator.New()}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/api/messages", func(r chi.Router) {
		r.Get("/{groupID}", s.getMessages)
		r.Post("/", s.createMessage)
		r.Put("/{messageID}", s.updateMessage)
		r.Delete("/{messageID}", s.deleteMessage)
	})
	return r
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "groupID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	messages, err := s.service.GetMessages(groupID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := toCreateCommand(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}
	message, err := s.service.CreateMessage(r.Context(), cmd)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponse(message))
}

func (s *Server) updateMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req updateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	messages, err := s.service.UpdateMessage(r.Context(), messageID, req.Body)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	messages, err := s.service.DeleteMessage(r.Context(), messageID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// writeFailure maps service errors to HTTP statuses: an unknown message
// id is an explicit 404, everything else is a storage-level 500.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	if stderrors.Is(err, errors.ErrMessageNotFound) {
		s.writeError(w, http.StatusNotFound, errors.ErrMessageNotFound.Error())
		return
	}
	s.log.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("response encoding failed", "error", err)
	}
}
