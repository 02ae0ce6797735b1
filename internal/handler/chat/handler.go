package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/blockgpt-labs/blockgpt/server/internal/service/chat"
	"github.com/blockgpt-labs/blockgpt/server/internal/store"
	"github.com/blockgpt-labs/blockgpt/server/pkg/utils"
)

// Handler exposes the chat HTTP operations.
type Handler struct {
	svc *chatservice.Service
}

// New creates the chat handler.
func New(svc *chatservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleRespond)
	r.Get("/chat-history/{email}/{sessionID}", h.handleChatHistory)
	r.Post("/new-chat-session", h.handleNewChatSession)
	r.Get("/chat-sessions/{email}", h.handleChatSessions)
	r.Delete("/delete-chat-history/{email}/{sessionID}", h.handleDeleteChatHistory)
}

func (h *Handler) handleRespond(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		SessionID string `json:"session_id"`
		Picture   string `json:"picture"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if payload.Email == "" {
		utils.RespondError(w, http.StatusBadRequest, "email is required")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	answer, _, err := h.svc.Respond(r.Context(), chatservice.RespondInput{
		Message:   payload.Message,
		Email:     payload.Email,
		Name:      payload.Name,
		SessionID: payload.SessionID,
		Picture:   payload.Picture,
	})
	if err != nil {
		if errors.Is(err, chatservice.ErrMessageRequired) || errors.Is(err, store.ErrInvalidSessionID) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"message": answer})
}

func (h *Handler) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	sessionID := chi.URLParam(r, "sessionID")

	conversation, err := h.svc.History(r.Context(), email, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSessionID) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, conversation)
}

func (h *Handler) handleNewChatSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email      string `json:"email"`
		NewSession bool   `json:"new_session"`
		SessionID  string `json:"session_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Email == "" {
		utils.RespondError(w, http.StatusBadRequest, "email is required")
		return
	}

	sessionID, err := h.svc.NewSession(r.Context(), payload.Email, payload.NewSession, payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"message":    "New chat session created.",
		"session_id": sessionID,
	})
}

func (h *Handler) handleChatSessions(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	ids, err := h.svc.Sessions(r.Context(), email)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, ids)
}

func (h *Handler) handleDeleteChatHistory(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	sessionID := chi.URLParam(r, "sessionID")

	deleted, err := h.svc.Delete(r.Context(), email, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrInvalidSessionID) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !deleted {
		utils.RespondError(w, http.StatusNotFound, "Chat session not found.")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Chat history deleted successfully."})
}
