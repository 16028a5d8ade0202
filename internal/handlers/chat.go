package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"chatproxy-backend/internal/middleware"
	"chatproxy-backend/internal/models"
)

type chatService interface {
	CreateChat(ctx context.Context, userID string) (*models.Chat, error)
	ListChats(ctx context.Context, userID string) ([]models.Chat, error)
	AppendExchange(ctx context.Context, userID, chatID, prompt string) (*models.Message, error)
	RenameChat(ctx context.Context, userID, chatID, name string) (*models.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID string) error
}

type ChatHandler struct {
	chats chatService
}

func NewChatHandler(chats chatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// Create handles POST /api/chat/create.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	chat, err := h.chats.CreateChat(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResp(chat, "Chat created"))
}

// List handles GET /api/chat/get.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListChats(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResp(chats, ""))
}

// Ask handles POST /api/chat/ai: it forwards the prompt to the model and returns
// the assistant message that was stored.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(http.StatusBadRequest, "Invalid request body", r))
		return
	}

	msg, err := h.chats.AppendExchange(r.Context(), middleware.GetUserID(r.Context()), req.ChatID, req.Prompt)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResp(msg, ""))
}

// Rename handles POST /api/chat/rename.
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req models.RenameChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(http.StatusBadRequest, "Invalid request body", r))
		return
	}

	if _, err := h.chats.RenameChat(r.Context(), middleware.GetUserID(r.Context()), req.ChatID, req.Name); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResp(nil, "Chat renamed"))
}

// Delete handles POST /api/chat/delete.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(http.StatusBadRequest, "Invalid request body", r))
		return
	}

	if err := h.chats.DeleteChat(r.Context(), middleware.GetUserID(r.Context()), req.ChatID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResp(nil, "Chat deleted"))
}
