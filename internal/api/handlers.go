package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"botgpt/internal/chat"
	"botgpt/internal/store"

	"github.com/sirupsen/logrus"
)

// DemoUserEmail identifies the single bootstrap user; there is no
// authentication in this service.
const DemoUserEmail = "demo@botgpt.ai"

type Handler struct {
	store store.Store
	chat  *chat.Service
}

func NewHandler(st store.Store, chatService *chat.Service) *Handler {
	return &Handler{
		store: st,
		chat:  chatService,
	}
}

type MessageRequest struct {
	Content string `json:"content"`
}

type ConversationCreateRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode,omitempty"`
}

type ConversationCreateResponse struct {
	ConversationID string         `json:"conversation_id"`
	Response       string         `json:"response"`
	UserMessage    *store.Message `json:"userMessage"`
	AiMessage      *store.Message `json:"aiMessage"`
}

type MessageTurnResponse struct {
	UserMessage *store.Message `json:"userMessage"`
	AiMessage   *store.Message `json:"aiMessage"`
}

type ConversationDetail struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	Mode      string          `json:"mode"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []store.Message `json:"messages"`
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// InitUserHandler gets or creates the demo user.
func (h *Handler) InitUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, err := h.demoUser(r)
	if err != nil {
		logrus.Errorf("Failed to initialize demo user: %v", err)
		http.Error(w, "Failed to initialize user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ConversationsHandler serves GET (list) and POST (create with first
// message) on /conversations.
func (h *Handler) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listConversations(w, r)
	case http.MethodPost:
		h.createConversation(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := h.resolveUserID(r)
	if err != nil {
		logrus.Errorf("Failed to resolve user: %v", err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	convs, err := h.store.ListConversations(r.Context(), userID)
	if err != nil {
		logrus.Errorf("Failed to list conversations for user %d: %v", userID, err)
		http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
		return
	}

	result := make([]ConversationDetail, 0, len(convs))
	for _, conv := range convs {
		messages, err := h.store.GetMessages(r.Context(), conv.ID)
		if err != nil {
			logrus.Errorf("Failed to load messages for conversation %s: %v", conv.ID, err)
			http.Error(w, "Failed to list conversations", http.StatusInternalServerError)
			return
		}
		result = append(result, conversationDetail(conv, messages))
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Field 'content' is required", http.StatusBadRequest)
		return
	}
	if req.Mode != "" && req.Mode != store.ModeOpen && req.Mode != store.ModeRAG {
		http.Error(w, "Unknown conversation mode", http.StatusBadRequest)
		return
	}

	user, err := h.demoUser(r)
	if err != nil {
		logrus.Errorf("Failed to resolve demo user: %v", err)
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	conv, err := h.store.CreateConversation(r.Context(), user.ID, req.Mode)
	if err != nil {
		logrus.Errorf("Failed to create conversation: %v", err)
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	userMsg, aiMsg, err := h.chat.Send(r.Context(), conv.ID, req.Content)
	if err != nil {
		logrus.Errorf("Failed to process first message for conversation %s: %v", conv.ID, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ConversationCreateResponse{
		ConversationID: conv.ID,
		Response:       aiMsg.Content,
		UserMessage:    userMsg,
		AiMessage:      aiMsg,
	})
}

// ConversationByIDHandler serves GET (detail) and DELETE on
// /conversations/{id}.
func (h *Handler) ConversationByIDHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getConversation(w, r)
	case http.MethodDelete:
		h.deleteConversation(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		logrus.Errorf("Failed to get conversation %s: %v", id, err)
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	messages, err := h.store.GetMessages(r.Context(), id)
	if err != nil {
		logrus.Errorf("Failed to load messages for conversation %s: %v", id, err)
		http.Error(w, "Failed to get conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, conversationDetail(*conv, messages))
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.store.DeleteConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		logrus.Errorf("Failed to delete conversation %s: %v", id, err)
		http.Error(w, "Failed to delete conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Conversation deleted"})
}

// SendMessageHandler adds one message to an existing conversation and
// returns both persisted turns. An inference failure is not an HTTP
// error: the fallback assistant message comes back with status 200.
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Field 'content' is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	userMsg, aiMsg, err := h.chat.Send(r.Context(), id, req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			http.Error(w, "Conversation not found", http.StatusNotFound)
			return
		}
		logrus.Errorf("Failed to process message for conversation %s: %v", id, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MessageTurnResponse{UserMessage: userMsg, AiMessage: aiMsg})
}

// StreamMessageHandler is the streaming variant: fragments go out as
// server-sent events of shape data: {"token":"..."} terminated by
// data: [DONE].
func (h *Handler) StreamMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Field 'content' is required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	conv, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		logrus.Errorf("Failed to get conversation %s: %v", id, err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}
	if conv == nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(token string) error {
		frame, err := json.Marshal(map[string]string{"token": token})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if _, _, err := h.chat.SendStream(r.Context(), id, req.Content, emit); err != nil {
		// Headers are already out; all that is left is to log.
		logrus.Errorf("Stream turn failed for conversation %s: %v", id, err)
		return
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h *Handler) demoUser(r *http.Request) (*store.User, error) {
	user, err := h.store.GetUserByEmail(r.Context(), DemoUserEmail)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return h.store.CreateUser(r.Context(), DemoUserEmail)
}

func (h *Handler) resolveUserID(r *http.Request) (int64, error) {
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid user_id %q: %w", raw, err)
		}
		return id, nil
	}
	user, err := h.demoUser(r)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func conversationDetail(conv store.Conversation, messages []store.Message) ConversationDetail {
	return ConversationDetail{
		ID:        conv.ID,
		UserID:    conv.UserID,
		Mode:      conv.Mode,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  messages,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
