package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dyamada-jaki/chat-analyzer/internal/service/store"
	"github.com/dyamada-jaki/chat-analyzer/pkg/utils"
)

// Handler 照会系APIのHTTPハンドラ。読み取りのみで、副作用は遅延クリーンアップに限られる。
type Handler struct {
	store *store.MessageStore
}

// New 照会ハンドラを生成する。
func New(messageStore *store.MessageStore) *Handler {
	return &Handler{store: messageStore}
}

// RegisterRoutes 照会系ルートを登録する。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/emotions", h.handleListEmotions)
	r.Get("/emotions/{userID}", h.handleGetUserEmotion)
	r.Get("/messages", h.handleListMessages)
	r.Get("/messages/{userID}", h.handleListUserMessages)
	r.Get("/stats", h.handleStats)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleListEmotions(w http.ResponseWriter, r *http.Request) {
	emotions := h.store.GetAllUserEmotions()
	utils.RespondList(w, http.StatusOK, emotions, len(emotions))
}

func (h *Handler) handleGetUserEmotion(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	state, ok := h.store.GetUserEmotion(userID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "user emotion not found")
		return
	}

	utils.RespondData(w, http.StatusOK, state)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.store.GetRecentMessages()
	utils.RespondList(w, http.StatusOK, messages, len(messages))
}

func (h *Handler) handleListUserMessages(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	messages := h.store.GetUserRecentMessages(userID)
	utils.RespondList(w, http.StatusOK, messages, len(messages))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondData(w, http.StatusOK, h.store.GetStats())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
