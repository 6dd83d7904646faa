package webhook

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dyamada-jaki/chat-analyzer/internal/service/ingest"
	"github.com/dyamada-jaki/chat-analyzer/pkg/utils"
)

// GoogleChatWebhook Google Chat から届くイベントペイロード。
type GoogleChatWebhook struct {
	Type      string `json:"type"`
	EventTime string `json:"eventTime"`
	Message   struct {
		Name   string `json:"name"`
		Sender struct {
			Name        string `json:"name"`
			DisplayName string `json:"displayName"`
			Type        string `json:"type"`
		} `json:"sender"`
		Text       string `json:"text"`
		CreateTime string `json:"createTime"`
		Space      struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"space"`
	} `json:"message"`
}

// Handler 外部コラボレータからの受信をパイプライン呼び出しへ変換する薄いアダプタ。
// 入力検証はここまでで完結させ、コアには検証済みの値のみを渡す。
type Handler struct {
	ingestSvc *ingest.Service
}

// New Webhookハンドラを生成する。
func New(ingestSvc *ingest.Service) *Handler {
	return &Handler{ingestSvc: ingestSvc}
}

// RegisterRoutes Webhook系ルートを登録する。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/google-chat", h.handleGoogleChat)
	r.Post("/test-message", h.handleTestMessage)
}

// handleGoogleChat ライブメッセージの受信口。文脈考慮つき分類を行う。
func (h *Handler) handleGoogleChat(w http.ResponseWriter, r *http.Request) {
	var payload GoogleChatWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	result, err := h.ingestSvc.IngestWebhook(r.Context(), ingest.Incoming{
		ID:        payload.Message.Name,
		Content:   payload.Message.Text,
		UserName:  payload.Message.Sender.DisplayName,
		UserID:    payload.Message.Sender.Name,
		Timestamp: parseCreateTime(payload.Message.CreateTime),
	})
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("[webhook] google-chat message processed user=%s emotion=%s", result.Message.UserName, result.Verdict.Emotion)

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"emotion":    result.Verdict.Emotion,
		"confidence": result.Verdict.Confidence,
	})
}

// handleTestMessage テスト用の同期受信口。単純分類器を使うためネットワークに出ない。
func (h *Handler) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content  string `json:"content"`
		UserName string `json:"userName"`
		UserID   string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.UserName == "" {
		payload.UserName = "TestUser"
	}
	if payload.UserID == "" {
		payload.UserID = "test_user_1"
	}

	result, err := h.ingestSvc.Ingest(r.Context(), ingest.Incoming{
		Content:  payload.Content,
		UserName: payload.UserName,
		UserID:   payload.UserID,
	})
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, ingest.ErrContentRequired) && !errors.Is(err, ingest.ErrUserIDRequired) {
			status = http.StatusInternalServerError
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": result.Message,
		"emotion": result.Verdict,
	})
}

// parseCreateTime はRFC3339のcreateTimeをエポックミリ秒へ変換する。
// 解釈できない場合は0を返し、パイプライン側で現在時刻が割り当てられる。
func parseCreateTime(raw string) int64 {
	if raw == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		log.Printf("[webhook] invalid createTime %q: %v", raw, err)
		return 0
	}
	return t.UnixMilli()
}
