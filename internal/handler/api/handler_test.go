package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/store"
)

func setupRouter() (*chi.Mux, *store.MessageStore) {
	messageStore := store.New()
	handler := New(messageStore)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, messageStore
}

func get(t *testing.T, r *chi.Mux, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return resp, body
}

func TestStatsEmptyStore(t *testing.T) {
	r, _ := setupRouter()

	resp, body := get(t, r, "/stats")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %+v", body)
	}
	if data["totalMessages"] != float64(0) || data["recentMessages"] != float64(0) || data["activeUsers"] != float64(0) {
		t.Fatalf("expected zeroed stats, got %+v", data)
	}
	if data["oldestMessageTime"] != nil {
		t.Fatalf("expected null oldestMessageTime, got %v", data["oldestMessageTime"])
	}
}

func TestListEmotions(t *testing.T) {
	r, messageStore := setupRouter()
	now := time.Now().UnixMilli()

	messageStore.UpdateUserEmotion(chat.UserEmotionState{
		UserID:         "u1",
		UserName:       "User One",
		CurrentEmotion: chat.EmotionVerdict{Emotion: chat.Positive, Confidence: 0.8, Timestamp: now},
		LastUpdated:    now,
	})

	resp, body := get(t, r, "/emotions")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["count"] != float64(1) {
		t.Fatalf("expected count 1, got %v", body["count"])
	}
}

func TestGetUserEmotionNotFound(t *testing.T) {
	r, _ := setupRouter()

	resp, body := get(t, r, "/emotions/unknown")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %+v", body)
	}
}

func TestListUserMessages(t *testing.T) {
	r, messageStore := setupRouter()
	now := time.Now().UnixMilli()

	messageStore.AddMessage(chat.Message{ID: "m1", Content: "a", UserName: "User One", UserID: "u1", Timestamp: now - 100})
	messageStore.AddMessage(chat.Message{ID: "m2", Content: "b", UserName: "User Two", UserID: "u2", Timestamp: now})

	resp, body := get(t, r, "/messages/u1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["count"] != float64(1) {
		t.Fatalf("expected count 1, got %v", body["count"])
	}

	resp, body = get(t, r, "/messages")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", body["count"])
	}
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter()

	resp, body := get(t, r, "/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body["status"] != "healthy" {
		t.Fatalf("expected healthy, got %v", body["status"])
	}
}
