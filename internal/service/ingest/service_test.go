package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/emotion"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/ingest"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/store"
)

type recordingBroadcaster struct {
	messages []chat.Message
	updates  [][]chat.UserEmotionState
}

func (b *recordingBroadcaster) BroadcastNewMessage(msg chat.Message) {
	b.messages = append(b.messages, msg)
}

func (b *recordingBroadcaster) BroadcastEmotionUpdate(states []chat.UserEmotionState) {
	b.updates = append(b.updates, states)
}

func setup(t *testing.T) (*ingest.Service, *store.MessageStore, *recordingBroadcaster) {
	t.Helper()
	messageStore := store.New()
	classifier, err := emotion.NewService(context.Background(), nil, emotion.Config{})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	broadcaster := &recordingBroadcaster{}
	return ingest.NewService(messageStore, classifier, broadcaster), messageStore, broadcaster
}

func TestIngestStoresClassifiesAndBroadcasts(t *testing.T) {
	svc, messageStore, broadcaster := setup(t)

	result, err := svc.Ingest(context.Background(), ingest.Incoming{
		Content:  "今日は最悪の一日でした",
		UserName: "User One",
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("Ingest err: %v", err)
	}

	if result.Verdict.Emotion != chat.Angry || result.Verdict.Confidence != 0.8 {
		t.Fatalf("expected angry/0.8, got %s/%f", result.Verdict.Emotion, result.Verdict.Confidence)
	}
	if result.Message.Emotion == nil || result.Message.Emotion.Emotion != chat.Angry {
		t.Fatal("expected verdict attached to result message")
	}

	msgs := messageStore.GetRecentMessages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 stored message, got %d", len(msgs))
	}
	if msgs[0].Emotion == nil || msgs[0].Emotion.Emotion != chat.Angry {
		t.Fatal("expected verdict attached to stored message")
	}

	state, ok := messageStore.GetUserEmotion("u1")
	if !ok {
		t.Fatal("expected emotion state for u1")
	}
	if state.CurrentEmotion.Emotion != chat.Angry || state.UserName != "User One" {
		t.Fatalf("unexpected state: %+v", state)
	}

	if len(broadcaster.messages) != 1 {
		t.Fatalf("expected 1 new_message broadcast, got %d", len(broadcaster.messages))
	}
	if len(broadcaster.updates) != 1 || len(broadcaster.updates[0]) != 1 {
		t.Fatalf("expected 1 emotion snapshot with 1 user, got %+v", broadcaster.updates)
	}
}

func TestIngestWebhookFeedsUserHistoryInOrder(t *testing.T) {
	svc, messageStore, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.IngestWebhook(ctx, ingest.Incoming{Content: "今日は最悪の一日でした", UserName: "User One", UserID: "u1"}); err != nil {
		t.Fatalf("IngestWebhook err: %v", err)
	}
	result, err := svc.IngestWebhook(ctx, ingest.Incoming{Content: "でも元気になりました！", UserName: "User One", UserID: "u1"})
	if err != nil {
		t.Fatalf("IngestWebhook err: %v", err)
	}

	msgs := messageStore.GetUserRecentMessages("u1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages for u1, got %d", len(msgs))
	}
	if msgs[0].Content != "今日は最悪の一日でした" || msgs[1].Content != "でも元気になりました！" {
		t.Fatalf("unexpected order: %q %q", msgs[0].Content, msgs[1].Content)
	}

	// リモート分類が無効のため、最新メッセージへのキーワード規則で判定される。
	// 「でも元気になりました！」はどのキーワードにも該当せず中立になる。
	if result.Verdict.Emotion != chat.Neutral || result.Verdict.Confidence != 0.6 {
		t.Fatalf("expected neutral/0.6 for latest message, got %s/%f", result.Verdict.Emotion, result.Verdict.Confidence)
	}
}

func TestIngestValidation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, ingest.Incoming{UserID: "u1"}); !errors.Is(err, ingest.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
	if _, err := svc.Ingest(ctx, ingest.Incoming{Content: "hello"}); !errors.Is(err, ingest.ErrUserIDRequired) {
		t.Fatalf("expected ErrUserIDRequired, got %v", err)
	}
	if _, err := svc.IngestWebhook(ctx, ingest.Incoming{UserID: "u1"}); !errors.Is(err, ingest.ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
}

func TestIngestKeepsCallerIDAndTimestamp(t *testing.T) {
	svc, messageStore, _ := setup(t)

	result, err := svc.Ingest(context.Background(), ingest.Incoming{
		ID:        "spaces/x/messages/y",
		Content:   "資料を共有します",
		UserName:  "User One",
		UserID:    "u1",
		Timestamp: 1234567890000,
	})
	if err != nil {
		t.Fatalf("Ingest err: %v", err)
	}

	if result.Message.ID != "spaces/x/messages/y" {
		t.Fatalf("expected caller id kept, got %s", result.Message.ID)
	}
	if result.Message.Timestamp != 1234567890000 {
		t.Fatalf("expected caller timestamp kept, got %d", result.Message.Timestamp)
	}

	// 1234567890000 は保持期間より古いため、直近照会では既に見えない。
	if msgs := messageStore.GetRecentMessages(); len(msgs) != 0 {
		t.Fatalf("expected expired message to be evicted, got %d", len(msgs))
	}
}

func TestIngestWithoutBroadcaster(t *testing.T) {
	messageStore := store.New()
	classifier, err := emotion.NewService(context.Background(), nil, emotion.Config{})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	svc := ingest.NewService(messageStore, classifier, nil)

	if _, err := svc.Ingest(context.Background(), ingest.Incoming{Content: "hello", UserName: "u", UserID: "u1"}); err != nil {
		t.Fatalf("Ingest err: %v", err)
	}
}
