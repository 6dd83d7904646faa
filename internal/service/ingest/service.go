package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/emotion"
	"github.com/dyamada-jaki/chat-analyzer/internal/service/store"
)

var (
	ErrContentRequired = errors.New("content is required")
	ErrUserIDRequired  = errors.New("user id is required")
)

// Broadcaster はパイプラインの結果を購読者へ配信する。配信失敗は取り込みに影響しない。
type Broadcaster interface {
	BroadcastNewMessage(msg chat.Message)
	BroadcastEmotionUpdate(states []chat.UserEmotionState)
}

// Incoming は取り込み対象のメッセージ。ID と Timestamp は省略可能で、
// 未指定ならそれぞれ uuid と現在時刻が割り当てられる。
type Incoming struct {
	ID        string
	Content   string
	UserName  string
	UserID    string
	Timestamp int64
}

// Result は取り込み完了後のメッセージ（感情付き）と判定結果。
type Result struct {
	Message chat.Message
	Verdict chat.EmotionVerdict
}

// Service は 受信 → 保存 → 履歴取得 → 分類 → 状態更新 → 配信 の一連を担う。
// 分類器は必ず結果を返す契約のため、検証後のパイプラインに失敗経路はない。
type Service struct {
	store       *store.MessageStore
	classifier  *emotion.Service
	broadcaster Broadcaster
}

// NewService 取り込みパイプラインを生成する。broadcaster は nil でもよい。
func NewService(messageStore *store.MessageStore, classifier *emotion.Service, broadcaster Broadcaster) *Service {
	return &Service{
		store:       messageStore,
		classifier:  classifier,
		broadcaster: broadcaster,
	}
}

// Ingest はテスト・同期経路。ネットワークに出ない単純分類器を使う。
func (s *Service) Ingest(ctx context.Context, in Incoming) (Result, error) {
	msg, err := s.buildMessage(in)
	if err != nil {
		return Result{}, err
	}

	s.store.AddMessage(msg)

	verdict := s.classifier.AnalyzeSimple(msg.Content)
	return s.finish(msg, verdict), nil
}

// IngestWebhook はライブ経路。対象ユーザーの直近履歴を文脈として分類する。
func (s *Service) IngestWebhook(ctx context.Context, in Incoming) (Result, error) {
	msg, err := s.buildMessage(in)
	if err != nil {
		return Result{}, err
	}

	// 分類が遅延しても直近メッセージ照会に見えるよう、分類前に保存する。
	s.store.AddMessage(msg)

	userHistory := s.store.GetUserRecentMessages(msg.UserID)
	verdict := s.classifier.Analyze(ctx, userHistory, msg.UserID)
	return s.finish(msg, verdict), nil
}

func (s *Service) buildMessage(in Incoming) (chat.Message, error) {
	if in.Content == "" {
		return chat.Message{}, ErrContentRequired
	}
	if in.UserID == "" {
		return chat.Message{}, ErrUserIDRequired
	}

	msg := chat.Message{
		ID:        in.ID,
		Content:   in.Content,
		UserName:  in.UserName,
		UserID:    in.UserID,
		Timestamp: in.Timestamp,
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	return msg, nil
}

// finish は判定結果の付与・感情状態の upsert・購読者への配信を行う。
func (s *Service) finish(msg chat.Message, verdict chat.EmotionVerdict) Result {
	s.store.AttachEmotion(msg.ID, verdict)
	v := verdict
	msg.Emotion = &v

	s.store.UpdateUserEmotion(chat.UserEmotionState{
		UserID:         msg.UserID,
		UserName:       msg.UserName,
		CurrentEmotion: verdict,
		LastUpdated:    time.Now().UnixMilli(),
	})

	if s.broadcaster != nil {
		s.broadcaster.BroadcastNewMessage(msg)
		s.broadcaster.BroadcastEmotionUpdate(s.store.GetAllUserEmotions())
	}

	log.Printf("[ingest] message processed user=%s emotion=%s confidence=%.2f", msg.UserID, verdict.Emotion, verdict.Confidence)
	return Result{Message: msg, Verdict: verdict}
}
