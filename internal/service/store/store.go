package store

import (
	"sync"
	"time"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
)

// RetentionTime より古いメッセージ・感情状態は保持しない。
const RetentionTime = 10 * time.Minute

// Stats はストアの統計スナップショット。
type Stats struct {
	TotalMessages     int    `json:"totalMessages"`
	RecentMessages    int    `json:"recentMessages"`
	ActiveUsers       int    `json:"activeUsers"`
	OldestMessageTime *int64 `json:"oldestMessageTime"`
}

// MessageStore はメッセージと感情状態を保持期間つきでメモリ管理する。
// 掃除は呼び出し時に都度行う（遅延クリーンアップ）。読み取りも掃除を伴うため
// 全操作を単一の Mutex で直列化する。
type MessageStore struct {
	mu           sync.Mutex
	messages     []chat.Message
	userEmotions map[string]chat.UserEmotionState
}

// New は空のストアを生成する。
func New() *MessageStore {
	return &MessageStore{
		messages:     make([]chat.Message, 0, 64),
		userEmotions: make(map[string]chat.UserEmotionState),
	}
}

// AddMessage はメッセージを追記し、保持期間を過ぎた古いメッセージを破棄する。
// 挿入順は維持される。
func (s *MessageStore) AddMessage(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.evictMessages(cutoff())
}

// AttachEmotion は保存済みメッセージに分析結果を付与する。
// メッセージ生成後に許される唯一の変更点。
func (s *MessageStore) AttachEmotion(messageID string, verdict chat.EmotionVerdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == messageID {
			v := verdict
			s.messages[i].Emotion = &v
			return
		}
	}
}

// GetRecentMessages は保持期間内の全メッセージを古い順で返す。
func (s *MessageStore) GetRecentMessages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictMessages(cutoff())

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// GetUserRecentMessages は特定ユーザーの保持期間内メッセージを古い順で返す。
func (s *MessageStore) GetUserRecentMessages(userID string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictMessages(cutoff())

	filtered := make([]chat.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if msg.UserID == userID {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// UpdateUserEmotion はユーザー感情状態を upsert する（後勝ち）。
func (s *MessageStore) UpdateUserEmotion(state chat.UserEmotionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userEmotions[state.UserID] = state
	s.evictEmotions(cutoff())
}

// GetAllUserEmotions は有効な全ユーザーの感情状態を返す。順序は保証しない。
func (s *MessageStore) GetAllUserEmotions() []chat.UserEmotionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictEmotions(cutoff())

	states := make([]chat.UserEmotionState, 0, len(s.userEmotions))
	for _, state := range s.userEmotions {
		states = append(states, state)
	}
	return states
}

// GetUserEmotion は保持期間内であればユーザーの感情状態を返す。
func (s *MessageStore) GetUserEmotion(userID string) (chat.UserEmotionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.userEmotions[userID]
	if !ok || state.LastUpdated <= cutoff() {
		return chat.UserEmotionState{}, false
	}
	return state, true
}

// GetStats は統計スナップショットを返す。掃除は行わないため totalMessages には
// まだ物理削除されていない期限切れメッセージも含まれ得る。
func (s *MessageStore) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{TotalMessages: len(s.messages), ActiveUsers: len(s.userEmotions)}

	cut := cutoff()
	for _, msg := range s.messages {
		if msg.Timestamp > cut {
			stats.RecentMessages++
		}
		if stats.OldestMessageTime == nil || msg.Timestamp < *stats.OldestMessageTime {
			ts := msg.Timestamp
			stats.OldestMessageTime = &ts
		}
	}
	return stats
}

// evictMessages は cutoff 以前のメッセージを取り除く。呼び出し側がロックを持つ。
func (s *MessageStore) evictMessages(cut int64) {
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if msg.Timestamp > cut {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
}

func (s *MessageStore) evictEmotions(cut int64) {
	for userID, state := range s.userEmotions {
		if state.LastUpdated <= cut {
			delete(s.userEmotions, userID)
		}
	}
}

func cutoff() int64 {
	return time.Now().Add(-RetentionTime).UnixMilli()
}
