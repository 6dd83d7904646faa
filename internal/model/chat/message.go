package chat

// EmotionType は分析結果として取り得る感情カテゴリ。
type EmotionType string

const (
	Positive EmotionType = "positive"
	Negative EmotionType = "negative"
	Angry    EmotionType = "angry"
	Neutral  EmotionType = "neutral"
)

// EmotionVerdict は1回の感情分析の結果。値型であり、分析のたびに新しく生成される。
type EmotionVerdict struct {
	Emotion    EmotionType `json:"emotion"`
	Confidence float64     `json:"confidence"`
	Timestamp  int64       `json:"timestamp"`
}

// Message はチャットの1発言。Timestamp はエポックミリ秒。
// Emotion は取り込みパイプラインが分類完了後に一度だけ付与する。
type Message struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	UserName  string          `json:"userName"`
	UserID    string          `json:"userId"`
	Timestamp int64           `json:"timestamp"`
	Emotion   *EmotionVerdict `json:"emotion,omitempty"`
}

// UserEmotionState はユーザーごとの最新の感情状態。userId につき常に1件。
type UserEmotionState struct {
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName"`
	CurrentEmotion EmotionVerdict `json:"currentEmotion"`
	LastUpdated    int64          `json:"lastUpdated"`
}
