package emotion

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/dyamada-jaki/chat-analyzer/internal/analysis/emotion"
	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
)

// Config 感情分析サービスの動作設定。
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// classifierRunnable はリモート分類呼び出しの最小インターフェース。
// コンパイル済みの eino チェーンがこれを満たす。
type classifierRunnable interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// Service は大モデルで会話履歴から感情を推定し、失敗時は必ず既定値へ退避する。
// Analyze がエラーを返すことはない。
type Service struct {
	enabled    bool
	classifier classifierRunnable
	timeout    time.Duration
}

// NewService 感情分析サービスを生成する。chatModel が nil の場合は
// キーワード規則のみで動作する。
func NewService(ctx context.Context, chatModel model.ToolCallingChatModel, cfg Config) (*Service, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	svc := &Service{
		enabled: cfg.Enabled && chatModel != nil,
		timeout: timeout,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(classifySystemPrompt),
		schema.UserMessage(classifyUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, err
	}

	svc.classifier = runnable
	return svc, nil
}

// Enabled はリモート分類が利用可能かを返す。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Analyze は対象ユーザーの履歴から現在の感情を推定する（文脈考慮パス）。
// 履歴は対象ユーザーのメッセージのみに絞り込み、空なら中立を返す。
// リモート呼び出しの失敗・タイムアウトは呼び出し元に伝播せず中立へ退避する。
func (s *Service) Analyze(ctx context.Context, history []chat.Message, targetUserID string) chat.EmotionVerdict {
	userMessages := make([]chat.Message, 0, len(history))
	for _, msg := range history {
		if msg.UserID == targetUserID {
			userMessages = append(userMessages, msg)
		}
	}

	if len(userMessages) == 0 {
		return neutralVerdict()
	}

	latest := userMessages[len(userMessages)-1]

	if !s.Enabled() {
		return analysis.Analyze(latest.Content)
	}

	input := map[string]any{
		"context": buildContext(userMessages),
		"latest":  latest.Content,
	}

	invokeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.classifier.Invoke(invokeCtx, input)
	if err != nil {
		log.Printf("[emotion] classifier invoke failed, returning neutral: %v", err)
		return neutralVerdict()
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Printf("[emotion] classifier returned empty output, returning neutral")
		return neutralVerdict()
	}

	return parseVerdict(msg.Content)
}

// AnalyzeSimple は単一メッセージをキーワード規則だけで即時判定する。
func (s *Service) AnalyzeSimple(text string) chat.EmotionVerdict {
	return analysis.Analyze(text)
}

// buildContext は対象ユーザーのメッセージを古い順に1行ずつ引用符つきで並べる。
func buildContext(messages []chat.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, "\""+msg.Content+"\"")
	}
	return strings.Join(lines, "\n")
}

var (
	emotionLinePattern    = regexp.MustCompile(`emotion:\s*(positive|negative|angry|neutral)`)
	confidenceLinePattern = regexp.MustCompile(`confidence:\s*(-?[0-9.]+)`)
)

// parseVerdict はモデル出力を寛容に解釈する。emotion: 行が既知のラベルに
// 一致した最初のもの、confidence: 行が数値として読めた最初のものを採用し、
// 形式外の出力は既定値（neutral / 0.7）へ落とす。決して失敗しない。
func parseVerdict(content string) chat.EmotionVerdict {
	emotion := chat.Neutral
	confidence := 0.7
	emotionFound := false
	confidenceFound := false

	for _, line := range strings.Split(strings.ToLower(content), "\n") {
		if !emotionFound && strings.Contains(line, "emotion:") {
			if m := emotionLinePattern.FindStringSubmatch(line); m != nil {
				emotion = chat.EmotionType(m[1])
				emotionFound = true
			}
		}
		if !confidenceFound && strings.Contains(line, "confidence:") {
			if m := confidenceLinePattern.FindStringSubmatch(line); m != nil {
				if val, err := strconv.ParseFloat(m[1], 64); err == nil {
					confidence = clampConfidence(val)
					confidenceFound = true
				}
			}
		}
	}

	return chat.EmotionVerdict{
		Emotion:    emotion,
		Confidence: confidence,
		Timestamp:  time.Now().UnixMilli(),
	}
}

func clampConfidence(val float64) float64 {
	if val < 0 {
		return 0
	}
	if val > 1 {
		return 1
	}
	return val
}

func neutralVerdict() chat.EmotionVerdict {
	return chat.EmotionVerdict{
		Emotion:    chat.Neutral,
		Confidence: 0.6,
		Timestamp:  time.Now().UnixMilli(),
	}
}

const classifySystemPrompt = `あなたはチャットメッセージからユーザーの現在の感情状態を分析するアナリストです。

【感情カテゴリ】
- positive: 嬉しい、満足、期待、楽観的
- negative: 悲しい、落胆、不安、心配
- angry: 不満、イライラ、批判的、不快
- neutral: 普通、事実的、冷静、客観的

【出力形式】
必ず次の2行のみを出力してください。
emotion: [positive/negative/angry/neutral]
confidence: [0.0-1.0の数値]`

const classifyUserPrompt = `【分析対象メッセージ】
{context}

【最新メッセージ（重視）】
"{latest}"

最新のメッセージを最も重視し、過去のメッセージは文脈として参考にしてください。
簡潔に分析結果のみを出力してください。`
