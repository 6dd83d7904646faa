package emotion

import (
	"regexp"
	"strings"
	"time"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
)

var positiveWords = []string{
	"嬉しい", "楽しい", "最高", "ありがとう", "良い", "いいね", "成功", "素晴らしい", "頑張", "😊", "😄", "🎉",
}

var negativeWords = []string{
	"悲しい", "辛い", "大変", "心配", "不安", "困る", "間に合う", "😢", "😞", "😰",
}

var angryWords = []string{
	"むかつく", "腹立つ", "イライラ", "最悪", "😠", "💢", "怒",
	"いい加減", "もう", "うんざり", "やめて", "ふざけるな", "バカ",
	"また", "いつも", "しつこい", "ちゃんと", "勘弁", "はぁ",
	"変更", "遅れ", "キャンセル", "困る", "迷惑",
}

// frustrationPatterns は丁寧な言い回しに隠れた不満・苛立ちを拾う。
// 「〜してください」は繰り返しの依頼＝不満の文脈として扱う。
var frustrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`もう.*いい加減`),
	regexp.MustCompile(`また.*変更`),
	regexp.MustCompile(`いつも.*変わる`),
	regexp.MustCompile(`何度も`),
	regexp.MustCompile(`ください$`),
	regexp.MustCompile(`勘弁.*して`),
}

// Analyze はキーワードとパターンのみで感情を判定する決定的フォールバック。
// ネットワークに一切依存せず、必ず結果を返す。
// 優先順位は 不満パターン > 怒り > ポジティブ > ネガティブ。怒りの発言には
// 丁寧・中立な語が混ざりやすいため、怒り系のシグナルを常に優先する。
func Analyze(text string) chat.EmotionVerdict {
	normalized := strings.ToLower(strings.TrimSpace(text))

	emotion := chat.Neutral
	confidence := 0.6

	switch {
	case matchesAny(frustrationPatterns, normalized):
		emotion = chat.Angry
		confidence = 0.9
	case containsAny(normalized, angryWords):
		emotion = chat.Angry
		confidence = 0.8
	case containsAny(normalized, positiveWords):
		emotion = chat.Positive
		confidence = 0.8
	case containsAny(normalized, negativeWords):
		emotion = chat.Negative
		confidence = 0.8
	}

	return chat.EmotionVerdict{
		Emotion:    emotion,
		Confidence: confidence,
		Timestamp:  time.Now().UnixMilli(),
	}
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if word == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
