package emotion

import (
	"testing"

	"github.com/dyamada-jaki/chat-analyzer/internal/model/chat"
)

func TestAnalyzeAngryKeyword(t *testing.T) {
	verdict := Analyze("イライラする")
	if verdict.Emotion != chat.Angry {
		t.Fatalf("expected angry, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", verdict.Confidence)
	}
}

func TestAnalyzeAngryKeywordWinsOverNegative(t *testing.T) {
	// 「最悪」(怒り) が「一日でした」等の中立表現より優先される。
	verdict := Analyze("今日は最悪の一日でした")
	if verdict.Emotion != chat.Angry {
		t.Fatalf("expected angry, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", verdict.Confidence)
	}
}

func TestAnalyzeFrustrationPattern(t *testing.T) {
	verdict := Analyze("また予定を変更するんですか")
	if verdict.Emotion != chat.Angry {
		t.Fatalf("expected angry, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %f", verdict.Confidence)
	}
}

func TestAnalyzePoliteRequestAsComplaint(t *testing.T) {
	verdict := Analyze("早めに対応してください")
	if verdict.Emotion != chat.Angry {
		t.Fatalf("expected angry, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %f", verdict.Confidence)
	}
}

func TestAnalyzePositive(t *testing.T) {
	verdict := Analyze("ありがとう、本当に嬉しいです😊")
	if verdict.Emotion != chat.Positive {
		t.Fatalf("expected positive, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", verdict.Confidence)
	}
}

func TestAnalyzeNegative(t *testing.T) {
	verdict := Analyze("納期が心配です")
	if verdict.Emotion != chat.Negative {
		t.Fatalf("expected negative, got %s", verdict.Emotion)
	}
}

func TestAnalyzeNeutralDefault(t *testing.T) {
	verdict := Analyze("資料を共有します")
	if verdict.Emotion != chat.Neutral {
		t.Fatalf("expected neutral, got %s", verdict.Emotion)
	}
	if verdict.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %f", verdict.Confidence)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	first := Analyze("イライラする")
	second := Analyze("イライラする")
	if first.Emotion != second.Emotion || first.Confidence != second.Confidence {
		t.Fatalf("expected identical verdicts, got %v vs %v", first, second)
	}
}
