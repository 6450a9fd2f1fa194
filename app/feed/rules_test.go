package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}
	return path
}

func TestLoadRules_Defaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(rules.Sentiment.Bullish) != 7 || len(rules.Sentiment.Bearish) != 7 {
		t.Errorf("Expected 7 bullish and 7 bearish keywords, got %d and %d",
			len(rules.Sentiment.Bullish), len(rules.Sentiment.Bearish))
	}
	if rules.Sentiment.BullishWeight != 0.5 || rules.Sentiment.BearishWeight != 0.5 {
		t.Errorf("Unexpected default weights: %+v", rules.Sentiment)
	}
	if len(rules.Identities) != 3 {
		t.Errorf("Expected 3 identities, got %d", len(rules.Identities))
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if len(rules.SignalTopics) != 3 {
		t.Errorf("Expected default signal topics, got %v", rules.SignalTopics)
	}
}

func TestLoadRules_Overrides(t *testing.T) {
	path := writeRulesFile(t, `
sentiment:
  bullish: [rally]
  bullish_weight: 0.7
signal_topics: [solana]
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(rules.Sentiment.Bullish) != 1 || rules.Sentiment.Bullish[0] != "rally" {
		t.Errorf("Expected bullish override, got %v", rules.Sentiment.Bullish)
	}
	if rules.Sentiment.BullishWeight != 0.7 {
		t.Errorf("Expected bullish weight 0.7, got %v", rules.Sentiment.BullishWeight)
	}
	if len(rules.Sentiment.Bearish) != 7 {
		t.Errorf("Expected bearish defaults to be kept, got %v", rules.Sentiment.Bearish)
	}
	if rules.Sentiment.BearishWeight != 0.5 {
		t.Errorf("Expected default bearish weight, got %v", rules.Sentiment.BearishWeight)
	}
	if len(rules.SignalTopics) != 1 || rules.SignalTopics[0] != "solana" {
		t.Errorf("Expected signal topic override, got %v", rules.SignalTopics)
	}
}

func TestLoadRules_MixedCaseKeywordsScore(t *testing.T) {
	path := writeRulesFile(t, `
sentiment:
  bullish: [ETF, Rally]
`)

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	records := NewEnricher(rules.Sentiment, nil).Run([]RawItem{{Topic: "quant", Title: "ETF approved"}}, true, false)
	if len(records) != 1 || records[0].SentimentScore != 0.5 {
		t.Errorf("Expected keyword from rules file to match regardless of case, got %+v", records)
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "sentiment: [unclosed"},
		{name: "negative weight", content: "sentiment:\n  bearish_weight: -1\n"},
		{name: "empty keyword", content: "sentiment:\n  bullish: [\"\"]\n"},
		{name: "empty identity", content: "identities: [\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadRules(writeRulesFile(t, tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestDefaultRules_Independent(t *testing.T) {
	first := DefaultRules()
	first.Sentiment.Bullish[0] = "changed"

	second := DefaultRules()
	if second.Sentiment.Bullish[0] != "ai" {
		t.Errorf("Expected defaults to be unaffected by modification, got %s", second.Sentiment.Bullish[0])
	}
}
