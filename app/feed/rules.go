package feed

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	defaultBullish = []string{"ai", "eth", "moon", "bull", "breakout", "pump", "gem"}
	defaultBearish = []string{"crash", "bear", "scam", "ban", "reg", "dump", "fud"}

	defaultSignalTopics = []string{"ethereum", "ethtrader", "defi"}

	defaultIdentities = []string{
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.159 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Gecko/20100101 Firefox/91.0",
	}
)

// DefaultRules returns a fresh copy of the built-in rules, safe to modify.
func DefaultRules() Rules {
	return Rules{
		Sentiment:    DefaultSentimentRules(),
		SignalTopics: slices.Clone(defaultSignalTopics),
		Identities:   slices.Clone(defaultIdentities),
	}
}

func DefaultSentimentRules() SentimentRules {
	return SentimentRules{
		Bullish:        slices.Clone(defaultBullish),
		Bearish:        slices.Clone(defaultBearish),
		BullishWeight:  0.5,
		BearishWeight:  0.5,
		MagnitudeBonus: 0.1,
	}
}

// LoadRules reads a YAML rules file. An empty path or a missing file yields
// DefaultRules; sections left out of the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("Rules file not found, using defaults", "path", path)
		return rules, nil
	}
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var parsed Rules
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Rules{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateRules(parsed); err != nil {
		return Rules{}, fmt.Errorf("invalid rules %s: %w", path, err)
	}

	if len(parsed.Sentiment.Bullish) > 0 {
		rules.Sentiment.Bullish = parsed.Sentiment.Bullish
	}
	if len(parsed.Sentiment.Bearish) > 0 {
		rules.Sentiment.Bearish = parsed.Sentiment.Bearish
	}
	if parsed.Sentiment.BullishWeight != 0 {
		rules.Sentiment.BullishWeight = parsed.Sentiment.BullishWeight
	}
	if parsed.Sentiment.BearishWeight != 0 {
		rules.Sentiment.BearishWeight = parsed.Sentiment.BearishWeight
	}
	if parsed.Sentiment.MagnitudeBonus != 0 {
		rules.Sentiment.MagnitudeBonus = parsed.Sentiment.MagnitudeBonus
	}
	if len(parsed.SignalTopics) > 0 {
		rules.SignalTopics = parsed.SignalTopics
	}
	if len(parsed.Identities) > 0 {
		rules.Identities = parsed.Identities
	}

	slog.Debug("Rules loaded",
		"path", path,
		"bullish", len(rules.Sentiment.Bullish),
		"bearish", len(rules.Sentiment.Bearish),
		"signal_topics", len(rules.SignalTopics),
		"identities", len(rules.Identities))

	return rules, nil
}

func validateRules(rules Rules) error {
	nonNegativeFields := map[string]float64{
		"bullish weight":  rules.Sentiment.BullishWeight,
		"bearish weight":  rules.Sentiment.BearishWeight,
		"magnitude bonus": rules.Sentiment.MagnitudeBonus,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	for i, keyword := range rules.Sentiment.Bullish {
		if keyword == "" {
			return fmt.Errorf("empty bullish keyword at index %d", i)
		}
	}
	for i, keyword := range rules.Sentiment.Bearish {
		if keyword == "" {
			return fmt.Errorf("empty bearish keyword at index %d", i)
		}
	}
	for i, identity := range rules.Identities {
		if identity == "" {
			return fmt.Errorf("empty identity at index %d", i)
		}
	}

	return nil
}
