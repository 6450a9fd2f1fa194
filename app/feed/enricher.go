package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const emptyMeta = "{}"

var magnitudePattern = regexp.MustCompile(`\d+k`)

type Enricher struct {
	rules  SentimentRules
	signal SignalSource
	now    func() time.Time
}

// NewEnricher lower-cases the keyword sets once so they match the case-folded
// titles Score is given.
func NewEnricher(rules SentimentRules, signal SignalSource) *Enricher {
	return &Enricher{
		rules:  rules.caseFolded(),
		signal: signal,
		now:    time.Now,
	}
}

// WithClock replaces the capture timestamp source.
func (e *Enricher) WithClock(now func() time.Time) *Enricher {
	e.now = now
	return e
}

func (e *Enricher) Run(items []RawItem, enableScoring, enableSignal bool) []Record {
	if len(items) == 0 {
		return []Record{}
	}

	capturedAt := e.now().UTC().Format(time.RFC3339)
	lower := cases.Lower(language.Und)

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record := Record{
			Fingerprint:  Fingerprint(item.Title),
			Topic:        item.Topic,
			Title:        item.Title,
			Score:        item.Score,
			ExternalMeta: emptyMeta,
			CapturedAt:   capturedAt,
		}

		if enableScoring {
			record.SentimentScore = e.rules.Score(lower.String(item.Title))
		}

		if enableSignal && e.signal != nil {
			record.ExternalMeta = encodeSignal(e.signal.Signal(item.Topic))
		}

		records = append(records, record)
	}

	return records
}

func (r SentimentRules) caseFolded() SentimentRules {
	lower := cases.Lower(language.Und)
	fold := func(keywords []string) []string {
		folded := make([]string, len(keywords))
		for i, keyword := range keywords {
			folded[i] = lower.String(keyword)
		}
		return folded
	}

	r.Bullish = fold(r.Bullish)
	r.Bearish = fold(r.Bearish)
	return r
}

// Score rates already lower-cased text. Bullish and bearish matches are
// counted once each, independently of each other.
func (r SentimentRules) Score(text string) float64 {
	score := 0.0

	if containsAny(text, r.Bullish) {
		score += r.BullishWeight
	}
	if containsAny(text, r.Bearish) {
		score -= r.BearishWeight
	}
	if magnitudePattern.MatchString(text) {
		score += r.MagnitudeBonus
	}

	return clamp(score, -1.0, 1.0)
}

// Fingerprint identifies a post by its title alone. Untitled posts have no
// fingerprint.
func Fingerprint(title string) string {
	if title == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(title))
	return hex.EncodeToString(hash[:])
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func clamp(value, lo, hi float64) float64 {
	return max(min(value, hi), lo)
}
