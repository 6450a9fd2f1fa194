package feed

// Listing types

type RawItem struct {
	Topic     string
	Title     string
	Score     int
	CreatedAt int64 // epoch seconds
	URL       string
}

type Record struct {
	Fingerprint    string // hex SHA-256 of Title, empty for untitled items
	Topic          string
	Title          string
	Score          int
	SentimentScore float64 // [-1.0, 1.0]
	ExternalMeta   string  // JSON object, "{}" when the signal is disabled
	CapturedAt     string  // RFC 3339, shared by every record of a batch
}

// Rules file types

type Rules struct {
	Sentiment    SentimentRules `yaml:"sentiment"`
	SignalTopics []string       `yaml:"signal_topics"`
	Identities   []string       `yaml:"identities"`
}

type SentimentRules struct {
	Bullish        []string `yaml:"bullish"`
	Bearish        []string `yaml:"bearish"`
	BullishWeight  float64  `yaml:"bullish_weight"`
	BearishWeight  float64  `yaml:"bearish_weight"`
	MagnitudeBonus float64  `yaml:"magnitude_bonus"` // applied when a "50k"-style figure appears
}
