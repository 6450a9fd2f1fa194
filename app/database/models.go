package database

// Post is one row of the posts table.
type Post struct {
	Fingerprint    string  `json:"fingerprint"`
	Topic          string  `json:"topic"`
	Title          string  `json:"title"`
	Score          int     `json:"score"`
	SentimentScore float64 `json:"sentiment_score"`
	ExternalMeta   string  `json:"external_meta"`
	CapturedAt     string  `json:"captured_at"`
}

type PostFilter struct {
	Topic        string
	MinSentiment *float64
	MaxSentiment *float64
	Limit        int
}

type TopicStats struct {
	Topic            string  `json:"topic"`
	Posts            int     `json:"posts"`
	AverageSentiment float64 `json:"average_sentiment"`
}

// QueryResult holds an ad-hoc query's output with driver values normalized
// for display.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}
