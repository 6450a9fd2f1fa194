package tasks

import (
	"context"

	"github.com/lysyi3m/topic-comb/app/feed"
)

// TopicFetcher retrieves one topic's listing. Implementations report
// failures as an empty result rather than an error.
type TopicFetcher interface {
	Fetch(ctx context.Context, topic string, limit int, politeness int) []feed.RawItem
}

// RecordSink receives every enriched batch after it has been stored.
type RecordSink interface {
	Append(records []feed.Record) error
}

// RunnerInterface drives repeated hunts.
// Example usage:
//
//	runner, err := NewCronRunner(ctx, "@every 1h", hunt)
//	runner.Start()
//	defer runner.Stop()
type RunnerInterface interface {
	Start()
	Stop()
}
