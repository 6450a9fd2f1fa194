package tasks

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lysyi3m/topic-comb/app/feed"
)

const DefaultMaxConcurrency = 5

// Scheduler fans topic fetches out under a shared concurrency gate.
type Scheduler struct {
	fetcher        TopicFetcher
	gate           *semaphore.Weighted
	maxConcurrency int
}

func NewScheduler(fetcher TopicFetcher, maxConcurrency int) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	return &Scheduler{
		fetcher:        fetcher,
		gate:           semaphore.NewWeighted(int64(maxConcurrency)),
		maxConcurrency: maxConcurrency,
	}
}

// Run fetches every topic concurrently and concatenates the results in topic
// order. Item order within a topic is kept as received.
func (s *Scheduler) Run(ctx context.Context, topics []string, limit int, politeness int) []feed.RawItem {
	topics = NormalizeTopics(topics)
	if len(topics) == 0 {
		return nil
	}

	slog.Debug("Scheduling topic fetches", "topics", len(topics), "max_concurrency", s.maxConcurrency)

	results := make([][]feed.RawItem, len(topics))

	var wg sync.WaitGroup
	for i, topic := range topics {
		wg.Add(1)
		go func(i int, task *FetchTopicTask) {
			defer wg.Done()
			results[i] = s.runTask(ctx, task, limit, politeness)
		}(i, NewFetchTopicTask(topic))
	}
	wg.Wait()

	total := 0
	for _, items := range results {
		total += len(items)
	}

	combined := make([]feed.RawItem, 0, total)
	for _, items := range results {
		combined = append(combined, items...)
	}

	return combined
}

func (s *Scheduler) runTask(ctx context.Context, task *FetchTopicTask, limit int, politeness int) []feed.RawItem {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		slog.Warn("Topic skipped, run cancelled", "topic", task.Topic, "error", err)
		return nil
	}
	defer s.gate.Release(1)

	task.Start()
	items := s.fetcher.Fetch(ctx, task.Topic, limit, politeness)

	slog.Info("Task completed",
		"type", task.GetType(),
		"id", task.GetID(),
		"topic", task.Topic,
		"duration", task.GetDuration(),
		"items", len(items))

	return items
}

type FetchTopicTask struct {
	Task
}

func NewFetchTopicTask(topic string) *FetchTopicTask {
	return &FetchTopicTask{Task: NewTask(TaskTypeFetchTopic, topic)}
}

// NormalizeTopics trims names, drops empty ones and collapses duplicates,
// keeping first-seen order.
func NormalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	normalized := make([]string, 0, len(topics))

	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		normalized = append(normalized, topic)
	}

	return normalized
}
