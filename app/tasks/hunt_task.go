package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/topic-comb/app/database"
	"github.com/lysyi3m/topic-comb/app/feed"
)

var _ TaskInterface = (*HuntTask)(nil)

type HuntOptions struct {
	Topics        []string
	Limit         int
	Politeness    int
	EnableScoring bool
	EnableSignal  bool
	PreviewRows   int
}

type HuntResult struct {
	Fetched  int
	Upserted int
	Exported int
}

// HuntTask is one full pass: fetch all topics, enrich, store, export.
type HuntTask struct {
	Task
	Options    HuntOptions
	Result     HuntResult
	scheduler  *Scheduler
	enricher   *feed.Enricher
	postWriter database.PostWriter
	sink       RecordSink
}

func NewHuntTask(options HuntOptions, scheduler *Scheduler, enricher *feed.Enricher, postWriter database.PostWriter, sink RecordSink) *HuntTask {
	return &HuntTask{
		Task:       NewTask(TaskTypeHunt, ""),
		Options:    options,
		scheduler:  scheduler,
		enricher:   enricher,
		postWriter: postWriter,
		sink:       sink,
	}
}

func (t *HuntTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.Start()

	items := t.scheduler.Run(ctx, t.Options.Topics, t.Options.Limit, t.Options.Politeness)
	t.Result.Fetched = len(items)

	if err := ctx.Err(); err != nil {
		return err
	}

	if len(items) == 0 {
		slog.Warn("No items returned by any topic", "id", t.GetID(), "topics", len(t.Options.Topics))
		return nil
	}

	records := t.enricher.Run(items, t.Options.EnableScoring, t.Options.EnableSignal)

	slog.Info("Batch enriched",
		"id", t.GetID(),
		"records", len(records),
		"scoring", t.Options.EnableScoring,
		"signal", t.Options.EnableSignal)
	t.logPreview(records)

	upserted, storeErr := t.postWriter.UpsertPosts(ctx, toPosts(records))
	if storeErr != nil {
		storeErr = fmt.Errorf("failed to store posts: %w", storeErr)
	}
	t.Result.Upserted = upserted

	var exportErr error
	if t.sink != nil {
		if err := t.sink.Append(records); err != nil {
			exportErr = fmt.Errorf("failed to export records: %w", err)
		} else {
			t.Result.Exported = len(records)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"id", t.GetID(),
		"duration", t.GetDuration(),
		"fetched", t.Result.Fetched,
		"upserted", t.Result.Upserted,
		"exported", t.Result.Exported)

	return errors.Join(storeErr, exportErr)
}

func (t *HuntTask) logPreview(records []feed.Record) {
	for i, record := range records {
		if i >= t.Options.PreviewRows {
			return
		}
		slog.Info("Preview", "topic", record.Topic, "title", record.Title, "sentiment", record.SentimentScore)
	}
}

func toPosts(records []feed.Record) []database.Post {
	posts := make([]database.Post, len(records))
	for i, record := range records {
		posts[i] = database.Post{
			Fingerprint:    record.Fingerprint,
			Topic:          record.Topic,
			Title:          record.Title,
			Score:          record.Score,
			SentimentScore: record.SentimentScore,
			ExternalMeta:   record.ExternalMeta,
			CapturedAt:     record.CapturedAt,
		}
	}
	return posts
}
