package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
)

const defaultListLimit = 100

var _ PostRepository = (*Repository)(nil)

// Repository handles database operations for posts
type Repository struct {
	db *DB
}

// NewRepository creates a new post repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// UpsertPosts writes every post with a fingerprint, replacing any row that
// shares it. A failing row is logged and skipped; the returned count covers
// only rows actually written.
func (r *Repository) UpsertPosts(ctx context.Context, posts []Post) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (fingerprint, topic, title, score, sentiment_score, external_meta, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			topic = excluded.topic,
			title = excluded.title,
			score = excluded.score,
			sentiment_score = excluded.sentiment_score,
			external_meta = excluded.external_meta,
			captured_at = excluded.captured_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	count := 0
	skipped := 0
	for _, post := range posts {
		if post.Fingerprint == "" {
			skipped++
			continue
		}

		_, err := stmt.ExecContext(ctx, post.Fingerprint, post.Topic, post.Title, post.Score,
			post.SentimentScore, post.ExternalMeta, post.CapturedAt)
		if err != nil {
			slog.Error("Failed to upsert post", "fingerprint", post.Fingerprint, "topic", post.Topic, "error", err)
			continue
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit posts: %w", err)
	}

	slog.Debug("Posts upserted", "written", count, "skipped", skipped, "failed", len(posts)-count-skipped)

	return count, nil
}

// GetPost retrieves a post by its fingerprint
func (r *Repository) GetPost(ctx context.Context, fingerprint string) (*Post, error) {
	var post Post
	err := r.db.Reader().QueryRowContext(ctx, `
		SELECT fingerprint, COALESCE(topic, ''), COALESCE(title, ''), COALESCE(score, 0),
		       COALESCE(sentiment_score, 0), COALESCE(external_meta, ''), COALESCE(captured_at, '')
		FROM posts
		WHERE fingerprint = ?
	`, fingerprint).Scan(
		&post.Fingerprint, &post.Topic, &post.Title, &post.Score,
		&post.SentimentScore, &post.ExternalMeta, &post.CapturedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// ListPosts returns posts matching filter, most positive first
func (r *Repository) ListPosts(ctx context.Context, filter PostFilter) ([]Post, error) {
	var (
		where []string
		args  []any
	)

	if filter.Topic != "" {
		where = append(where, "topic = ?")
		args = append(args, filter.Topic)
	}
	if filter.MinSentiment != nil {
		where = append(where, "sentiment_score >= ?")
		args = append(args, *filter.MinSentiment)
	}
	if filter.MaxSentiment != nil {
		where = append(where, "sentiment_score <= ?")
		args = append(args, *filter.MaxSentiment)
	}

	query := `
		SELECT fingerprint, COALESCE(topic, ''), COALESCE(title, ''), COALESCE(score, 0),
		       COALESCE(sentiment_score, 0), COALESCE(external_meta, ''), COALESCE(captured_at, '')
		FROM posts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sentiment_score DESC, score DESC LIMIT ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	rows, err := r.db.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var post Post
		err := rows.Scan(
			&post.Fingerprint, &post.Topic, &post.Title, &post.Score,
			&post.SentimentScore, &post.ExternalMeta, &post.CapturedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

// GetPostCount returns the total number of posts
func (r *Repository) GetPostCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.Reader().QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

// GetTopicStats returns per-topic post counts and average sentiment
func (r *Repository) GetTopicStats(ctx context.Context) ([]TopicStats, error) {
	rows, err := r.db.Reader().QueryContext(ctx, `
		SELECT COALESCE(topic, ''), COUNT(*), COALESCE(AVG(sentiment_score), 0)
		FROM posts
		GROUP BY topic
		ORDER BY topic
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic stats: %w", err)
	}
	defer rows.Close()

	stats := []TopicStats{}
	for rows.Next() {
		var s TopicStats
		if err := rows.Scan(&s.Topic, &s.Posts, &s.AverageSentiment); err != nil {
			return nil, fmt.Errorf("failed to scan topic stats row: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating topic stats rows: %w", err)
	}

	return stats, nil
}

// RunQuery executes a raw query on the read-only connection
func (r *Repository) RunQuery(ctx context.Context, query string) (*QueryResult, error) {
	rows, err := r.db.Reader().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan query row: %w", err)
		}

		for i, value := range values {
			if raw, ok := value.([]byte); ok {
				values[i] = string(raw)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query rows: %w", err)
	}

	return result, nil
}
