package database

import (
	"context"
)

type PostWriter interface {
	UpsertPosts(ctx context.Context, posts []Post) (int, error)
}

type PostReader interface {
	GetPost(ctx context.Context, fingerprint string) (*Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]Post, error)
	GetPostCount(ctx context.Context) (int, error)
	GetTopicStats(ctx context.Context) ([]TopicStats, error)
}

type QueryRunner interface {
	RunQuery(ctx context.Context, query string) (*QueryResult, error)
}

type PostRepository interface {
	PostWriter
	PostReader
	QueryRunner
}
