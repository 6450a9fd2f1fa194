package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/topic-comb/app/database"
)

type MockPostReader struct {
	posts      []database.Post
	stats      []database.TopicStats
	err        error
	lastFilter database.PostFilter
}

var _ database.PostReader = (*MockPostReader)(nil)

func (m *MockPostReader) GetPost(ctx context.Context, fingerprint string) (*database.Post, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, post := range m.posts {
		if post.Fingerprint == fingerprint {
			return &post, nil
		}
	}
	return nil, nil
}

func (m *MockPostReader) ListPosts(ctx context.Context, filter database.PostFilter) ([]database.Post, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.posts, nil
}

func (m *MockPostReader) GetPostCount(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.posts), nil
}

func (m *MockPostReader) GetTopicStats(ctx context.Context) ([]database.TopicStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func newTestServer(reader *MockPostReader) *gin.Engine {
	server := NewServer(NewHandler(reader, "test"))
	gin.SetMode(gin.TestMode)
	return server
}

func perform(server *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func testPosts() []database.Post {
	return []database.Post{
		{Fingerprint: "aaa", Topic: "ethereum", Title: "ETH moon", Score: 10, SentimentScore: 0.5, ExternalMeta: "{}"},
		{Fingerprint: "bbb", Topic: "python", Title: "New release", Score: 3, ExternalMeta: "{}"},
	}
}

func TestGetHealth(t *testing.T) {
	server := newTestServer(&MockPostReader{posts: testPosts()})

	w := perform(server, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["posts"] != float64(2) {
		t.Errorf("Expected 2 posts, got %v", body["posts"])
	}
}

func TestGetStats(t *testing.T) {
	reader := &MockPostReader{
		posts: testPosts(),
		stats: []database.TopicStats{
			{Topic: "ethereum", Posts: 1, AverageSentiment: 0.5},
			{Topic: "python", Posts: 1},
		},
	}
	server := newTestServer(reader)

	w := perform(server, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Posts != 2 {
		t.Errorf("Expected 2 posts, got %d", body.Posts)
	}
	if len(body.Topics) != 2 || body.Topics[0].Topic != "ethereum" {
		t.Errorf("Unexpected topic stats: %+v", body.Topics)
	}
}

func TestGetStats_DatabaseError(t *testing.T) {
	server := newTestServer(&MockPostReader{err: errors.New("boom")})

	w := perform(server, "/stats")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestListPosts_Filters(t *testing.T) {
	reader := &MockPostReader{posts: testPosts()}
	server := newTestServer(reader)

	w := perform(server, "/posts?topic=ethereum&min_sentiment=0.2&max_sentiment=0.9&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if reader.lastFilter.Topic != "ethereum" {
		t.Errorf("Expected topic filter, got %q", reader.lastFilter.Topic)
	}
	if reader.lastFilter.MinSentiment == nil || *reader.lastFilter.MinSentiment != 0.2 {
		t.Errorf("Expected min sentiment 0.2, got %v", reader.lastFilter.MinSentiment)
	}
	if reader.lastFilter.MaxSentiment == nil || *reader.lastFilter.MaxSentiment != 0.9 {
		t.Errorf("Expected max sentiment 0.9, got %v", reader.lastFilter.MaxSentiment)
	}
	if reader.lastFilter.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", reader.lastFilter.Limit)
	}

	var body PostsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Total != 2 {
		t.Errorf("Expected total 2, got %d", body.Total)
	}
	if w.Header().Get("X-Post-Count") != "2" {
		t.Errorf("Expected X-Post-Count 2, got %s", w.Header().Get("X-Post-Count"))
	}
}

func TestListPosts_NoFilters(t *testing.T) {
	reader := &MockPostReader{posts: testPosts()}
	server := newTestServer(reader)

	w := perform(server, "/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if reader.lastFilter.MinSentiment != nil || reader.lastFilter.MaxSentiment != nil {
		t.Error("Expected no sentiment bounds")
	}
	if reader.lastFilter.Limit != 0 {
		t.Errorf("Expected repository default limit, got %d", reader.lastFilter.Limit)
	}
}

func TestListPosts_BadParameters(t *testing.T) {
	server := newTestServer(&MockPostReader{})

	for _, path := range []string{
		"/posts?min_sentiment=high",
		"/posts?max_sentiment=x",
		"/posts?limit=0",
		"/posts?limit=abc",
		"/posts?limit=5000",
	} {
		w := perform(server, path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400 for %s, got %d", path, w.Code)
		}
	}
}

func TestGetPost(t *testing.T) {
	server := newTestServer(&MockPostReader{posts: testPosts()})

	w := perform(server, "/posts/aaa")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var post database.Post
	if err := json.Unmarshal(w.Body.Bytes(), &post); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if post.Title != "ETH moon" {
		t.Errorf("Expected title 'ETH moon', got %s", post.Title)
	}

	w = perform(server, "/posts/zzz")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(&MockPostReader{})

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
