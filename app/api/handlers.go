package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/topic-comb/app/database"
)

const maxListLimit = 1000

func NewHandler(postReader database.PostReader, version string) *Handler {
	return &Handler{
		postReader: postReader,
		version:    version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if count, err := h.postReader.GetPostCount(c.Request.Context()); err == nil {
		health["posts"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.postReader.GetPostCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_post_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	topics, err := h.postReader.GetTopicStats(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_topic_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{Posts: count, Topics: topics})
}

func (h *Handler) ListPosts(c *gin.Context) {
	filter := database.PostFilter{Topic: c.Query("topic")}

	var err error
	if filter.MinSentiment, err = parseSentiment(c.Query("min_sentiment")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_sentiment parameter"})
		return
	}
	if filter.MaxSentiment, err = parseSentiment(c.Query("max_sentiment")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_sentiment parameter"})
		return
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		filter.Limit = limit
	}

	posts, err := h.postReader.ListPosts(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_posts", "topic", filter.Topic, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("X-Post-Count", strconv.Itoa(len(posts)))
	c.JSON(http.StatusOK, PostsResponse{Posts: posts, Total: len(posts)})
}

func (h *Handler) GetPost(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	if fingerprint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fingerprint parameter"})
		return
	}

	post, err := h.postReader.GetPost(c.Request.Context(), fingerprint)
	if err != nil {
		slog.Error("Database error", "operation", "get_post", "fingerprint", fingerprint, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, post)
}

func parseSentiment(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
