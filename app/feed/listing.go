package feed

import (
	"encoding/json"
	"fmt"
)

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	URL        string  `json:"url"`
}

// ParseListing decodes a top-of-window listing body into items tagged with
// topic, in the order the upstream returned them.
func ParseListing(topic string, data []byte) ([]RawItem, error) {
	var listing listingResponse
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	items := make([]RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		items = append(items, RawItem{
			Topic:     topic,
			Title:     post.Title,
			Score:     post.Score,
			CreatedAt: int64(post.CreatedUTC),
			URL:       post.URL,
		})
	}

	return items, nil
}
