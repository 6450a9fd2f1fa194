package api

import (
	"github.com/lysyi3m/topic-comb/app/database"
)

type Handler struct {
	postReader database.PostReader
	version    string
}

type StatsResponse struct {
	Posts  int                   `json:"posts"`
	Topics []database.TopicStats `json:"topics"`
}

type PostsResponse struct {
	Posts []database.Post `json:"posts"`
	Total int             `json:"total"`
}
