package model

import "time"

// Post is a locally authored entry that shows up in book search results.
// AuthorID always references an existing user.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"authorId"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PostSummary is the list view of a Post (GET /posts), without the content.
type PostSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AuthorID     string    `json:"authorId"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PostMatch is a post returned by a local search, joined with its author's
// username.
type PostMatch struct {
	Post
	AuthorUsername string
}
