package model

import "time"

// LocalIDPrefix namespaces post ids inside search results so they cannot
// collide with catalog volume ids.
const LocalIDPrefix = "local-"

// Book is one search result. It is a tagged union: IsLocal is the explicit
// discriminant and is always serialized.
//
//	IsLocal == true  → built from a Post; CreatedAt is set, PreviewLink is empty
//	IsLocal == false → built from a catalog volume; CreatedAt is nil
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	PreviewLink string     `json:"previewLink,omitempty"`
	IsLocal     bool       `json:"isLocal"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}
