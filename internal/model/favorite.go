package model

import "time"

// Favorite links a user to a book. BookID is either a catalog volume id or
// a local id of the form "local-<postID>".
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BookID    string    `json:"bookId"`
	CreatedAt time.Time `json:"createdAt"`
}
