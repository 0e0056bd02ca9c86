package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/model"
)

func TestBookFromVolume(t *testing.T) {
	tests := []struct {
		name string
		in   catalog.VolumeInfo
		want model.Book
	}{
		{
			name: "all fields",
			in: catalog.VolumeInfo{
				Title:       "Good Omens",
				Authors:     []string{"Terry Pratchett", "Neil Gaiman"},
				Description: "The world ends on Saturday.",
				ImageLinks:  catalog.ImageLinks{Thumbnail: "t.jpg", SmallThumbnail: "s.jpg"},
				PreviewLink: "http://preview",
			},
			want: model.Book{
				ID: "v", Title: "Good Omens", Author: "Terry Pratchett, Neil Gaiman",
				Description: "The world ends on Saturday.", Thumbnail: "t.jpg", PreviewLink: "http://preview",
			},
		},
		{
			name: "empty volume gets every default",
			in:   catalog.VolumeInfo{},
			want: model.Book{
				ID: "v", Title: DefaultTitle, Author: DefaultAuthor,
				Description: DefaultDescription, Thumbnail: DefaultThumbnail,
			},
		},
		{
			name: "small thumbnail fallback",
			in:   catalog.VolumeInfo{Title: "T", ImageLinks: catalog.ImageLinks{SmallThumbnail: "s.jpg"}},
			want: model.Book{
				ID: "v", Title: "T", Author: DefaultAuthor,
				Description: DefaultDescription, Thumbnail: "s.jpg",
			},
		},
		{
			name: "blank author entries are dropped",
			in:   catalog.VolumeInfo{Title: "T", Authors: []string{" ", ""}},
			want: model.Book{
				ID: "v", Title: "T", Author: DefaultAuthor,
				Description: DefaultDescription, Thumbnail: DefaultThumbnail,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bookFromVolume(catalog.Volume{ID: "v", VolumeInfo: tt.in})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookFromPost(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	got := bookFromPost(model.PostMatch{
		Post:           model.Post{ID: "abc", Title: "My book", Content: "Body", CreatedAt: created},
		AuthorUsername: "alice",
	})

	assert.Equal(t, "local-abc", got.ID)
	assert.Equal(t, "My book", got.Title)
	assert.Equal(t, "alice", got.Author)
	assert.Equal(t, "Body", got.Description)
	assert.Equal(t, DefaultThumbnail, got.Thumbnail)
	assert.True(t, got.IsLocal)
	assert.Empty(t, got.PreviewLink)
	if assert.NotNil(t, got.CreatedAt) {
		assert.True(t, created.Equal(*got.CreatedAt))
	}
}

func TestBookFromPost_KeepsThumbnail(t *testing.T) {
	got := bookFromPost(model.PostMatch{Post: model.Post{ID: "1", Title: "t", ThumbnailURL: "/uploads/x.png"}})
	assert.Equal(t, "/uploads/x.png", got.Thumbnail)
	assert.Equal(t, DefaultDescription, got.Description)
	assert.Equal(t, DefaultAuthor, got.Author)
}

func TestStubBook(t *testing.T) {
	assert.False(t, stubBook("vol1").IsLocal)
	assert.True(t, stubBook("local-1").IsLocal)
	assert.Equal(t, DefaultTitle, stubBook("vol1").Title)
}
