package service

import (
	"strings"

	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/model"
)

// Fallbacks used when a source leaves a field empty.
const (
	DefaultTitle       = "No title available"
	DefaultAuthor      = "Unknown Author"
	DefaultDescription = "No description available."
	DefaultThumbnail   = "/images/default-post-thumbnail.png"
)

// bookFromVolume maps a catalog volume into the common result shape.
func bookFromVolume(v catalog.Volume) model.Book {
	info := v.VolumeInfo

	authors := make([]string, 0, len(info.Authors))
	for _, a := range info.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	thumbnail := info.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = info.ImageLinks.SmallThumbnail
	}

	return model.Book{
		ID:          v.ID,
		Title:       orDefault(info.Title, DefaultTitle),
		Author:      orDefault(strings.Join(authors, ", "), DefaultAuthor),
		Description: orDefault(info.Description, DefaultDescription),
		Thumbnail:   orDefault(thumbnail, DefaultThumbnail),
		PreviewLink: info.PreviewLink,
		IsLocal:     false,
	}
}

// bookFromPost maps a local post into the common result shape. The id is
// namespaced with model.LocalIDPrefix.
func bookFromPost(p model.PostMatch) model.Book {
	createdAt := p.CreatedAt
	return model.Book{
		ID:          model.LocalIDPrefix + p.ID,
		Title:       orDefault(p.Title, DefaultTitle),
		Author:      orDefault(p.AuthorUsername, DefaultAuthor),
		Description: orDefault(p.Content, DefaultDescription),
		Thumbnail:   orDefault(p.ThumbnailURL, DefaultThumbnail),
		IsLocal:     true,
		CreatedAt:   &createdAt,
	}
}

// stubBook stands in for a favorite whose book can no longer be resolved.
func stubBook(id string) model.Book {
	return model.Book{
		ID:          id,
		Title:       DefaultTitle,
		Author:      DefaultAuthor,
		Description: DefaultDescription,
		Thumbnail:   DefaultThumbnail,
		IsLocal:     strings.HasPrefix(id, model.LocalIDPrefix),
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
