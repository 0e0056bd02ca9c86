package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/fanout"
	"github.com/sakif/bookfinder/internal/model"
)

// SearchLimit caps each source's contribution to a search.
const SearchLimit = 10

// Source labels used in logs and metrics.
const (
	SourceCatalog = "catalog"
	SourceLocal   = "local"
)

// CatalogSearcher is the part of catalog.Client the search needs.
type CatalogSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Volume, error)
}

// LocalSearcher is the part of the post store the search needs.
type LocalSearcher interface {
	SearchPosts(ctx context.Context, query string, limit int) ([]model.PostMatch, error)
}

// SearchRecorder receives search measurements. metrics.Collector implements it.
type SearchRecorder interface {
	ObserveSearch(elapsed time.Duration)
	ObserveSource(source string, results int, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(time.Duration)      {}
func (nopRecorder) ObserveSource(string, int, error) {}

// SearchService merges catalog volumes and local posts into one result list.
type SearchService struct {
	catalog  CatalogSearcher
	posts    LocalSearcher
	recorder SearchRecorder
	logger   *slog.Logger
}

// NewSearchService creates a SearchService. recorder may be nil.
func NewSearchService(cat CatalogSearcher, posts LocalSearcher, recorder SearchRecorder, logger *slog.Logger) *SearchService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &SearchService{
		catalog:  cat,
		posts:    posts,
		recorder: recorder,
		logger:   logger,
	}
}

// Search queries both sources concurrently and returns local results first,
// then catalog results, each in its source's order.
//
// An empty query returns an empty list without touching either source. A
// failing source contributes nothing; the other source's results are still
// returned. requester is not used.
func (s *SearchService) Search(ctx context.Context, query string, requester auth.Identity) ([]model.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Book{}, nil
	}

	start := time.Now()
	defer func() { s.recorder.ObserveSearch(time.Since(start)) }()

	results := fanout.Join(ctx, s.searchCatalog(query), s.searchLocal(query))
	external := s.partition(SourceCatalog, query, results[0])
	local := s.partition(SourceLocal, query, results[1])

	books := make([]model.Book, 0, len(local)+len(external))
	books = append(books, local...)
	books = append(books, external...)
	return books, nil
}

func (s *SearchService) searchCatalog(query string) fanout.Op[[]model.Book] {
	return func(ctx context.Context) ([]model.Book, error) {
		volumes, err := s.catalog.Search(ctx, query, SearchLimit)
		if err != nil {
			return nil, err
		}
		books := make([]model.Book, 0, len(volumes))
		for _, v := range volumes {
			books = append(books, bookFromVolume(v))
		}
		return books, nil
	}
}

func (s *SearchService) searchLocal(query string) fanout.Op[[]model.Book] {
	return func(ctx context.Context) ([]model.Book, error) {
		matches, err := s.posts.SearchPosts(ctx, query, SearchLimit)
		if err != nil {
			return nil, err
		}
		books := make([]model.Book, 0, len(matches))
		for _, m := range matches {
			books = append(books, bookFromPost(m))
		}
		return books, nil
	}
}

// partition folds a failed lookup into an empty list after logging it.
func (s *SearchService) partition(source, query string, r fanout.Result[[]model.Book]) []model.Book {
	books := r.ValueOr(nil)
	s.recorder.ObserveSource(source, len(books), r.Err)

	if r.Err != nil {
		s.logger.Warn("search source failed",
			slog.String("source", source),
			slog.String("query", query),
			slog.String("error", r.Err.Error()),
		)
	}
	return books
}
