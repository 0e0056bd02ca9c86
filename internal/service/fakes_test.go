package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================
//
// fakeStore is an in-memory repository.Store. It is guarded by a mutex
// because search and favorites resolution call it from several goroutines.

type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	posts     map[string]*model.Post
	favorites []model.Favorite
	nextID    int
	clock     time.Time

	// set to simulate a failing database
	searchErr error
	searchHit atomic.Int32
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		posts: make(map[string]*model.Post),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.ID = f.id("user")
	user.CreatedAt = f.tick()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeStore) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[post.AuthorID]; !ok {
		return fmt.Errorf("fake: foreign key violation for author %s", post.AuthorID)
	}
	post.ID = f.id("post")
	post.CreatedAt = f.tick()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *p
	return &result, nil
}

func (f *fakeStore) ListPostsByAuthor(_ context.Context, authorID string) ([]model.PostSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.PostSummary, 0)
	for _, p := range f.sortedPosts() {
		if p.AuthorID == authorID {
			out = append(out, model.PostSummary{
				ID: p.ID, Title: p.Title, AuthorID: p.AuthorID,
				ThumbnailURL: p.ThumbnailURL, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
			})
		}
	}
	return out, nil
}

func (f *fakeStore) UpdatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	post.UpdatedAt = f.tick()
	stored.Title = post.Title
	stored.Content = post.Content
	stored.UpdatedAt = post.UpdatedAt
	return nil
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeStore) PostAuthorID(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return "", apperror.NotFound("post", id)
	}
	return p.AuthorID, nil
}

func (f *fakeStore) SearchPosts(_ context.Context, query string, limit int) ([]model.PostMatch, error) {
	f.searchHit.Add(1)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	out := make([]model.PostMatch, 0)
	for _, p := range f.sortedPosts() {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, model.PostMatch{Post: *p, AuthorUsername: f.users[p.AuthorID].Username})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// sortedPosts returns posts newest update first. Caller holds the lock.
func (f *fakeStore) sortedPosts() []*model.Post {
	out := make([]*model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (f *fakeStore) AddFavorite(_ context.Context, fav *model.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.favorites {
		if existing.UserID == fav.UserID && existing.BookID == fav.BookID {
			return nil
		}
	}
	fav.ID = f.id("fav")
	fav.CreatedAt = f.tick()
	f.favorites = append(f.favorites, *fav)
	return nil
}

func (f *fakeStore) RemoveFavorite(_ context.Context, userID, bookID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.favorites[:0]
	for _, fav := range f.favorites {
		if fav.UserID != userID || fav.BookID != bookID {
			kept = append(kept, fav)
		}
	}
	f.favorites = kept
	return nil
}

func (f *fakeStore) ListFavorites(_ context.Context, userID string) ([]model.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Favorite, 0)
	for _, fav := range f.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

// =========================================================================
// FAKE CATALOG
// =========================================================================

type fakeCatalog struct {
	volumes   []catalog.Volume
	byID      map[string]catalog.Volume
	searchErr error
	panicMsg  string
	calls     atomic.Int32
}

func (c *fakeCatalog) Search(_ context.Context, _ string, limit int) ([]catalog.Volume, error) {
	c.calls.Add(1)
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	if len(c.volumes) > limit {
		return c.volumes[:limit], nil
	}
	return c.volumes, nil
}

func (c *fakeCatalog) Volume(_ context.Context, id string) (*catalog.Volume, error) {
	c.calls.Add(1)
	v, ok := c.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &v, nil
}

// =========================================================================
// FAKE RECORDER
// =========================================================================

type fakeRecorder struct {
	mu       sync.Mutex
	searches int
	sources  map[string]int
	failures map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{sources: map[string]int{}, failures: map[string]int{}}
}

func (r *fakeRecorder) ObserveSearch(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches++
}

func (r *fakeRecorder) ObserveSource(source string, results int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source] += results
	if err != nil {
		r.failures[source]++
	}
}

// =========================================================================
// HELPERS
// =========================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser inserts a user directly and returns it.
func seedUser(store *fakeStore, username string) *model.User {
	u := &model.User{Username: username, PasswordHash: "x"}
	if err := store.CreateUser(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func seedPost(store *fakeStore, authorID, title, content string) *model.Post {
	p := &model.Post{Title: title, Content: content, AuthorID: authorID}
	if err := store.CreatePost(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}
