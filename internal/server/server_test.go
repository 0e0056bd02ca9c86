package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookfinder/internal/config"
	"github.com/sakif/bookfinder/internal/model"
)

// newTestServer builds the full router over an in-memory store and a fake
// catalog served by catalogHandler.
func newTestServer(t *testing.T, catalogHandler http.HandlerFunc) *Server {
	t.Helper()

	books := httptest.NewServer(catalogHandler)
	t.Cleanup(books.Close)

	cfg := &config.Config{
		Env:  "test",
		HTTP: config.HTTPConfig{Port: 0, FrontendURL: "http://localhost:5173"},
		DB:   config.DBConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Auth: config.AuthConfig{JWTSecret: "server-test-secret-0123456789", BcryptCost: 4},
		Catalog: config.CatalogConfig{
			BaseURL: books.URL,
			APIKey:  "test-key",
			Timeout: 2 * time.Second,
		},
	}

	srv, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.store.Close() })
	return srv
}

func catalogWithDune(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(`{"items":[{"id":"vol1","volumeInfo":{"title":"Dune","authors":["Frank Herbert"]}}]}`))
}

func call(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, srv *Server, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "password1"}

	rr := call(t, srv, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, srv, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestScenario_SearchPostsAndOwnership(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)
	alice := login(t, srv, "alice")
	bob := login(t, srv, "bob")

	rr := call(t, srv, http.MethodPost, "/posts", alice, map[string]string{
		"title": "Dune reread", "content": "Thoughts on Arrakis",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		Post model.Post `json:"post"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	rr = call(t, srv, http.MethodGet, "/books?query=dune", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var found struct {
		Books []model.Book `json:"books"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&found))
	require.Len(t, found.Books, 2)
	assert.Equal(t, "local-"+created.Post.ID, found.Books[0].ID)
	assert.Equal(t, "vol1", found.Books[1].ID)
	assert.Equal(t, "Frank Herbert", found.Books[1].Author)

	rr = call(t, srv, http.MethodPut, "/posts/"+created.Post.ID, bob, map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(t, srv, http.MethodPut, "/posts/"+created.Post.ID, "", map[string]string{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestScenario_CatalogDownStillReturnsLocal(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend error", http.StatusServiceUnavailable)
	})
	alice := login(t, srv, "alice")

	rr := call(t, srv, http.MethodPost, "/posts", alice, map[string]string{"title": "Dune", "content": "c"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = call(t, srv, http.MethodGet, "/books?query=dune", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var found struct {
		Books []model.Book `json:"books"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&found))
	require.Len(t, found.Books, 1)
	assert.True(t, found.Books[0].IsLocal)
}

func TestPublicRoutes(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)

	rr := call(t, srv, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "BookFinder API is alive!", rr.Body.String())

	rr = call(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, srv, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":{"message":"Not Found","status":404}}`, rr.Body.String())

	rr = call(t, srv, http.MethodDelete, "/auth/register", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMetricsExposeSearchCounters(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)
	alice := login(t, srv, "alice")

	rr := call(t, srv, http.MethodGet, "/books?query=dune", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, "bookfinder_search_duration_seconds"))
	assert.True(t, strings.Contains(body, `bookfinder_search_source_results_total{source="catalog"} 1`))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := &config.Config{
		DB:   config.DBConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Auth: config.AuthConfig{JWTSecret: "short"},
	}

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)
	srv.config.HTTP.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPanicReturnsEnvelopeAndIsCounted(t *testing.T) {
	srv := newTestServer(t, catalogWithDune)
	srv.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	rr := call(t, srv, http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"message":"internal error","status":500}}`, rr.Body.String())

	rr = call(t, srv, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `bookfinder_http_requests_total{method="GET",status_code="500"} 1`)
}
