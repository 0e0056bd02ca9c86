package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/service"
)

// PostHandler serves CRUD for the requester's posts. Every route sits
// behind auth.RequireAuth, so the identity is always present here.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type createPostRequest struct {
	Title        string `json:"title"`
	Content      string `json:"content"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type updatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// HandleList serves GET /posts: the requester's own posts.
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())

	posts, err := h.posts.ListByAuthor(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.PostSummary{"posts": posts})
}

// HandleGet serves GET /posts/{id}.
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.Post{"post": post})
}

// HandleCreate serves POST /posts.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	id := auth.IdentityFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), id.UserID, req.Title, req.Content, req.ThumbnailURL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]*model.Post{"post": post})
}

// HandleUpdate serves PUT /posts/{id}. Only the author may update.
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.Update(r.Context(), chi.URLParam(r, "id"),
		auth.IdentityFromContext(r.Context()), req.Title, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.Post{"post": post})
}

// HandleDelete serves DELETE /posts/{id}.
//
// RESPONSE: 200 {"deleted": "<id>"}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	if err := h.posts.Delete(r.Context(), postID, auth.IdentityFromContext(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": postID})
}
