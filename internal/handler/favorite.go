package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/service"
)

// FavoriteHandler serves /users/{username}/favorites.
type FavoriteHandler struct {
	favorites *service.FavoriteService
	logger    *slog.Logger
}

func NewFavoriteHandler(favorites *service.FavoriteService, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

type favoriteAdded struct {
	Username string `json:"username"`
	BookID   string `json:"bookId"`
}

// HandleAdd serves POST /users/{username}/favorites/{bookId}.
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	bookID := chi.URLParam(r, "bookId")

	if err := h.favorites.Add(r.Context(), username, bookID, auth.IdentityFromContext(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]favoriteAdded{
		"added": {Username: username, BookID: bookID},
	})
}

// HandleRemove serves DELETE /users/{username}/favorites/{bookId}.
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	bookID := chi.URLParam(r, "bookId")

	if err := h.favorites.Remove(r.Context(), username, bookID, auth.IdentityFromContext(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from favorites"})
}

// HandleList serves GET /users/{username}/favorites.
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	books, err := h.favorites.List(r.Context(), chi.URLParam(r, "username"), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.Book{"favorites": books})
}
