package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/service"
)

// BookHandler serves the merged search.
type BookHandler struct {
	search *service.SearchService
	logger *slog.Logger
}

func NewBookHandler(search *service.SearchService, logger *slog.Logger) *BookHandler {
	return &BookHandler{search: search, logger: logger}
}

// HandleSearch serves GET /books?query=<q>.
//
// RESPONSE: 200 {"books": [...]}, local posts first. A missing or blank
// query yields {"books": []}.
func (h *BookHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	books, err := h.search.Search(r.Context(), query, auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.Book{"books": books})
}
