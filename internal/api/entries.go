package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

type EntriesHandler struct {
	db *database.DB
}

func NewEntriesHandler(db *database.DB) *EntriesHandler {
	return &EntriesHandler{db: db}
}

func entryFilterFromRequest(r *http.Request, limit, offset int) (database.EntryFilter, error) {
	start, end, err := QueryTimeWindow(r)
	if err != nil {
		return database.EntryFilter{}, err
	}
	filter := database.EntryFilter{Start: start, End: end, Limit: limit, Offset: offset}
	filter.ShipyardName, _ = QueryString(r, "shipyard_name")
	filter.TagName, _ = QueryString(r, "tag_name")
	return filter, nil
}

// ListEntries returns unassigned tag crossings in the window, most recent
// first. Without bounds the window is the last 24 hours.
func (h *EntriesHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := entryFilterFromRequest(r, p.PageSize, p.Offset())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, total, err := h.db.ListEntries(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: entries, Total: total})
}

// DeleteEntry removes a single unassigned tag entry.
func (h *EntriesHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.db.DeleteEntry(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers entry routes on the given router.
func (h *EntriesHandler) Routes(r chi.Router) {
	r.Get("/entries", h.ListEntries)
	r.Delete("/entries/{id}", h.DeleteEntry)
}
