package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

type TagsHandler struct {
	db *database.DB
}

func NewTagsHandler(db *database.DB) *TagsHandler {
	return &TagsHandler{db: db}
}

// ListTags returns tags by battery ascending. At least one of assigned or
// vacant must be requested; with both off the result is empty.
func (h *TagsHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := database.TagFilter{
		Assigned: QueryBool(r, "assigned"),
		Vacant:   QueryBool(r, "vacant"),
		Limit:    p.PageSize,
		Offset:   p.Offset(),
	}
	if !filter.Assigned && !filter.Vacant {
		WriteJSON(w, http.StatusOK, ListResponse{Items: []database.TagAPI{}, Total: 0})
		return
	}

	tags, total, err := h.db.ListTags(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: tags, Total: total})
}

// GetTag returns a single tag with its crew assignment.
func (h *TagsHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tag, err := h.db.GetTag(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Tag not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	WriteJSON(w, http.StatusOK, tag)
}

type tagRequest struct {
	Name         string `json:"name"`
	MACAddress   string `json:"mac_address"`
	CrewMemberID *int   `json:"crew_member_id"`
}

// CreateTag provisions a tag, optionally assigning it to a crew member.
func (h *TagsHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" || req.MACAddress == "" {
		WriteError(w, http.StatusBadRequest, "Name and mac_address are required")
		return
	}

	id, err := h.db.CreateTag(r.Context(), req.Name, req.MACAddress, req.CrewMemberID)
	if errors.Is(err, database.ErrTagAssigned) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}

	tag, err := h.db.GetTag(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	WriteJSON(w, http.StatusCreated, tag)
}

// UpdateTag renames a tag and moves its assignment.
func (h *TagsHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req tagRequest
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	err = h.db.UpdateTag(r.Context(), id, req.Name, req.CrewMemberID)
	if errors.Is(err, database.ErrTagAssigned) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Tag not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}

	tag, err := h.db.GetTag(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load tag")
		return
	}
	WriteJSON(w, http.StatusOK, tag)
}

// DeleteTag removes a tag; any crew assignment is cleared by the FK.
func (h *TagsHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.db.DeleteTag(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers tag routes on the given router.
func (h *TagsHandler) Routes(r chi.Router) {
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{id}", h.GetTag)
	r.Post("/tags", h.CreateTag)
	r.Put("/tags/{id}", h.UpdateTag)
	r.Delete("/tags/{id}", h.DeleteTag)
}
