package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

type CrewMembersHandler struct {
	db *database.DB
}

func NewCrewMembersHandler(db *database.DB) *CrewMembersHandler {
	return &CrewMembersHandler{db: db}
}

// ListCrewMembers returns crew members matching the filters. The table
// requires a filter: with none populated it answers an empty page without
// touching the database.
func (h *CrewMembersHandler) ListCrewMembers(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := database.CrewFilter{Limit: p.PageSize, Offset: p.Offset()}
	filter.ShipName, _ = QueryString(r, "ship_name")
	filter.CrewMemberName, _ = QueryString(r, "crew_member_name")
	filter.RoleName, _ = QueryString(r, "role_name")

	if !filter.Populated() {
		WriteJSON(w, http.StatusOK, ListResponse{Items: []database.CrewMemberAPI{}, Total: 0})
		return
	}

	members, total, err := h.db.ListCrewMembers(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list crew members")
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: members, Total: total})
}

// GetCrewMember returns a single crew member.
func (h *CrewMembersHandler) GetCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	cm, err := h.db.GetCrewMember(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Crew member not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load crew member")
		return
	}
	WriteJSON(w, http.StatusOK, cm)
}

type crewMemberRequest struct {
	Name   string `json:"name"`
	RoleID int    `json:"role_id"`
	ShipID int    `json:"ship_id"`
	TagID  *int   `json:"tag_id"`
}

// CreateCrewMember inserts a crew member and echoes the stored record.
func (h *CrewMembersHandler) CreateCrewMember(w http.ResponseWriter, r *http.Request) {
	var req crewMemberRequest
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" || req.RoleID == 0 || req.ShipID == 0 {
		WriteError(w, http.StatusBadRequest, "Name, role_id and ship_id are required")
		return
	}

	id, err := h.db.CreateCrewMember(r.Context(), req.Name, req.RoleID, req.ShipID, req.TagID)
	if errors.Is(err, database.ErrTagAssigned) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create crew member")
		return
	}

	cm, err := h.db.GetCrewMember(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load crew member")
		return
	}
	WriteJSON(w, http.StatusCreated, cm)
}

// UpdateCrewMember replaces the crew member's fields.
func (h *CrewMembersHandler) UpdateCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req crewMemberRequest
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" || req.RoleID == 0 || req.ShipID == 0 {
		WriteError(w, http.StatusBadRequest, "Name, role_id and ship_id are required")
		return
	}

	err = h.db.UpdateCrewMember(r.Context(), id, req.Name, req.RoleID, req.ShipID, req.TagID)
	if errors.Is(err, database.ErrTagAssigned) {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Crew member not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to update crew member")
		return
	}

	cm, err := h.db.GetCrewMember(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load crew member")
		return
	}
	WriteJSON(w, http.StatusOK, cm)
}

// DeleteCrewMember removes a crew member.
func (h *CrewMembersHandler) DeleteCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.db.DeleteCrewMember(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to delete crew member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers crew member routes on the given router.
func (h *CrewMembersHandler) Routes(r chi.Router) {
	r.Get("/crew-members", h.ListCrewMembers)
	r.Get("/crew-members/{id}", h.GetCrewMember)
	r.Post("/crew-members", h.CreateCrewMember)
	r.Put("/crew-members/{id}", h.UpdateCrewMember)
	r.Delete("/crew-members/{id}", h.DeleteCrewMember)
}
