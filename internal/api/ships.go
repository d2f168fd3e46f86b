package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

type ShipsHandler struct {
	db *database.DB
}

func NewShipsHandler(db *database.DB) *ShipsHandler {
	return &ShipsHandler{db: db}
}

// ListShips returns ships matching the name filter. Ships are a
// requires-a-filter table.
func (h *ShipsHandler) ListShips(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := database.ShipFilter{Limit: p.PageSize, Offset: p.Offset()}
	filter.Name, _ = QueryString(r, "name")

	if !filter.Populated() {
		WriteJSON(w, http.StatusOK, ListResponse{Items: []database.NameRefAPI{}, Total: 0})
		return
	}

	ships, total, err := h.db.ListShips(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list ships")
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: ships, Total: total})
}

// GetShip returns a single ship.
func (h *ShipsHandler) GetShip(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ship, err := h.db.GetShip(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Ship not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load ship")
		return
	}
	WriteJSON(w, http.StatusOK, ship)
}

// CreateShip inserts a ship.
func (h *ShipsHandler) CreateShip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	id, err := h.db.CreateShip(r.Context(), req.Name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create ship")
		return
	}
	WriteJSON(w, http.StatusCreated, database.NameRefAPI{ID: id, Name: req.Name})
}

// UpdateShip renames a ship.
func (h *ShipsHandler) UpdateShip(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(r, &req); err != nil || req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Name is required")
		return
	}

	err = h.db.UpdateShip(r.Context(), id, req.Name)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Ship not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to update ship")
		return
	}
	WriteJSON(w, http.StatusOK, database.NameRefAPI{ID: id, Name: req.Name})
}

// DeleteShip removes a ship.
func (h *ShipsHandler) DeleteShip(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.db.DeleteShip(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to delete ship")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers ship routes on the given router.
func (h *ShipsHandler) Routes(r chi.Router) {
	r.Get("/ships", h.ListShips)
	r.Get("/ships/{id}", h.GetShip)
	r.Post("/ships", h.CreateShip)
	r.Put("/ships/{id}", h.UpdateShip)
	r.Delete("/ships/{id}", h.DeleteShip)
}
