package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

// CatalogHandler serves the small unfiltered reference lists the UI uses to
// populate dropdowns: roles, shipyards, activator beacons.
type CatalogHandler struct {
	db *database.DB
}

func NewCatalogHandler(db *database.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func (h *CatalogHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.db.ListRoles(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	WriteJSON(w, http.StatusOK, roles)
}

func (h *CatalogHandler) ListShipyards(w http.ResponseWriter, r *http.Request) {
	yards, err := h.db.ListShipyards(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list shipyards")
		return
	}
	WriteJSON(w, http.StatusOK, yards)
}

func (h *CatalogHandler) ListBeacons(w http.ResponseWriter, r *http.Request) {
	beacons, err := h.db.ListBeacons(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list activator beacons")
		return
	}
	WriteJSON(w, http.StatusOK, beacons)
}

// Routes registers catalog routes on the given router.
func (h *CatalogHandler) Routes(r chi.Router) {
	r.Get("/roles", h.ListRoles)
	r.Get("/shipyards", h.ListShipyards)
	r.Get("/activator-beacons", h.ListBeacons)
}
