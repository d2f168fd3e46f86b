package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

type LogsHandler struct {
	db *database.DB
}

func NewLogsHandler(db *database.DB) *LogsHandler {
	return &LogsHandler{db: db}
}

func logFilterFromRequest(r *http.Request, limit, offset int) (database.LogFilter, error) {
	start, end, err := QueryTimeWindow(r)
	if err != nil {
		return database.LogFilter{}, err
	}
	filter := database.LogFilter{Start: start, End: end, Limit: limit, Offset: offset}
	filter.ShipyardName, _ = QueryString(r, "shipyard_name")
	filter.ShipName, _ = QueryString(r, "ship_name")
	filter.CrewMemberName, _ = QueryString(r, "crew_member_name")
	return filter, nil
}

// ListLogs returns permanence logs overlapping the window, crew name
// ascending. Without bounds the window is the last 24 hours.
func (h *LogsHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := logFilterFromRequest(r, p.PageSize, p.Offset())
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, total, err := h.db.ListLogs(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	WriteJSON(w, http.StatusOK, ListResponse{Items: logs, Total: total})
}

// GetLog returns a single permanence log.
func (h *LogsHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	l, err := h.db.GetLog(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Log not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load log")
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

type logRequest struct {
	CrewMemberID   int    `json:"crew_member_id"`
	ShipyardID     int    `json:"shipyard_id"`
	EntryTimestamp string `json:"entry_timestamp"`
	LeaveTimestamp string `json:"leave_timestamp"`
}

// timestamps parses the optional entry/leave strings. At least one must be
// present.
func (req logRequest) timestamps() (entry, leave *time.Time, err error) {
	if req.EntryTimestamp != "" {
		t, perr := ParseTimestamp(req.EntryTimestamp)
		if perr != nil {
			return nil, nil, perr
		}
		entry = &t
	}
	if req.LeaveTimestamp != "" {
		t, perr := ParseTimestamp(req.LeaveTimestamp)
		if perr != nil {
			return nil, nil, perr
		}
		leave = &t
	}
	if entry == nil && leave == nil {
		return nil, nil, errors.New("At least one of entry_timestamp or leave_timestamp is required")
	}
	return entry, leave, nil
}

// CreateLog inserts a manual permanence log row.
func (h *LogsHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := DecodeJSON(r, &req); err != nil || req.CrewMemberID == 0 || req.ShipyardID == 0 {
		WriteError(w, http.StatusBadRequest, "crew_member_id and shipyard_id are required")
		return
	}
	entry, leave, err := req.timestamps()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.db.CreateLog(r.Context(), req.CrewMemberID, req.ShipyardID, entry, leave)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create log")
		return
	}

	l, err := h.db.GetLog(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load log")
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

// UpdateLog replaces a log row's crew member and timestamps.
func (h *LogsHandler) UpdateLog(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req logRequest
	if err := DecodeJSON(r, &req); err != nil || req.CrewMemberID == 0 {
		WriteError(w, http.StatusBadRequest, "crew_member_id is required")
		return
	}
	entry, leave, err := req.timestamps()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.db.UpdateLog(r.Context(), id, req.CrewMemberID, entry, leave)
	if errors.Is(err, database.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "Log not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to update log")
		return
	}

	l, err := h.db.GetLog(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load log")
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

// DeleteLog removes a permanence log row.
func (h *LogsHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := PathInt(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.db.DeleteLog(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to delete log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers permanence log routes on the given router.
func (h *LogsHandler) Routes(r chi.Router) {
	r.Get("/logs", h.ListLogs)
	r.Get("/logs/{id}", h.GetLog)
	r.Post("/logs", h.CreateLog)
	r.Put("/logs/{id}", h.UpdateLog)
	r.Delete("/logs/{id}", h.DeleteLog)
}
