package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/xuri/excelize/v2"

	"github.com/fredneedsausername/gatekeeper/internal/database"
)

// ExportHandler produces spreadsheets of the currently filtered result set.
// Exports reuse the list filters with the bulk page size and are generated
// per-request; nothing is written to disk.
type ExportHandler struct {
	db *database.DB
}

func NewExportHandler(db *database.DB) *ExportHandler {
	return &ExportHandler{db: db}
}

var logExportHeader = []any{"Cantiere", "Tag", "Battery%", "Barca", "Crew", "Role", "Entry", "Leave"}
var entryExportHeader = []any{"Cantiere", "Tag", "Battery%", "Passaggio", "Tipologia"}

const exportTimeLayout = "02/01/2006 15:04:05"

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportTimeLayout)
}

// ExportLogs writes the filtered permanence logs as an .xlsx workbook.
func (h *ExportHandler) ExportLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := logFilterFromRequest(r, exportPageSize, 0)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, _, err := h.db.ListLogs(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load logs for export")
		return
	}

	rows := make([][]any, 0, len(logs))
	for _, l := range logs {
		var tagName string
		var battery any
		if l.CrewMember.Tag != nil {
			tagName = l.CrewMember.Tag.Name
			battery = l.CrewMember.Tag.RemainingBattery
		}
		var shipName, roleName string
		if l.CrewMember.Ship != nil {
			shipName = l.CrewMember.Ship.Name
		}
		if l.CrewMember.Role != nil {
			roleName = l.CrewMember.Role.RoleName
		}
		rows = append(rows, []any{
			l.Shipyard.Name, tagName, battery, shipName,
			l.CrewMember.Name, roleName,
			formatExportTime(l.EntryTimestamp), formatExportTime(l.LeaveTimestamp),
		})
	}

	h.writeWorkbook(w, r, "permanence_logs", logExportHeader, rows)
}

// ExportEntries writes the filtered unassigned tag entries as an .xlsx workbook.
func (h *ExportHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := entryFilterFromRequest(r, exportPageSize, 0)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, _, err := h.db.ListEntries(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to load entries for export")
		return
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		kind := "Uscita"
		if e.IsEntering {
			kind = "Entrata"
		}
		ts := e.AdvertisementTimestamp
		rows = append(rows, []any{
			e.Shipyard.Name, e.Tag.Name, e.Tag.RemainingBattery,
			formatExportTime(&ts), kind,
		})
	}

	h.writeWorkbook(w, r, "unassigned_entries", entryExportHeader, rows)
}

// writeWorkbook assembles a single-sheet workbook with a bold header row and
// streams it to the client.
func (h *ExportHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, name string, header []any, rows [][]any) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to build export")
		return
	}
	if styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		f.SetCellStyle(sheet, "A1", endCell, styleID)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to build export")
			return
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to build export")
			return
		}
	}

	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("export stream interrupted")
	}
}

// Routes registers export routes on the given router.
func (h *ExportHandler) Routes(r chi.Router) {
	r.Get("/logs/export", h.ExportLogs)
	r.Get("/entries/export", h.ExportEntries)
}
