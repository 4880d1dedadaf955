package portal

import (
	"bytes"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/export"
	"nexus/cmd/internal/observability"
)

func (h *Handler) adminEnsureSchema(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "schema", h.store.EnsureSchema, "Database tables are ready.")
}

func (h *Handler) adminClear(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "clear", h.store.ClearAll, "All rows were deleted.")
}

func (h *Handler) adminDrop(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "drop", h.store.DropAll, "All tables were dropped.")
}

func (h *Handler) adminOp(w http.ResponseWriter, r *http.Request, name string, op func(context.Context) error, done string) {
	p := principal(r)
	if err := op(r.Context()); err != nil {
		if identity.IsNotFound(err) {
			h.flash(w, r, session.FlashError, "The tables do not exist. Create the schema first.")
			h.redirect(w, r, dashboardPath(identity.RoleAdmin))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.log.Info("admin.op", "op", name, "admin", p.ID)
	h.flash(w, r, session.FlashSuccess, done)
	h.redirect(w, r, dashboardPath(identity.RoleAdmin))
}

type rowsResponse struct {
	Tables []string     `json:"tables"`
	Table  export.Sheet `json:"table"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) adminRows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tables, err := h.store.Tables(ctx)
	if err != nil {
		h.jsonFail(w, r, err)
		return
	}

	sheet, err := export.Table(ctx, h.store, chi.URLParam(r, "table"))
	if err != nil {
		h.jsonFail(w, r, err)
		return
	}
	if sheet.Rows == nil {
		sheet.Rows = [][]string{}
	}
	writeJSON(w, http.StatusOK, rowsResponse{Tables: tables, Table: sheet})
}

func (h *Handler) adminExport(w http.ResponseWriter, r *http.Request) {
	// buffered so a failure can still become a redirect or error page
	var buf bytes.Buffer
	if err := export.WriteRoster(r.Context(), h.store, &buf); err != nil {
		if identity.IsNotFound(err) {
			h.flash(w, r, session.FlashError, "The tables do not exist. Create the schema first.")
			h.redirect(w, r, dashboardPath(identity.RoleAdmin))
			return
		}
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now())+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn("admin.export.write_failed", "err", err)
	}
}

func (h *Handler) jsonFail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case identity.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "table not found"})
	case identity.IsUnavailable(err):
		h.log.Error("admin.rows.failed", "err", err)
		observability.CaptureRequestErr(r, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
	default:
		h.log.Error("admin.rows.failed", "err", err)
		observability.CaptureRequestErr(r, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
