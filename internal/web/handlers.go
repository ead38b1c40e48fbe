package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tableview/internal/core"
	"github.com/JonMunkholm/tableview/internal/logging"
	"github.com/JonMunkholm/tableview/internal/web/views"
	"github.com/go-chi/chi/v5"
)

// tableListing is one entry of GET /api/tables.
type tableListing struct {
	core.TableInfo
	Endpoint string            `json:"endpoint"`
	Types    map[string]string `json:"types"`
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, map[string]interface{}{
		"status":  "ok",
		"tables":  len(core.Tables()),
		"exports": s.exports.Status(),
	})
}

// handleIndex renders the list of tables.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	views.Layout("Tables", views.TableList(s.service.ListTables())).Render(r.Context(), w)
}

// handleListTables returns all registered tables with their column types.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	defs := core.Tables()
	listing := make([]tableListing, len(defs))
	for i, def := range defs {
		listing[i] = tableListing{
			TableInfo: def.Info,
			Endpoint:  def.Info.Endpoint(),
			Types:     def.TypeNames(),
		}
	}
	s.respondJSON(w, r, listing)
}

// handleTableData serves one page of a table as JSON, or the whole filtered
// table as CSV when export=csv.
func (s *Server) handleTableData(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "tableKey")

	def, err := core.Lookup(tableKey)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := core.ParseTableQuery(def, r.URL.Query(), s.limits)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("export"), "csv") {
		s.exportCSV(w, r, tableKey, q)
		return
	}

	ctx := r.Context()
	if s.cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Server.RequestTimeout)
		defer cancel()
	}

	result, err := s.service.GetTableData(ctx, tableKey, q)
	s.metrics.RecordTableRead(tableKey, err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, result)
}

// exportCSV streams the filtered table. Errors before the first byte get a
// normal error response; later errors abort the connection so the client
// sees a truncated download rather than a silently short file.
func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request, tableKey string, q core.TableQuery) {
	logger := logging.FromContext(r.Context()).With("table", tableKey)

	if s.exportRate != nil && !s.exportRate.allow(clientIP(r)) {
		w.Header().Set("Retry-After", "60")
		respondErrorJSON(w, core.MapError(errRateLimited), http.StatusTooManyRequests)
		return
	}

	release, err := s.exports.Acquire(r.Context(), tableKey)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	filename := fmt.Sprintf("%s_%s.csv", tableKey, s.now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := &countingWriter{w: w, rc: http.NewResponseController(w)}
	rows, err := s.service.ExportCSV(r.Context(), tableKey, q, cw)
	s.metrics.RecordExport(tableKey, rows, err)
	if err == nil {
		return
	}

	if cw.n == 0 {
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, err)
		return
	}

	logger.Error("export aborted mid-stream", "rows", rows, "bytes", cw.n, "error", err)
	panic(http.ErrAbortHandler)
}

// countingWriter tracks bytes written and flushes after each write so
// exports reach the client as they are produced.
type countingWriter struct {
	w  io.Writer
	rc *http.ResponseController
	n  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if err == nil {
		c.rc.Flush()
	}
	return n, err
}

// handleTableView renders the table data view page.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	tableKey := chi.URLParam(r, "tableKey")

	def, err := core.Lookup(tableKey)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := core.ParseTableQuery(def, r.URL.Query(), s.limits)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.GetTableData(r.Context(), tableKey, q)
	s.metrics.RecordTableRead(tableKey, err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	types := def.ColumnTypes()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := views.TablePage(def.Info, types, result, r.URL.Query())
	if err := views.Layout(def.Info.Label, page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render table page", "table", tableKey, "error", err)
	}
}
