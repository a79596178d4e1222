package web

import (
	"net/http"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/JonMunkholm/glee/internal/logging"
	"github.com/go-chi/chi/v5"
)

// handleDownloadTemplate sends the starter file of a kind: the canonical
// header and one sample row, as CSV or (?format=xlsx) a workbook.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	header, rows := core.TemplateRows(def)
	if err := writeTable(w, r, def.Info.Key+"_template", header, rows); err != nil {
		// headers are already sent
		logging.FromContext(r.Context()).Error("write template", "kind", def.Info.Key, "error", err)
	}
}
