package web

import (
	"net/http"

	"github.com/JonMunkholm/glee/internal/core"
)

type healthResponse struct {
	Status  string                   `json:"status"`
	Kinds   int                      `json:"kinds"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Kinds:   core.TableCount(),
		Uploads: s.service.UploadStatus(),
	})
}

type kindResponse struct {
	core.TableInfo
	Mode    string   `json:"mode"`
	Headers []string `json:"headers"`
}

// handleListKinds returns every registered import kind with its headers.
func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	kinds := make([]kindResponse, 0, len(defs))
	for _, def := range defs {
		kinds = append(kinds, kindResponse{
			TableInfo: def.Info,
			Mode:      def.Mode.String(),
			Headers:   def.Schema.Headers(),
		})
	}
	writeJSON(w, http.StatusOK, kinds)
}
