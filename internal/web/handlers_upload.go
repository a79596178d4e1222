package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/glee/internal/core"
	"github.com/JonMunkholm/glee/internal/logging"
	"github.com/go-chi/chi/v5"
)

const (
	// multipartOverhead is allowed on top of the file size limit for the
	// multipart envelope.
	multipartOverhead = 1 << 20
	// maxMemory is how much of a multipart form is buffered in memory
	// before spilling to temp files.
	maxMemory = 32 << 20
)

// handleImport validates an uploaded file and opens a session for it.
// The file is sent as multipart field "file".
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	kind := chi.URLParam(r, "kind")
	if _, err := core.Lookup(kind); err != nil {
		s.respondError(w, r, err)
		return
	}

	if limit := s.cfg.Upload.MaxFileSize; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.ErrFileTooLarge)
			return
		}
		s.respondError(w, r, errNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	sess, err := s.service.StartImport(ctx, actor, kind, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleConfirm moves a validated session to confirm. It fails with 409
// while any row carries an error.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.service.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleCommit writes a confirmed session. The response carries the commit
// result; the session is back in the upload phase.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	sess, err := s.service.Commit(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	sess, err := s.service.Reset(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleDownloadLog sends the audit log of the session's last commit:
// one line per record that was skipped or failed.
func (s *Server) handleDownloadLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, def, err := s.service.LastResult(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	header, rows := core.LogRows(def.KeyLabel(), res)
	if err := writeTable(w, r, def.Info.Key+"_import_log", header, rows); err != nil {
		logging.FromContext(r.Context()).Error("write import log", "session_id", id, "error", err)
	}
}
