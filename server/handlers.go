package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yakdar/formhub/site"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryParam returns q exactly as sent. Whitespace is significant for matching.
func queryParam(r *http.Request) string {
	return r.URL.Query().Get("q")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html, err := s.svc.RenderPage(r.Context(), queryParam(r))
	if err != nil {
		s.logger.Error("render page", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, http.StatusOK, html)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	html, err := s.svc.RenderResults(r.Context(), queryParam(r))
	if err != nil {
		s.logger.Error("render results", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, http.StatusOK, html)
}

func (s *Server) handleForms(w http.ResponseWriter, r *http.Request) {
	payload, err := s.svc.CatalogJSON(queryParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sum := sha256.Sum256(append([]byte(s.svc.Catalog().Digest()), payload...))
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	w.Header().Set("ETag", etag)
	if matchesETag(r, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	logo, err := s.svc.Logo()
	if err != nil || chi.URLParam(r, "asset") != logo.Name {
		if err != nil && !errors.Is(err, site.ErrNoLogo) {
			s.logger.Warn("logo", "error", err)
		}
		s.handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", logo.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, logo.Name, logo.ModTime, bytes.NewReader(logo.Data))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	page, err := s.svc.RenderNotFoundPage(r.Context(), r.URL.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, http.StatusNotFound, page)
}

func matchesETag(r *http.Request, etag string) bool {
	if etag == "" || r == nil {
		return false
	}
	raw := r.Header.Get("If-None-Match")
	if strings.TrimSpace(raw) == "" {
		return false
	}
	for _, candidate := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "*" || trimmed == etag {
			return true
		}
	}
	return false
}
