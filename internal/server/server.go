package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/common"
	"github.com/jarnaud/docfields/internal/engine"
)

// Server exposes the extraction engine over HTTP. It holds no state beyond
// the engine handle; every request is one independent engine invocation.
type Server struct {
	eng    *engine.Engine
	cfg    common.ServerConfig
	logger *slog.Logger
}

func New(eng *engine.Engine, cfg common.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{eng: eng, cfg: cfg, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/extract", s.handleExtract)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract reads the document from the request body (raw bytes or the
// "document" part of a multipart form) and runs one extraction. Hints come
// from query parameters: ?filename=...&module=invoice|expense|tender|table.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.readDocument(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(data) == 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty document"})
		return
	}
	if q := r.URL.Query().Get("filename"); q != "" {
		filename = q
	}
	module, _ := constants.ParseModule(r.URL.Query().Get("module"))

	res := s.eng.Extract(r.Context(), engine.Request{Bytes: data, Filename: filename, Module: module})
	s.logger.Info("extraction served",
		"run_id", res.RunID, "module", string(module),
		"bytes", len(data), "confidence", res.Confidence, "totals_ok", res.TotalsOK)
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) readDocument(r *http.Request) ([]byte, string, error) {
	body := http.MaxBytesReader(nil, r.Body, s.cfg.MaxBodyBytes)
	ct := r.Header.Get("Content-Type")
	if len(ct) >= len("multipart/") && ct[:len("multipart/")] == "multipart/" {
		if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
			return nil, "", common.WrapError(err, "parse multipart form")
		}
		file, header, err := r.FormFile("document")
		if err != nil {
			return nil, "", common.WrapError(err, "read document part")
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				s.logger.Warn("close multipart file", "error", cerr)
			}
		}()
		data, err := io.ReadAll(file)
		return data, header.Filename, common.WrapError(err, "read document part")
	}
	data, err := io.ReadAll(body)
	return data, "", common.WrapError(err, "read body")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
