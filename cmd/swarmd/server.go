package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/advcomp/expertswarm/handler"
	"github.com/advcomp/expertswarm/logging"
)

// maxBodyBytes caps an invocation body. Queries are short; anything larger
// is a misdirected upload.
const maxBodyBytes = 1 << 20

// server exposes the invocation handler over HTTP.
type server struct {
	handler *handler.Handler
	router  *mux.Router
	logger  logging.Logger
}

func newServer(h *handler.Handler, logger logging.Logger) *server {
	s := &server{
		handler: h,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)

	s.router.HandleFunc("/invocations", s.handleInvocations).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	return s
}

// Handler returns the root HTTP handler.
func (s *server) Handler() http.Handler { return s.router }

// handleInvocations passes the raw body to the invocation handler. The
// envelope always goes out with HTTP 200; errors ride in its status field.
func (s *server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Warn("server.body.read_failed", "error", err.Error())
		s.writeJSON(w, handler.Response{Response: "Error: could not read request body", Status: "error"})
		return
	}

	resp := s.handler.Handle(r.Context(), json.RawMessage(body))
	s.writeJSON(w, resp)
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("server.response.write_failed", "error", err.Error())
	}
}
