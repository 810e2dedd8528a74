package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/metalcon/newswidget/internal/composer"
	"github.com/metalcon/newswidget/internal/config"
	"github.com/metalcon/newswidget/internal/domain"
	"github.com/metalcon/newswidget/internal/render"
)

const (
	submitPath   = "/status-updates"
	streamPath   = "/stream"
	maxFormBytes = 1 << 20
)

// Submitter handles one composer submission.
type Submitter interface {
	Submit(ctx context.Context, sub composer.Submission) (*composer.Outcome, error)
}

// Server is the HTTP server that serves the composer and accepts its
// submissions.
type Server struct {
	cfg        *config.Config
	submitter  Submitter
	limiter    *limiterPool
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a new HTTP server. stream serves the websocket results
// stream and gatherer backs /metrics.
func NewServer(
	cfg *config.Config,
	submitter Submitter,
	stream http.Handler,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:       cfg,
		submitter: submitter,
		limiter:   newLimiterPool(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /composer", s.handleComposer)
	mux.HandleFunc("POST "+submitPath, s.handleSubmit)
	mux.Handle("GET "+streamPath, stream)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /health", s.handleHealth)

	s.handler = withLogging(logger, mux)
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.handler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the routed handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := render.Page(render.PageOptions{
		Title:      s.cfg.Widget.Title,
		SubmitPath: submitPath,
		StreamPath: streamPath,
	})
	if err != nil {
		s.logger.Error("failed to render page", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "failed to render page")
		return
	}
	writeHTML(w, http.StatusOK, page)
}

func (s *Server) handleComposer(w http.ResponseWriter, _ *http.Request) {
	writeHTML(w, http.StatusOK, string(render.Composer()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(r) {
		s.logger.Warn("submission rate limited", "remote", r.RemoteAddr)
		writeError(w, http.StatusTooManyRequests, "RateLimited", "too many submissions")
		return
	}

	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.Warn("invalid submission form", "error", err)
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid form")
		return
	}

	preview, err := previewFromForm(r)
	if err != nil {
		s.logger.Warn("invalid link preview", "error", err)
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid link preview")
		return
	}

	// The create call runs to completion even if the page goes away; the
	// client timeout still bounds it.
	outcome, err := s.submitter.Submit(context.WithoutCancel(r.Context()), composer.Submission{
		Text:    r.FormValue(domain.FieldMessage),
		Preview: preview,
		Session: r.FormValue("session"),
	})
	switch {
	case errors.Is(err, composer.ErrEmptyMessage):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, composer.ErrInFlight):
		writeError(w, http.StatusConflict, "InFlight", "a submission is already in flight")
		return
	case err != nil:
		s.logger.Error("submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "InternalError", "submission failed")
		return
	}

	w.Header().Set("X-Status-Update-Confirmed", fmt.Sprint(outcome.Confirmed))
	if outcome.Confirmed {
		w.Header().Set("X-Status-Update-Id", outcome.Entry.ID)
	}
	writeHTML(w, http.StatusOK, string(outcome.HTML))
}

// previewFromForm reads the link preview either from explicit fields or
// from the posted markup of the composer's preview panel.
func previewFromForm(r *http.Request) (*domain.LinkPreview, error) {
	p := &domain.LinkPreview{
		Title:       r.FormValue("preview_title"),
		Description: r.FormValue("preview_description"),
		URL:         r.FormValue("preview_url"),
		Video:       r.FormValue("preview_video"),
		Image:       r.FormValue("preview_image"),
	}
	if p.HasDescription() {
		return p, nil
	}
	if panel := r.FormValue("liveurl"); strings.TrimSpace(panel) != "" {
		return render.ExtractPreview(panel)
	}
	return nil, nil
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack hands the connection over to the websocket upgrader.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}
