// Package server exposes the ingestion triggers and run history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/models"
	"github.com/rahulcharvekar/reconciliation-service/internal/store"
)

// Service is the part of ingest.Service the handlers use.
type Service interface {
	PollMT940(ctx context.Context) (ingest.PollReport, error)
	PollVAN(ctx context.Context) (ingest.PollReport, error)
	RecentRuns(ctx context.Context, limit int) ([]models.ImportRun, error)
	RunErrors(ctx context.Context, runID int64) ([]models.ImportError, error)
}

// TriggerResponse is the body returned by the ingest triggers.
type TriggerResponse struct {
	Message string             `json:"message"`
	Report  *ingest.PollReport `json:"report,omitempty"`
	Error   string             `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options configure the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the API.
type Server struct {
	svc    Service
	logger logging.Logger
	http   *http.Server
}

// New builds a server for svc. Triggers run the poll synchronously, so
// WriteTimeout must cover one complete poll.
func New(svc Service, logger logging.Logger, opts Options) *Server {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &Server{svc: svc, logger: logger.WithField(logging.FieldComponent, "http")}
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Router(),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/mt940/ingest", s.trigger("MT940", s.svc.PollMT940)).Methods(http.MethodPost)
	api.HandleFunc("/van/ingest", s.trigger("VAN", s.svc.PollVAN)).Methods(http.MethodPost)
	api.HandleFunc("/runs", s.listRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id:[0-9]+}/errors", s.listRunErrors).Methods(http.MethodGet)
	r.Use(s.logRequests)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully,
// letting in-flight polls finish within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.F("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) trigger(format string, poll func(context.Context) (ingest.PollReport, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A client that disconnects must not abort a poll midway through a file.
		report, err := poll(context.WithoutCancel(r.Context()))
		if err != nil {
			s.logger.WithError(err).Error("Triggered poll failed", logging.F(logging.FieldFormat, format))
			writeJSON(w, http.StatusInternalServerError, TriggerResponse{
				Message: format + " ingestion failed",
				Error:   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, TriggerResponse{Message: format + " ingestion triggered", Report: &report})
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.svc.RecentRuns(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Listing runs failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []models.ImportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) listRunErrors(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid run id"})
		return
	}
	errs, err := s.svc.RunErrors(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("Listing run errors failed", logging.F(logging.FieldRunID, id))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if errs == nil {
		errs = []models.ImportError{}
	}
	writeJSON(w, http.StatusOK, errs)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F(logging.FieldStatus, rec.status),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
