// Package server exposes study projections as JSON over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/report"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
)

type projectFunc func(study *trial.Study, params []string) any

var projections = map[report.Projection]projectFunc{
	report.History: func(s *trial.Study, _ []string) any {
		return analytics.OptimizationHistory(s)
	},
	report.Intermediate: func(s *trial.Study, _ []string) any {
		return analytics.IntermediateCurves(s)
	},
	report.Contour: func(s *trial.Study, params []string) any {
		return analytics.ContourData(s, params...)
	},
	report.ParallelCoordinate: func(s *trial.Study, params []string) any {
		return analytics.ParallelCoordinateData(s, params...)
	},
	report.Slice: func(s *trial.Study, params []string) any {
		return analytics.SliceData(s, params...)
	},
}

type Server struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *metrics
	tracer  trace.Tracer
}

func New(store storage.Store, logger *slog.Logger) *Server {
	return &Server{
		store:   store,
		logger:  logger,
		metrics: newMetrics(),
		tracer:  otel.Tracer("github.com/signalnine/studyscope/internal/server"),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	r.Route("/studies", func(r chi.Router) {
		r.Get("/", s.listStudies)
		r.Get("/{study}", s.getStudy)
		r.Get("/{study}/{projection}", s.getProjection)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) listStudies(w http.ResponseWriter, r *http.Request) {
	summaries, err := report.SummarizeAll(r.Context(), s.store)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getStudy(w http.ResponseWriter, r *http.Request) {
	study, err := s.store.Snapshot(r.Context(), chi.URLParam(r, "study"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report.Summarize(study))
}

func (s *Server) getProjection(w http.ResponseWriter, r *http.Request) {
	name := report.Projection(chi.URLParam(r, "projection"))
	project, ok := projections[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown projection %q", name))
		return
	}
	studyName := chi.URLParam(r, "study")
	params := ParseParams(r.URL.Query()["params"])

	ctx, span := s.tracer.Start(r.Context(), "projection."+string(name),
		trace.WithAttributes(
			attribute.String("study", studyName),
			attribute.StringSlice("params", params),
		))
	defer span.End()

	start := time.Now()
	code := http.StatusOK
	defer func() {
		s.metrics.duration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())
		s.metrics.requests.WithLabelValues(string(name), strconv.Itoa(code)).Inc()
	}()

	study, err := s.store.Snapshot(ctx, studyName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		code = s.fail(w, err)
		return
	}
	if unknown := analytics.UnknownParams(study, params); len(unknown) > 0 {
		s.logger.Warn("unknown params requested", "study", studyName, "projection", name, "params", unknown)
	}
	span.SetAttributes(attribute.Int("trials", len(study.Trials)))
	code = s.writeJSON(w, http.StatusOK, project(study, params))
	if code != http.StatusOK {
		span.SetStatus(codes.Error, "encoding response")
	}
}

// ParseParams flattens repeated and comma-separated params values, dropping blanks.
func ParseParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// fail maps a store error to a response and returns the status written.
func (s *Server) fail(w http.ResponseWriter, err error) int {
	if errors.Is(err, storage.ErrStudyNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return http.StatusNotFound
	}
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
	return http.StatusInternalServerError
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// writeJSON encodes v before writing the header and returns the status written.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) int {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		writeError(w, http.StatusInternalServerError, "encoding response")
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
	return status
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
