// Package server exposes the scoring pipeline over HTTP for callers that
// post survey batches instead of running the CLI.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JemmyKuria/Vaccine-Project/internal/classifier"
	"github.com/JemmyKuria/Vaccine-Project/internal/dataset"
	"github.com/JemmyKuria/Vaccine-Project/internal/pipeline"
	"github.com/JemmyKuria/Vaccine-Project/internal/render"
	"github.com/JemmyKuria/Vaccine-Project/internal/report"
	"github.com/JemmyKuria/Vaccine-Project/internal/runlog"
	"github.com/JemmyKuria/Vaccine-Project/internal/survey"
	"github.com/JemmyKuria/Vaccine-Project/internal/validate"
)

// maxBodyBytes caps uploaded batches. The full survey extract is ~6 MB, so
// this leaves generous headroom without letting a stray upload exhaust RAM.
const maxBodyBytes = 64 << 20

// Options configures a Server beyond its model.
type Options struct {
	Threshold float64
	// Timeout bounds the transform and scoring of one posted batch.
	Timeout time.Duration
	// History records completed runs when non-nil.
	History *runlog.Store
	Log     *zap.Logger
}

// Server scores posted batches with a fixed model.
type Server struct {
	model     classifier.Classifier
	engineer  *pipeline.Engineer
	threshold float64
	timeout   time.Duration
	history   *runlog.Store
	log       *zap.Logger
}

// New builds a Server. Zero Options fields fall back to sane values.
func New(model classifier.Classifier, opts Options) *Server {
	if opts.Threshold == 0 {
		opts.Threshold = classifier.DefaultThreshold
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Server{
		model:     model,
		engineer:  pipeline.New(opts.Log),
		threshold: opts.Threshold,
		timeout:   opts.Timeout,
		history:   opts.History,
		log:       opts.Log,
	}
}

// Router returns the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/schema", s.handleSchema)
	r.Post("/v1/predictions", s.handlePredictions)
	r.Get("/v1/runs", s.handleRuns)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSchema tells integrators what to send and what comes back.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"required_columns":  survey.RequiredColumns,
		"expected_features": survey.ExpectedFeatures,
		"model":             s.model.Describe(),
		"threshold":         s.threshold,
	})
}

// handlePredictions scores one CSV batch posted as the request body and
// responds with the full report envelope, annotated rows included.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading request body: %v", err)
		return
	}
	if len(body) > maxBodyBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "batch exceeds %d bytes", maxBodyBytes)
		return
	}

	table, err := dataset.Parse(bytes.NewReader(body))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "parsing batch: %v", err)
		return
	}
	if err := validate.Required(table); err != nil {
		s.writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.engineer.Transform(table)
	if err != nil {
		if isDataError(err) {
			s.writeError(w, http.StatusBadRequest, "%v", err)
		} else {
			s.writeError(w, http.StatusInternalServerError, "transforming batch: %v", err)
		}
		return
	}

	h1n1, seasonal, err := s.model.PredictProba(ctx, res.Features)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "scoring batch: %v", err)
		return
	}

	sum := sha256.Sum256(body)
	ds := &dataset.Dataset{Hash: fmt.Sprintf("sha256:%x", sum), Table: table}
	rep, err := report.Build(ds, res, h1n1, seasonal, s.model.Describe(), s.threshold)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "assembling report: %v", err)
		return
	}

	renderer, err := render.NewRenderer("json")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	out, err := renderer.Render(rep)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "rendering report: %v", err)
		return
	}

	s.record(rep, started)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handleRuns lists recent scoring runs, newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit %q", q)
			return
		}
		limit = n
	}

	recs := []runlog.Record{}
	if s.history != nil {
		var err error
		recs, err = s.history.List(limit)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "listing runs: %v", err)
			return
		}
		if recs == nil {
			recs = []runlog.Record{}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": recs})
}

// record appends the finished run to history. Failures are logged, not
// surfaced; the caller already has their predictions.
func (s *Server) record(rep *report.Report, started time.Time) {
	if s.history == nil {
		return
	}
	_, err := s.history.Append(runlog.Record{
		StartedAt:         started.UTC(),
		Duration:          time.Since(started),
		InputHash:         rep.Input.Hash,
		Rows:              rep.Input.Rows,
		Warnings:          len(rep.Warnings),
		Model:             rep.Model,
		Threshold:         rep.Threshold,
		H1N1NonTakers:     rep.Summary.H1N1.NonTakers,
		SeasonalNonTakers: rep.Summary.Seasonal.NonTakers,
	})
	if err != nil {
		s.log.Warn("recording run failed", zap.Error(err))
	}
}

// isDataError reports whether err is the caller's fault: a batch that is
// schema-valid but cannot be transformed.
func isDataError(err error) bool {
	var missing *pipeline.MissingSourceColumnError
	var nonNumeric *pipeline.NonNumericColumnError
	return errors.As(err, &missing) || errors.As(err, &nonNumeric)
}

// writeError sends the same error envelope the remote scorer protocol uses,
// so clients parse one shape everywhere.
func (s *Server) writeError(w http.ResponseWriter, status int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if status >= 500 {
		s.log.Error("request failed", zap.Int("status", status), zap.String("error", msg))
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requestLogger logs one line per request with status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)))
	})
}
