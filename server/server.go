// Package server exposes the HTTP surface of the card extraction
// service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/hannes/cardscan/config"
	"github.com/hannes/cardscan/extract"
	"github.com/hannes/cardscan/metrics"
)

// Extractor runs the image-to-record pipeline for one upload.
type Extractor interface {
	Extract(ctx context.Context, image []byte) (extract.ContactRecord, error)
}

// HealthReporter reports whether the recognition backend is serving.
type HealthReporter interface {
	Healthy() bool
}

// Server represents the HTTP server
type Server struct {
	config   *config.Config
	pipeline Extractor
	health   HealthReporter
	logger   *logrus.Entry
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, pipeline Extractor, health HealthReporter, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		config:   cfg,
		pipeline: pipeline,
		health:   health,
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/extract-details/", s.handleExtract)
	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.config.ListenAddr).Info("starting card extraction service")

	server := &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if s.health != nil && !s.health.Healthy() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status, "service": "cardscan"})
}

// handleExtract accepts a multipart image upload and responds with the
// extracted contact record.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusMethodNotAllowed)).Inc()
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	requestID := uuid.New().String()
	logger := s.logger.WithField("request_id", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		logger.WithError(err).Info("rejected upload without a usable file part")
		writeError(w, http.StatusBadRequest, "Invalid file type.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		logger.WithField("content_type", contentType).Info("rejected non-image upload")
		writeError(w, http.StatusBadRequest, "Invalid file type.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusBadRequest)).Inc()
		logger.WithError(err).Info("failed to read upload")
		writeError(w, http.StatusBadRequest, "Invalid file type.")
		return
	}

	record, err := s.pipeline.Extract(r.Context(), data)
	if err != nil {
		metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusInternalServerError)).Inc()

		entry := logger.WithError(err)
		var stageErr *extract.StageError
		if errors.As(err, &stageErr) {
			entry = entry.WithField("stage", stageErr.Stage)
		}
		entry.Error("extraction failed")
		sentry.CaptureException(err)

		writeError(w, http.StatusInternalServerError, "Failed to extract card details.")
		return
	}

	metrics.ExtractRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	logger.WithFields(logrus.Fields{
		"filename": header.Filename,
		"phones":   len(record.Phones),
	}).Info("extraction complete")
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
