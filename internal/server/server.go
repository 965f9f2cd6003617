// SPDX-License-Identifier: Apache-2.0

// Package server exposes the conversion and scoring operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/compassoutlaw/rosetta/internal/evidence"
	"github.com/compassoutlaw/rosetta/internal/evidence/sniff"
	"github.com/compassoutlaw/rosetta/internal/rosetta"
	"github.com/compassoutlaw/rosetta/internal/service"
	"github.com/compassoutlaw/rosetta/internal/store"
)

const (
	// defaultListLimit caps GET /v1/manifests when no limit is given.
	defaultListLimit = 50
	// MaxRequestBody bounds every JSON request body.
	MaxRequestBody = 10 << 20
	// fallbackMimeType applies when a MIME type is neither given nor sniffed.
	fallbackMimeType = "application/octet-stream"
)

// Manifests is the read side of the manifest ledger.
type Manifests interface {
	Get(ctx context.Context, id string) (evidence.Manifest, error)
	List(ctx context.Context, limit int) ([]evidence.Manifest, error)
}

// Server routes HTTP requests to the converter and the manifest ledger.
type Server struct {
	conv      *rosetta.Converter
	manifests Manifests
	gatherer  prometheus.Gatherer
	mcp       *mcp.Server
	logger    *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithManifests enables the /v1/manifests routes.
func WithManifests(m Manifests) Option {
	return func(s *Server) { s.manifests = m }
}

// WithGatherer serves g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithMCP mounts srv as a streamable MCP endpoint on /mcp.
func WithMCP(srv *mcp.Server) Option {
	return func(s *Server) { s.mcp = srv }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server. conv may be nil, in which case /v1/convert
// answers 503.
func New(conv *rosetta.Converter, opts ...Option) *Server {
	s := &Server{conv: conv, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
		r.Post("/score", s.handleScore)
		r.Post("/detect", s.handleDetect)
		if s.manifests != nil {
			r.Get("/manifests", s.handleListManifests)
			r.Get("/manifests/{id}", s.handleGetManifest)
		}
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.mcp != nil {
		srv := s.mcp
		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type convertRequest struct {
	Content  string `json:"content"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

// POST /v1/convert
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if s.conv == nil {
		writeError(w, http.StatusServiceUnavailable, service.ErrNotConfigured.Error())
		return
	}
	var req convertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.FileName == "" {
		req.FileName = "unknown"
	}
	if req.MimeType == "" {
		req.MimeType = sniff.Default().MimeTypeOr(sniff.Source{FileName: req.FileName, Content: []byte(req.Content)}, fallbackMimeType)
	}

	res, err := s.conv.Convert(r.Context(), req.Content, req.FileName, req.MimeType)
	if err != nil {
		writeError(w, convertStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// convertStatus maps a conversion failure onto a response status.
func convertStatus(err error) int {
	var se *service.Error
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type scoreRequest struct {
	SourceQuality     evidence.SourceQuality `json:"source_quality"`
	ConversionSuccess bool                   `json:"conversion_success"`
	SchemaValid       *bool                  `json:"schema_valid"`
}

type scoreResponse struct {
	EvidenceScore int           `json:"evidence_score"`
	Tier          evidence.Tier `json:"tier"`
}

// POST /v1/score
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.SourceQuality {
	case evidence.QualityDigital, evidence.QualityHighResScan, evidence.QualityLowRes:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown source_quality %q", req.SourceQuality))
		return
	}
	score := evidence.Score(req.SourceQuality, req.ConversionSuccess, req.SchemaValid)
	writeJSON(w, http.StatusOK, scoreResponse{EvidenceScore: score, Tier: evidence.TierFor(score)})
}

type detectResponse struct {
	SourceQuality evidence.SourceQuality `json:"source_quality"`
	MimeType      string                 `json:"mime_type"`
}

// POST /v1/detect
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mime := req.MimeType
	if mime == "" {
		mime = sniff.Default().MimeTypeOr(sniff.Source{FileName: req.FileName, Content: []byte(req.Content)}, fallbackMimeType)
	}
	writeJSON(w, http.StatusOK, detectResponse{
		SourceQuality: evidence.DetectSourceQuality(mime, req.Content),
		MimeType:      mime,
	})
}

// GET /v1/manifests/{id}
func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifests.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("manifest lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /v1/manifests?limit=N
func (s *Server) handleListManifests(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.manifests.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("manifest list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []evidence.Manifest{}
	}
	writeJSON(w, http.StatusOK, list)
}

// decodeBody reads a JSON body of at most MaxRequestBody bytes into v. On
// failure it writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBody)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", MaxRequestBody))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
