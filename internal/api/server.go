// Package api serves the loaded artifact over HTTP: query embedding
// and semantic search.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pvcastro/cinevec/internal/embedding"
	"github.com/pvcastro/cinevec/internal/model"
)

// Server exposes a read-only artifact plus an encoder.
type Server struct {
	artifact *model.Artifact
	enc      embedding.Encoder
	topK     int
	log      *zap.Logger
}

// NewServer creates a Server. topK bounds search responses when the
// client does not pass its own k.
func NewServer(artifact *model.Artifact, enc embedding.Encoder, topK int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{artifact: artifact, enc: enc, topK: topK, log: log}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/embed", s.handleEmbed)
	r.Get("/search", s.handleSearch)

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Movies    int    `json:"movies"`
	Model     string `json:"model"`
	Dimension int    `json:"dimension"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Movies:    len(s.artifact.Movies),
		Model:     s.artifact.Metadata.Model,
		Dimension: s.artifact.Dimensions(),
	})
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float32 `json:"vector"`
}

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if req.Text == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	v, err := s.enc.Encode(r.Context(), req.Text)
	if err != nil {
		s.log.Error("encode failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, errors.New("embedding backend unavailable"))
		return
	}

	s.respond(w, http.StatusOK, embedResponse{Vector: v})
}

type searchResponse struct {
	Query   string               `json:"query"`
	Results []model.SearchResult `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("q is required"))
		return
	}

	k := s.topK
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, errors.New("k must be a positive integer"))
			return
		}
		k = parsed
	}

	v, err := s.enc.Encode(r.Context(), query)
	if err != nil {
		s.log.Error("encode failed", zap.String("query", query), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, errors.New("embedding backend unavailable"))
		return
	}

	results := s.artifact.Search(v, k)
	s.respond(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, errorResponse{Error: err.Error()})
}
