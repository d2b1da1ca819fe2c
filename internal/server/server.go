// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP. A search request
// fans out to both bibliographic backends, merges their results, and
// streams link-resolved pages back as server-sent events; with link
// resolution disabled the whole merged list returns as one JSON batch.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/connector"
	"github.com/pdiddy/paperdock/internal/merge"
	"github.com/pdiddy/paperdock/internal/mirror"
	"github.com/pdiddy/paperdock/internal/query"
	"github.com/pdiddy/paperdock/internal/stream"
	"github.com/pdiddy/paperdock/pkg/types"
)

// Server wires the pipeline components behind an HTTP API.
type Server struct {
	analyzer *query.Analyzer
	crossref connector.Backend
	arxiv    connector.Backend
	streamer *stream.Streamer
	cfg      types.ServerConfig
	log      zerolog.Logger
	handler  http.Handler
}

// New assembles the server.
func New(analyzer *query.Analyzer, crossref, arxiv connector.Backend, streamer *stream.Streamer, cfg types.ServerConfig, log zerolog.Logger) *Server {
	s := &Server{
		analyzer: analyzer,
		crossref: crossref,
		arxiv:    arxiv,
		streamer: streamer,
		cfg:      cfg,
		log:      log.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Get("/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler(r)

	return s
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleSearch implements GET /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	if q == "" {
		http.Error(w, `missing "query" parameter`, http.StatusBadRequest)
		return
	}
	extended := boolParam(r, "extended", false)
	attemptDownload := boolParam(r, "attempt_download", true)
	includeAbstract := boolParam(r, "include_abstract", false)

	s.log.Info().
		Str("query", q).
		Bool("extended", extended).
		Bool("attempt_download", attemptDownload).
		Msg("search request")

	ctx := r.Context()
	gathered := connector.Gather(ctx, q, extended, s.log, s.crossref, s.arxiv)
	arxivSeeded := len(s.analyzer.ExtractArxivIDs(q, false, false)) > 0
	merged := merge.Merge(arxivSeeded, gathered[0], gathered[1])

	if !attemptDownload {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.streamer.Batch(merged, includeAbstract))
		return
	}

	s.streamPages(w, r, merged, includeAbstract)
}

// streamPages emits one SSE event per resolved page.
func (s *Server) streamPages(w http.ResponseWriter, r *http.Request, merged []types.SearchResult, includeAbstract bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	err := s.streamer.Stream(r.Context(), merged, includeAbstract, func(page stream.Page) error {
		payload, err := json.Marshal(page.Records)
		if err != nil {
			return fmt.Errorf("encoding page %d: %w", page.Index, err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return fmt.Errorf("writing page %d: %w", page.Index, err)
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are long gone; the best we can do is an error event.
		s.log.Error().Err(err).Msg("result stream aborted")
		if errors.Is(err, mirror.ErrNoMirror) {
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
			flusher.Flush()
		}
	}
}

func boolParam(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// requestLogger logs one line per request with latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	})
}
