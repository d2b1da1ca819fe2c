// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/config"
	"github.com/pdiddy/paperdock/internal/connector"
	"github.com/pdiddy/paperdock/internal/library"
	"github.com/pdiddy/paperdock/internal/mirror"
	"github.com/pdiddy/paperdock/internal/nlp"
	"github.com/pdiddy/paperdock/internal/publisher"
	"github.com/pdiddy/paperdock/internal/query"
	"github.com/pdiddy/paperdock/internal/stream"
	"github.com/pdiddy/paperdock/pkg/types"
)

// engine bundles the assembled pipeline components.
type engine struct {
	log      zerolog.Logger
	analyzer *query.Analyzer
	crossref connector.Backend
	arxiv    connector.Backend
	resolver *mirror.Resolver
	streamer *stream.Streamer
	library  *library.Store
}

// buildEngine wires all components from configuration.
func buildEngine(cfg types.Config) (*engine, error) {
	log := config.NewLogger(cfg.Logging)
	client := &http.Client{}

	nlpClient := nlp.New(cfg.NLP, client, log)
	analyzer := query.New(nlpClient, log)

	resolver := mirror.NewResolver(client, cfg.Mirror, log)
	classifier := publisher.NewClassifier(client, resolver, cfg.Publisher, log)

	var lib *library.Store
	var streamLib stream.Library
	if cfg.Library.Path != "" {
		store, err := library.Open(cfg.Library.Path)
		if err != nil {
			return nil, err
		}
		lib = store
		streamLib = store
	}

	return &engine{
		log:      log,
		analyzer: analyzer,
		crossref: connector.NewCrossRef(client, analyzer, nlpClient, cfg.CrossRef, log),
		arxiv:    connector.NewArxiv(client, analyzer, nlpClient, cfg.Arxiv, log),
		resolver: resolver,
		streamer: stream.New(classifier, streamLib, cfg.Stream, log),
		library:  lib,
	}, nil
}

// close releases resources held by the engine.
func (e *engine) close() {
	if e.library != nil {
		e.library.Close()
	}
}
