// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package connector queries bibliographic search backends and returns
// SearchResult lists. Each backend degrades to an empty list on upstream
// failure: a degraded search beats a failed one.
package connector

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/pkg/types"
)

// Backend searches a single bibliographic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, extended bool) ([]types.SearchResult, error)
}

// Gather fans the query out to all backends concurrently and returns
// their result lists positionally. A backend error yields a nil list for
// that position and is logged, never propagated.
func Gather(ctx context.Context, query string, extended bool, log zerolog.Logger, backends ...Backend) [][]types.SearchResult {
	results := make([][]types.SearchResult, len(backends))

	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			found, err := b.Search(ctx, query, extended)
			if err != nil {
				log.Warn().Err(err).Str("backend", b.Name()).Msg("backend search failed")
				return
			}
			results[i] = found
		}(i, b)
	}
	wg.Wait()

	return results
}
