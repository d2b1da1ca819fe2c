// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream paginates a merged candidate list and resolves download
// links page by page. Link resolution within a page fans out, one
// concurrent lookup per candidate; pages are resolved and emitted
// sequentially, which bounds outstanding requests to one page's width.
package stream

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/pkg/types"
)

// Record is one emitted search result with its resolved link attached.
type Record struct {
	Title         string   `json:"title"`
	DOI           string   `json:"DOI"`
	Authors       []string `json:"authors"`
	DownloadLink  string   `json:"download_link"`
	LinkGuarantee bool     `json:"link_guarantee"`
	Abstract      string   `json:"abstract,omitempty"`
}

// Page is one emitted page of records.
type Page struct {
	// Index is the zero-based page number; pages arrive in order.
	Index int

	Records []Record
}

// LinkResolver resolves a DOI to a download link.
type LinkResolver interface {
	DownloadLink(ctx context.Context, doi string) (types.LinkResult, error)
}

// Library answers whether a paper is already owned locally. A hit yields
// the stored location as a guaranteed link, skipping network resolution.
type Library interface {
	DownloadLink(ctx context.Context, doi string) (link string, ok bool)
}

// Streamer emits resolved result pages.
type Streamer struct {
	resolver LinkResolver
	library  Library // may be nil
	pageSize int
	log      zerolog.Logger
}

// New returns a Streamer. library may be nil to disable the owned-papers
// lookup.
func New(resolver LinkResolver, library Library, cfg types.StreamConfig, log zerolog.Logger) *Streamer {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Streamer{
		resolver: resolver,
		library:  library,
		pageSize: pageSize,
		log:      log.With().Str("component", "stream").Logger(),
	}
}

// Stream resolves links for results page by page, calling emit with each
// page as soon as it is ready. It returns emit's error or a fatal
// resolution error (mirror exhaustion); every other failure degrades to
// an empty link on the affected record.
func (s *Streamer) Stream(ctx context.Context, results []types.SearchResult, includeAbstract bool, emit func(Page) error) error {
	retrieved := 0

	for start, index := 0, 0; start < len(results); start, index = start+s.pageSize, index+1 {
		end := min(start+s.pageSize, len(results))
		batch := results[start:end]

		links := make([]types.LinkResult, len(batch))
		errs := make([]error, len(batch))

		var wg sync.WaitGroup
		for i, result := range batch {
			wg.Add(1)
			go func(i int, result types.SearchResult) {
				defer wg.Done()
				links[i], errs[i] = s.resolve(ctx, result)
			}(i, result)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		records := make([]Record, len(batch))
		for i, result := range batch {
			if !links[i].IsEmpty() {
				retrieved++
			}
			records[i] = newRecord(result, links[i], includeAbstract)
		}

		if err := emit(Page{Index: index, Records: records}); err != nil {
			return err
		}
	}

	if len(results) > 0 {
		s.log.Info().
			Int("retrieved", retrieved).
			Int("total", len(results)).
			Float64("ratio", float64(retrieved)/float64(len(results))).
			Msg("link retrieval finished")
	}
	return nil
}

// Batch attaches empty links to every result and returns them as one
// immediate slice. No resolution and no network calls happen on this
// path; it exists for callers that only want the ranked metadata.
func (s *Streamer) Batch(results []types.SearchResult, includeAbstract bool) []Record {
	records := make([]Record, len(results))
	for i, result := range results {
		records[i] = newRecord(result, types.EmptyLink, includeAbstract)
	}
	return records
}

// resolve picks the first available source for a link: the connector's
// own link, the local library, then the mirror/publisher chain.
func (s *Streamer) resolve(ctx context.Context, result types.SearchResult) (types.LinkResult, error) {
	if result.DownloadLink != "" {
		return types.LinkResult{Link: result.DownloadLink, Guarantee: true}, nil
	}
	if result.DOI == "" {
		return types.EmptyLink, nil
	}
	if s.library != nil {
		if link, ok := s.library.DownloadLink(ctx, result.DOI); ok {
			return types.LinkResult{Link: link, Guarantee: true}, nil
		}
	}
	return s.resolver.DownloadLink(ctx, result.DOI)
}

func newRecord(result types.SearchResult, link types.LinkResult, includeAbstract bool) Record {
	r := Record{
		Title:         result.Title,
		DOI:           result.DOI,
		Authors:       result.Authors,
		DownloadLink:  link.Link,
		LinkGuarantee: link.Guarantee,
	}
	if includeAbstract {
		r.Abstract = result.Abstract
	}
	return r
}
