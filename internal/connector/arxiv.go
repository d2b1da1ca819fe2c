// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/httputil"
	"github.com/pdiddy/paperdock/internal/nlp"
	"github.com/pdiddy/paperdock/internal/query"
	"github.com/pdiddy/paperdock/pkg/types"
)

// arxivAPIBase is the arXiv Atom search endpoint. Declared as a var so
// tests can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivEntryID pulls the bare arXiv ID out of an entry's <id> URL,
// dropping any version suffix.
var arxivEntryID = regexp.MustCompile(`arxiv\.org/abs/(\d{4}.\d{4,5}|[a-z\-]+(\.[A-Z]{2})?/\d{7})`)

// Arxiv queries the arXiv API.
type Arxiv struct {
	client   *http.Client
	analyzer *query.Analyzer
	nlp      *nlp.Client
	cfg      types.ArxivConfig
	log      zerolog.Logger
}

// NewArxiv returns an arXiv connector.
func NewArxiv(client *http.Client, analyzer *query.Analyzer, nlpClient *nlp.Client, cfg types.ArxivConfig, log zerolog.Logger) *Arxiv {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &Arxiv{
		client:   client,
		analyzer: analyzer,
		nlp:      nlpClient,
		cfg:      cfg,
		log:      log.With().Str("component", "arxiv").Logger(),
	}
}

// Name returns the backend identifier.
func (a *Arxiv) Name() string { return "arxiv" }

// Search queries arXiv. A query containing arXiv IDs fetches exactly
// those IDs in submission order, bypassing search ranking. Otherwise the
// query searches author and title fields, or all fields when extended.
func (a *Arxiv) Search(ctx context.Context, q string, extended bool) ([]types.SearchResult, error) {
	ids := a.analyzer.ExtractArxivIDs(q, false, false)
	a.log.Info().Strs("arxiv_ids", ids).Msg("analyzed query")

	if len(ids) > 0 {
		return a.fetchFeed(ctx, url.Values{"id_list": {strings.Join(ids, ",")}}), nil
	}

	var searchQuery string
	names, err := a.nlp.ExtractNames(ctx, q)
	if err != nil {
		a.log.Warn().Err(err).Msg("name extraction failed")
	}
	if len(names) > 0 {
		searchQuery += "au:" + strings.Join(names, " AND ")
	}

	cleared, err := a.analyzer.ClearQuery(ctx, q)
	if err != nil {
		a.log.Warn().Err(err).Msg("query clearing degraded")
	}
	field := "ti:"
	if extended {
		field = "all:"
	}
	searchQuery += field + cleared

	nPages := (a.cfg.MaxResults + a.cfg.PageSize - 1) / a.cfg.PageSize
	pages := make([][]types.SearchResult, nPages)

	var wg sync.WaitGroup
	for n := range nPages {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pages[n] = a.fetchFeed(ctx, url.Values{
				"search_query": {searchQuery},
				"start":        {fmt.Sprintf("%d", a.cfg.PageSize*n)},
				"max_results":  {fmt.Sprintf("%d", a.cfg.PageSize)},
				"sortBy":       {"relevance"},
				"sortOrder":    {"descending"},
			})
		}(n)
	}
	wg.Wait()

	var all []types.SearchResult
	for _, page := range pages {
		all = append(all, page...)
	}
	return all, nil
}

// fetchFeed performs one feed query, re-requesting while the feed is
// syntactically valid but empty of entries. The upstream API answers
// empty intermittently under load; a bounded retry absorbs that. After
// exhausting retries it gives up silently with an empty page.
func (a *Arxiv) fetchFeed(ctx context.Context, params url.Values) []types.SearchResult {
	reqURL := arxivAPIBase + "?" + params.Encode()

	for attempt := 1; attempt <= a.cfg.MaxRetries; attempt++ {
		page, err := httputil.FetchPage(ctx, a.client, reqURL, a.cfg.Timeout, httputil.RandomUserAgent())
		if err != nil {
			a.log.Warn().Err(err).Int("attempt", attempt).Msg("arXiv fetch failed")
			continue
		}
		if page.StatusCode != http.StatusOK {
			a.log.Warn().Int("status", page.StatusCode).Int("attempt", attempt).Msg("arXiv returned non-200")
			continue
		}

		feed, err := gofeed.NewParser().ParseString(page.Body)
		if err != nil {
			a.log.Warn().Err(err).Int("attempt", attempt).Msg("arXiv feed unparseable")
			continue
		}
		if len(feed.Items) == 0 {
			a.log.Debug().Int("attempt", attempt).Msg("arXiv feed empty, retrying")
			continue
		}

		results := make([]types.SearchResult, 0, len(feed.Items))
		for _, item := range feed.Items {
			if r, ok := entryResult(item); ok {
				results = append(results, r)
			}
		}
		return results
	}

	a.log.Debug().Int("attempts", a.cfg.MaxRetries).Msg("gave up on arXiv query")
	return nil
}

// entryResult maps one feed entry onto a SearchResult. Entries whose ID
// does not look like an arXiv abs URL are dropped.
func entryResult(item *gofeed.Item) (types.SearchResult, bool) {
	entryID := item.GUID
	if entryID == "" {
		entryID = item.Link
	}
	m := arxivEntryID.FindStringSubmatch(entryID)
	if m == nil {
		return types.SearchResult{}, false
	}
	arxivID := m[1]

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = types.UntitledPlaceholder
	}

	var authors []string
	for _, person := range item.Authors {
		if person != nil && person.Name != "" {
			authors = append(authors, strings.TrimSpace(person.Name))
		}
	}

	var downloadLink string
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			downloadLink = link
			break
		}
	}

	return types.SearchResult{
		Title:          title,
		DOI:            "10.48550/arXiv." + arxivID,
		Authors:        authors,
		Abstract:       strings.TrimSpace(item.Description),
		DownloadLink:   downloadLink,
		RelevanceScore: types.UnscoredRelevance,
	}, true
}
