// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paperdock/internal/httputil"
	"github.com/pdiddy/paperdock/internal/mathml"
	"github.com/pdiddy/paperdock/internal/nlp"
	"github.com/pdiddy/paperdock/internal/query"
	"github.com/pdiddy/paperdock/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossRef queries the CrossRef REST API.
type CrossRef struct {
	client   *http.Client
	analyzer *query.Analyzer
	nlp      *nlp.Client
	limiter  *rate.Limiter
	cfg      types.CrossRefConfig
	log      zerolog.Logger
}

// NewCrossRef returns a CrossRef connector.
func NewCrossRef(client *http.Client, analyzer *query.Analyzer, nlpClient *nlp.Client, cfg types.CrossRefConfig, log zerolog.Logger) *CrossRef {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &CrossRef{
		client:   client,
		analyzer: analyzer,
		nlp:      nlpClient,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		cfg:      cfg,
		log:      log.With().Str("component", "crossref").Logger(),
	}
}

// Name returns the backend identifier.
func (c *CrossRef) Name() string { return "crossref" }

// etiquette builds the User-Agent CrossRef asks polite-pool callers to send.
func (c *CrossRef) etiquette() string {
	return fmt.Sprintf("paperdock/1.0 (https://github.com/pdiddy/paperdock;mailto:%s)", c.cfg.Mailto)
}

// Search queries CrossRef. DOIs found in the query are resolved by direct
// per-DOI lookups and included unconditionally with the sentinel score;
// the remaining terms search the title field, or all fields when extended.
func (c *CrossRef) Search(ctx context.Context, q string, extended bool) ([]types.SearchResult, error) {
	plain, names := c.prepare(ctx, q)
	if strings.TrimSpace(plain) == "" {
		return nil, nil
	}

	dois := c.analyzer.ExtractDOIs(q)

	cleared, err := c.analyzer.ClearQuery(ctx, q)
	if err != nil {
		c.log.Warn().Err(err).Msg("query clearing degraded")
	}

	var keywords []string
	if kws, err := c.nlp.ExtractKeywords(ctx, cleared); err == nil {
		keywords = kws
	} else {
		c.log.Warn().Err(err).Msg("keyword extraction failed")
	}
	c.log.Info().Strs("names", names).Strs("keywords", keywords).Msg("analyzed query")

	params := url.Values{}
	if len(names) > 0 {
		params.Set("query.author", strings.Join(names, " "))
	}
	terms := strings.Join(keywords, " ")
	if terms == "" {
		terms = cleared
	}
	if terms != "" {
		if extended {
			params.Set("query", terms)
		} else {
			params.Set("query.title", terms)
		}
	}

	results := c.lookupDOIs(ctx, dois)

	if len(params) > 0 {
		params.Set("sort", "score")
		params.Set("order", "desc")
		results = append(results, c.fetchPages(ctx, params)...)
	}

	return results, nil
}

// prepare runs the stop-word reduction and name extraction concurrently;
// both are independent network calls to the NLP capability.
func (c *CrossRef) prepare(ctx context.Context, q string) (plain string, names []string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reduced, err := c.nlp.RemoveStopWords(ctx, q)
		if err != nil {
			c.log.Warn().Err(err).Msg("stop-word removal failed, using raw query")
			plain = q
			return
		}
		plain = reduced
	}()
	go func() {
		defer wg.Done()
		found, err := c.nlp.ExtractNames(ctx, q)
		if err != nil {
			c.log.Warn().Err(err).Msg("name extraction failed")
			return
		}
		names = found
	}()
	wg.Wait()
	return plain, names
}

// lookupDOIs fetches each DOI directly and concurrently. These hits
// bypass relevance scoring entirely.
func (c *CrossRef) lookupDOIs(ctx context.Context, dois []string) []types.SearchResult {
	found := make([]types.SearchResult, len(dois))
	ok := make([]bool, len(dois))

	var wg sync.WaitGroup
	for i, doi := range dois {
		wg.Add(1)
		go func(i int, doi string) {
			defer wg.Done()
			var env struct {
				Message crossrefWork `json:"message"`
			}
			if err := c.getJSON(ctx, crossrefAPIBase+"/"+url.PathEscape(doi), nil, &env); err != nil {
				c.log.Warn().Err(err).Str("doi", doi).Msg("direct DOI lookup failed")
				return
			}
			found[i] = extractWork(env.Message)
			ok[i] = true
		}(i, doi)
	}
	wg.Wait()

	var results []types.SearchResult
	for i := range found {
		if ok[i] {
			results = append(results, found[i])
		}
	}
	return results
}

// fetchPages retrieves up to MaxResults rows in PageSize pages,
// concurrently, preserving page order. A failed page is an empty page.
func (c *CrossRef) fetchPages(ctx context.Context, params url.Values) []types.SearchResult {
	nPages := (c.cfg.MaxResults + c.cfg.PageSize - 1) / c.cfg.PageSize
	pages := make([][]types.SearchResult, nPages)

	var wg sync.WaitGroup
	for n := range nPages {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pageParams := url.Values{}
			for k, v := range params {
				pageParams[k] = v
			}
			pageParams.Set("rows", fmt.Sprintf("%d", c.cfg.PageSize))
			pageParams.Set("offset", fmt.Sprintf("%d", c.cfg.PageSize*n))

			var env struct {
				Message struct {
					Items []crossrefWork `json:"items"`
				} `json:"message"`
			}
			if err := c.getJSON(ctx, crossrefAPIBase, pageParams, &env); err != nil {
				c.log.Warn().Err(err).Int("page", n).Msg("CrossRef page fetch failed")
				return
			}
			results := make([]types.SearchResult, 0, len(env.Message.Items))
			for _, work := range env.Message.Items {
				results = append(results, extractWork(work))
			}
			pages[n] = results
		}(n)
	}
	wg.Wait()

	var all []types.SearchResult
	for _, page := range pages {
		all = append(all, page...)
	}
	return all
}

func (c *CrossRef) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.etiquette())

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return fmt.Errorf("CrossRef request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("CrossRef returned HTTP 404")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CrossRef returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing CrossRef response: %w", err)
	}
	return nil
}

// CrossRef works JSON structures.
type crossrefWork struct {
	Title    []string         `json:"title"`
	DOI      string           `json:"DOI"`
	Author   []crossrefAuthor `json:"author"`
	Abstract string           `json:"abstract"`
	Link     []crossrefLink   `json:"link"`
	Score    *float64         `json:"score"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefLink struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// extractWork maps a CrossRef work onto a SearchResult, substituting
// defaults for missing fields.
func extractWork(work crossrefWork) types.SearchResult {
	title := types.UntitledPlaceholder
	if len(work.Title) > 0 {
		title = strings.Join(work.Title, " / ")
	}
	if strings.Contains(title, "xmlns") {
		title = mathml.Flatten(title)
	}

	var authors []string
	for _, a := range work.Author {
		name := strings.TrimSpace(strings.Join([]string{a.Given, a.Family, a.Name}, " "))
		name = strings.Join(strings.Fields(name), " ")
		if name != "" {
			authors = append(authors, name)
		}
	}

	var downloadLink string
	for _, link := range work.Link {
		if link.ContentType == "application/pdf" {
			downloadLink = link.URL
			break
		}
	}

	score := types.UnscoredRelevance
	if work.Score != nil {
		score = *work.Score
	}

	return types.SearchResult{
		Title:          title,
		DOI:            work.DOI,
		Authors:        authors,
		Abstract:       work.Abstract,
		DownloadLink:   downloadLink,
		RelevanceScore: score,
	}
}
