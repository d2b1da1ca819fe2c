// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query extracts identifiers from free-text queries and builds
// the bare keyword query the bibliographic backends search with.
package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/nlp"
)

// DOI pattern per CrossRef's recommendation:
// https://www.crossref.org/blog/dois-and-matching-regular-expressions
var doiPattern = regexp.MustCompile(`10.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)

// arXiv identifier scheme, new style ("2301.07041") and old style
// ("math.GT/0309136"), with an optional version suffix.
// Source: https://info.arxiv.org/help/arxiv_identifier_for_services.html
var (
	arxivPattern       = regexp.MustCompile(`(\d{4}.\d{4,5}|[a-z\-]+(\.[A-Z]{2})?/\d{7})(v\d+)?`)
	strictArxivPattern = regexp.MustCompile(`arXiv\.((\d{4}.\d{4,5}|[a-z\-]+(\.[A-Z]{2})?/\d{7})(v\d+)?)`)
)

// Analyzer parses queries. Extraction is a pure function of the input
// string, so results are memoized indefinitely per distinct query.
type Analyzer struct {
	nlp   *nlp.Client
	cache *gocache.Cache
	log   zerolog.Logger
}

// New returns an Analyzer delegating name extraction to the given NLP client.
func New(nlpClient *nlp.Client, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		nlp:   nlpClient,
		cache: gocache.New(gocache.NoExpiration, 0),
		log:   log.With().Str("component", "query").Logger(),
	}
}

// ExtractDOIs returns all DOIs present in query, in order of appearance.
func (a *Analyzer) ExtractDOIs(query string) []string {
	key := "dois\x00" + query
	if v, ok := a.cache.Get(key); ok {
		return v.([]string)
	}

	dois := doiPattern.FindAllString(query, -1)
	a.cache.SetDefault(key, dois)
	return dois
}

// ExtractArxivIDs returns all arXiv IDs present in query. In strict mode
// only the DOI prefix form "arXiv.<id>" matches. Unless allowOverlap is
// set, DOI substrings are stripped first so a DOI's numeric suffix is not
// misread as an arXiv ID.
func (a *Analyzer) ExtractArxivIDs(query string, strict, allowOverlap bool) []string {
	key := fmt.Sprintf("arxiv\x00%t\x00%t\x00%s", strict, allowOverlap, query)
	if v, ok := a.cache.Get(key); ok {
		return v.([]string)
	}

	stripped := query
	if !allowOverlap {
		for _, doi := range a.ExtractDOIs(query) {
			stripped = stripTerm(stripped, doi)
		}
	}

	var ids []string
	if strict {
		for _, m := range strictArxivPattern.FindAllStringSubmatch(stripped, -1) {
			ids = append(ids, m[1])
		}
	} else {
		ids = arxivPattern.FindAllString(stripped, -1)
	}

	a.cache.SetDefault(key, ids)
	return ids
}

// ClearQuery strips all DOIs, arXiv IDs, and externally-extracted author
// names from query, collapsing the remaining whitespace. When the NLP
// service fails, the query cleared of identifiers is returned alongside
// the error so callers can degrade instead of aborting.
func (a *Analyzer) ClearQuery(ctx context.Context, query string) (string, error) {
	cleared := query
	for _, doi := range a.ExtractDOIs(query) {
		cleared = stripTerm(cleared, doi)
	}
	for _, id := range a.ExtractArxivIDs(query, false, false) {
		cleared = stripTerm(cleared, id)
	}

	names, err := a.nlp.ExtractNames(ctx, cleared)
	if err != nil {
		a.log.Warn().Err(err).Msg("name extraction failed, clearing identifiers only")
		return collapse(cleared), fmt.Errorf("extracting names: %w", err)
	}
	for _, name := range names {
		cleared = stripTerm(cleared, name)
	}

	return collapse(cleared), nil
}

// stripTerm removes every occurrence of term together with surrounding
// spaces, leaving a single space in its place.
func stripTerm(s, term string) string {
	if term == "" {
		return s
	}
	re := regexp.MustCompile(` *` + regexp.QuoteMeta(term) + ` *`)
	return re.ReplaceAllString(s, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
