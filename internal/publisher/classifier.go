// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publisher decides a download link and a guarantee flag for a
// DOI. The decision chain short-circuits at the first definite answer:
// arXiv shortcut, publisher blacklist, mirror network, direct PDF
// redirect, publisher-specific extractors, then a generic heuristic over
// the landing page text. Publisher pages are third-party HTML: missing
// elements are expected, not exceptional.
package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/httputil"
	"github.com/pdiddy/paperdock/pkg/types"
)

// doiBase is the DOI resolver. Declared as a var so tests can substitute
// an httptest server.
var doiBase = "https://doi.org/"

const arxivPDFBase = "https://arxiv.org/pdf/"

// DefaultBlacklist lists DOI prefixes of publishers known to provide
// only private access to their works.
var DefaultBlacklist = []string{
	"10.1016", // Elsevier
	"10.1007", // Springer
	"10.1201", // Taylor & Francis
	"10.4324", // Taylor & Francis
}

// arxivNamespace matches the arXiv DOI namespace form
// "10.48550/arXiv.<id>".
var arxivNamespace = regexp.MustCompile(`^10\.48550/arXiv\.((\d{4}.\d{4,5}|[a-z\-]+(\.[A-Z]{2})?/\d{7})(v\d+)?)`)

// Publisher-specific page structure patterns.
var (
	ieeeMetadata      = regexp.MustCompile(`(?s)xplGlobal\.document\.metadata=(.*?});`)
	intechopenChapter = regexp.MustCompile(`/chapters/(\d+)`)
)

// MirrorLookup resolves a DOI against the mirror network.
type MirrorLookup interface {
	DownloadLink(ctx context.Context, doi string) (types.LinkResult, error)
}

// Classifier resolves DOIs to download links.
type Classifier struct {
	client    *http.Client
	mirror    MirrorLookup
	blacklist map[string]struct{}
	cfg       types.PublisherConfig
	log       zerolog.Logger
}

// NewClassifier returns a Classifier that consults mirror before
// scraping publisher pages. An empty cfg.Blacklist falls back to
// DefaultBlacklist.
func NewClassifier(client *http.Client, mirror MirrorLookup, cfg types.PublisherConfig, log zerolog.Logger) *Classifier {
	prefixes := cfg.Blacklist
	if len(prefixes) == 0 {
		prefixes = DefaultBlacklist
	}
	blacklist := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		blacklist[p] = struct{}{}
	}
	return &Classifier{
		client:    client,
		mirror:    mirror,
		blacklist: blacklist,
		cfg:       cfg,
		log:       log.With().Str("component", "publisher").Logger(),
	}
}

// DownloadLink resolves doi to a link and guarantee flag. Everything
// short of total mirror exhaustion degrades to the empty result.
func (c *Classifier) DownloadLink(ctx context.Context, doi string) (types.LinkResult, error) {
	if strings.TrimSpace(doi) == "" {
		return types.EmptyLink, nil
	}

	if m := arxivNamespace.FindStringSubmatch(doi); m != nil {
		return types.LinkResult{Link: arxivPDFBase + m[1], Guarantee: true}, nil
	}

	prefix, _, _ := strings.Cut(doi, "/")
	if _, blocked := c.blacklist[prefix]; blocked {
		c.log.Info().Str("doi", doi).Str("publisher", prefix).Msg("known blacklisted publisher")
		return types.EmptyLink, nil
	}

	mirrorResult, err := c.mirror.DownloadLink(ctx, doi)
	if err != nil {
		return types.EmptyLink, err
	}
	if !mirrorResult.IsEmpty() {
		return mirrorResult, nil
	}

	return c.classifyPublisherPage(ctx, doi), nil
}

// classifyPublisherPage follows the DOI redirect and inspects the
// landing page.
func (c *Classifier) classifyPublisherPage(ctx context.Context, doi string) types.LinkResult {
	c.log.Info().Str("doi", doi).Msg("following DOI redirect")

	page, err := httputil.FetchPage(ctx, c.client, doiBase+doi, c.cfg.Timeout, httputil.RandomUserAgent())
	if err != nil {
		c.log.Warn().Err(err).Str("doi", doi).Msg("publisher page timed out")
		return types.EmptyLink
	}

	contentType, _, _ := strings.Cut(page.ContentType, ";")
	if contentType == "application/pdf" || contentType == "application/octet-stream" {
		c.log.Info().Str("doi", doi).Msg("DOI redirected to a plain PDF")
		return types.LinkResult{Link: page.FinalURL, Guarantee: true}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		c.log.Warn().Err(err).Str("doi", doi).Msg("publisher page unparseable")
		return types.EmptyLink
	}

	switch {
	case strings.HasPrefix(doi, "10.1109"):
		c.log.Info().Str("doi", doi).Msg("known publisher: IEEE")
		return c.extractIEEE(doc)
	case strings.HasPrefix(doi, "10.5772"):
		c.log.Info().Str("doi", doi).Msg("known publisher: IntechOpen")
		return c.extractIntechOpen(page.FinalURL)
	case strings.HasPrefix(doi, "10.3390"):
		c.log.Info().Str("doi", doi).Msg("known publisher: MDPI")
		return types.LinkResult{Link: strings.TrimRight(page.FinalURL, "/") + "/pdf", Guarantee: true}
	}

	return c.analyzeGenericContent(doc, page.FinalURL)
}

// extractIEEE reads the JSON metadata blob IEEE embeds in a script tag.
func (c *Classifier) extractIEEE(doc *goquery.Document) types.LinkResult {
	var raw string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if m := ieeeMetadata.FindStringSubmatch(sel.Text()); m != nil {
			raw = m[1]
			return false
		}
		return true
	})
	if raw == "" {
		return types.EmptyLink
	}

	var metadata struct {
		PDFPath string `json:"pdfPath"`
	}
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil || metadata.PDFPath == "" {
		c.log.Warn().Err(err).Msg("IEEE metadata blob unparseable")
		return types.EmptyLink
	}

	link := "https://ieeexplore.ieee.org" + metadata.PDFPath
	// The "iel" path segment serves a viewer wrapper; "ielx" serves the
	// file itself. Might be unstable.
	link = strings.Replace(link, "iel", "ielx", 1)

	return types.LinkResult{Link: link, Guarantee: true}
}

// extractIntechOpen derives the download endpoint from the numeric
// chapter ID in the landing URL.
func (c *Classifier) extractIntechOpen(finalURL string) types.LinkResult {
	m := intechopenChapter.FindStringSubmatch(finalURL)
	if m == nil {
		return types.EmptyLink
	}
	return types.LinkResult{Link: "https://www.intechopen.com/chapter/pdf-download/" + m[1], Guarantee: true}
}

// analyzeGenericContent runs the heuristic rule set over the page text.
// A positive verdict is speculative: the landing URL is returned without
// a guarantee.
func (c *Classifier) analyzeGenericContent(doc *goquery.Document, pageURL string) types.LinkResult {
	text := doc.Text()

	statuses := make([]Status, len(genericRules))
	for i, rule := range genericRules {
		statuses[i] = rule.Evaluate(text)
	}

	report := zerolog.Dict()
	for i, s := range statuses {
		report.Str(ruleName(i), s.String())
	}
	c.log.Info().Dict("patterns", report).Str("url", pageURL).Msg("pattern match report")

	if verdict(statuses) {
		return types.LinkResult{Link: pageURL, Guarantee: false}
	}
	return types.EmptyLink
}

func ruleName(i int) string {
	names := []string{
		"download", "pdf", "only_via_pdf", "subscribers_only",
		"institutional_access", "open_access_vs_get_access",
	}
	if i < len(names) {
		return names[i]
	}
	return "rule"
}
