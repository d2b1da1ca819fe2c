// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mirror maintains the reachable member of the shadow-library
// mirror network and extracts download links from its landing pages.
//
// Two mirror families exist: the primary family guarantees stricter
// coverage and wins outright whenever any of its hosts answers; the
// fallback family is used only when no primary host is reachable.
package mirror

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/paperdock/internal/httputil"
	"github.com/pdiddy/paperdock/pkg/types"
)

// ErrNoMirror is returned when every host in both families is
// unreachable. This is fatal: no lookup can proceed without a mirror.
var ErrNoMirror = errors.New("no reachable mirror in either family: try using a proxy")

// Resolver probes the mirror network once per process and answers
// per-DOI link lookups against the chosen host.
type Resolver struct {
	client   *http.Client
	pageClnt *http.Client // does not follow redirects
	cfg      types.MirrorConfig
	log      zerolog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	mirror string
	probed bool
}

// NewResolver returns a Resolver over the configured mirror families.
func NewResolver(client *http.Client, cfg types.MirrorConfig, log zerolog.Logger) *Resolver {
	return &Resolver{
		client:   client,
		pageClnt: httputil.NoRedirectClient(client),
		cfg:      cfg,
		log:      log.With().Str("component", "mirror").Logger(),
	}
}

// EstablishMirror returns the chosen mirror host, probing all hosts in
// both families concurrently on first use. The choice is memoized for
// the process lifetime; concurrent first callers share a single probe
// round. With no survivor it returns ErrNoMirror.
func (r *Resolver) EstablishMirror(ctx context.Context) (string, error) {
	r.mu.RLock()
	if r.probed {
		mirror := r.mirror
		r.mu.RUnlock()
		if mirror == "" {
			return "", ErrNoMirror
		}
		return mirror, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("establish", func() (any, error) {
		mirror, err := r.probe(ctx)

		r.mu.Lock()
		r.probed = true
		r.mirror = mirror
		r.mu.Unlock()

		return mirror, err
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// probe pings every host with the sample DOI and applies the preference
// policy: any surviving primary host beats all fallback hosts, and
// declaration order breaks ties within a family.
func (r *Resolver) probe(ctx context.Context) (string, error) {
	hosts := append(append([]string{}, r.cfg.PrimaryHosts...), r.cfg.FallbackHosts...)
	alive := make([]bool, len(hosts))

	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func(i int, host string) {
			defer wg.Done()
			page, err := httputil.FetchPage(ctx, r.client, host+"/"+r.cfg.SampleDOI, r.cfg.ProbeTimeout, httputil.RandomUserAgent())
			if err != nil {
				r.log.Debug().Err(err).Str("host", host).Msg("mirror probe failed")
				return
			}
			if page.StatusCode >= 400 {
				r.log.Debug().Int("status", page.StatusCode).Str("host", host).Msg("mirror probe rejected")
				return
			}
			alive[i] = true
		}(i, host)
	}
	wg.Wait()

	for i, host := range hosts {
		if alive[i] {
			r.log.Info().Str("mirror", host).Msg("established mirror connection")
			return host, nil
		}
	}

	r.log.Error().Msg("could not establish connection with any mirror")
	return "", ErrNoMirror
}

// DownloadLink looks the DOI up on the established mirror and extracts
// the download URL from its landing page. A missing work or a timeout
// yields the empty result; only mirror exhaustion is an error.
func (r *Resolver) DownloadLink(ctx context.Context, doi string) (types.LinkResult, error) {
	if strings.TrimSpace(doi) == "" {
		return types.EmptyLink, nil
	}

	mirror, err := r.EstablishMirror(ctx)
	if err != nil {
		return types.EmptyLink, err
	}

	r.log.Info().Str("doi", doi).Str("mirror", mirror).Msg("querying mirror")

	// The landing page itself carries the button markup; following its
	// redirect would lose it.
	page, err := httputil.FetchPage(ctx, r.pageClnt, mirror+"/"+doi, r.cfg.ProbeTimeout, httputil.RandomUserAgent())
	if err != nil {
		r.log.Warn().Err(err).Str("doi", doi).Msg("mirror page fetch timed out")
		return types.EmptyLink, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		r.log.Warn().Err(err).Str("doi", doi).Msg("mirror page unparseable")
		return types.EmptyLink, nil
	}

	if r.isPrimary(mirror) {
		return r.parsePrimary(doc), nil
	}
	return r.parseFallback(doc, mirror), nil
}

func (r *Resolver) isPrimary(mirror string) bool {
	for _, host := range r.cfg.PrimaryHosts {
		if host == mirror {
			return true
		}
	}
	return false
}

// parsePrimary handles the primary family's layout: a labeled anchor
// whose href is the direct download link.
func (r *Resolver) parsePrimary(doc *goquery.Document) types.LinkResult {
	var link string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) != "Download" {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		link = href
		return false
	})

	if link == "" {
		r.log.Warn().Msg("did not find the download anchor on the mirror page")
		return types.EmptyLink
	}
	return types.LinkResult{Link: link, Guarantee: true}
}

// parseFallback handles the fallback family's layout: a button whose
// inline onclick redirect encodes the true download URL.
func (r *Resolver) parseFallback(doc *goquery.Document, mirror string) types.LinkResult {
	button := doc.Find("button").First()
	if button.Length() == 0 {
		r.log.Info().Str("mirror", mirror).Msg("no download button on the mirror page (document not found)")
		return types.EmptyLink
	}

	onclick, ok := button.Attr("onclick")
	if !ok {
		r.log.Error().Str("mirror", mirror).Msg("download button lost its onclick attribute (mirror DOM changed)")
		return types.EmptyLink
	}

	location := strings.TrimSuffix(strings.TrimPrefix(onclick, "location.href='"), "'")
	link := mirror + location
	if strings.HasPrefix(location, "//") {
		link = "https:" + location
	}

	return types.LinkResult{Link: link, Guarantee: true}
}
