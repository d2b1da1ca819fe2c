// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/internal/query"
	"github.com/pdiddy/paperdock/pkg/types"
)

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>
</feed>`

func atomFeed(entries ...string) string {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Results</title>`
	for _, e := range entries {
		feed += e
	}
	return feed + "\n</feed>"
}

func atomEntry(id, title, author string) string {
	return fmt.Sprintf(`
  <entry>
    <id>http://arxiv.org/abs/%s</id>
    <title>%s</title>
    <summary>Abstract of %s.</summary>
    <author><name>%s</name></author>
    <link href="http://arxiv.org/abs/%s" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/%s" rel="related" type="application/pdf" title="pdf"/>
  </entry>`, id, title, title, author, id, id)
}

// pointArxivAPI substitutes the Atom endpoint for the test.
func pointArxivAPI(t *testing.T, base string) {
	t.Helper()
	old := arxivAPIBase
	arxivAPIBase = base
	t.Cleanup(func() { arxivAPIBase = old })
}

func newTestArxiv(t *testing.T, client *http.Client, names []string, cfg types.ArxivConfig) *Arxiv {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	nlpClient := nlpStub(t, "", names, nil)
	analyzer := query.New(nlpClient, zerolog.Nop())
	return NewArxiv(client, analyzer, nlpClient, cfg, zerolog.Nop())
}

func TestArxivSearchIDSeeded(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, atomFeed(atomEntry("1912.01412v1", "Deep Learning for Symbolic Mathematics", "Guillaume Lample")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{})
	results, err := a.Search(context.Background(), "fetch 1912.01412 for me", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := gotQuery.Get("id_list"); got != "1912.01412" {
		t.Errorf("id_list = %q, want %q", got, "1912.01412")
	}
	if gotQuery.Get("search_query") != "" {
		t.Errorf("ID-seeded search must not set search_query, got %q", gotQuery.Get("search_query"))
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	want := types.SearchResult{
		Title:          "Deep Learning for Symbolic Mathematics",
		DOI:            "10.48550/arXiv.1912.01412",
		Authors:        []string{"Guillaume Lample"},
		Abstract:       "Abstract of Deep Learning for Symbolic Mathematics.",
		DownloadLink:   "http://arxiv.org/pdf/1912.01412v1",
		RelevanceScore: types.UnscoredRelevance,
	}
	if !reflect.DeepEqual(results[0], want) {
		t.Errorf("got %+v, want %+v", results[0], want)
	}
}

func TestArxivSearchQueryBuilding(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, atomFeed(atomEntry("2301.07041", "Some Paper", "A. Author")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), []string{"Lample", "Charton"}, types.ArxivConfig{
		MaxResults: 50, PageSize: 50,
	})
	if _, err := a.Search(context.Background(), "symbolic mathematics", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Names go to the author field, the cleared query to the title field.
	want := "au:Lample AND Chartonti:symbolic mathematics"
	if got := gotQuery.Get("search_query"); got != want {
		t.Errorf("search_query = %q, want %q", got, want)
	}
	if gotQuery.Get("sortBy") != "relevance" || gotQuery.Get("sortOrder") != "descending" {
		t.Errorf("want sortBy=relevance sortOrder=descending, got %s/%s",
			gotQuery.Get("sortBy"), gotQuery.Get("sortOrder"))
	}
	if gotQuery.Get("max_results") != "50" || gotQuery.Get("start") != "0" {
		t.Errorf("want max_results=50 start=0, got %s/%s",
			gotQuery.Get("max_results"), gotQuery.Get("start"))
	}
}

func TestArxivSearchExtendedField(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, atomFeed(atomEntry("2301.07041", "Some Paper", "A. Author")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{MaxResults: 50, PageSize: 50})
	if _, err := a.Search(context.Background(), "symbolic mathematics", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotQuery.Get("search_query"); got != "all:symbolic mathematics" {
		t.Errorf("search_query = %q, want %q", got, "all:symbolic mathematics")
	}
}

func TestArxivEmptyFeedRetries(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, emptyFeed)
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{MaxRetries: 3})
	results, err := a.Search(context.Background(), "see 1912.01412", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from an empty feed, want 0", len(results))
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("feed fetched %d times, want 3 retries", got)
	}
}

func TestArxivEmptyFeedRecovers(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 2 {
			fmt.Fprint(w, emptyFeed)
			return
		}
		fmt.Fprint(w, atomFeed(atomEntry("1912.01412v1", "Recovered", "A. Author")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{MaxRetries: 3})
	results, err := a.Search(context.Background(), "see 1912.01412", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Recovered" {
		t.Errorf("got %+v, want the recovered entry", results)
	}
}

func TestArxivDropsForeignEntries(t *testing.T) {
	foreign := `
  <entry>
    <id>http://example.org/not-arxiv</id>
    <title>Impostor</title>
  </entry>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, atomFeed(foreign, atomEntry("2301.07041", "Genuine", "A. Author")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{})
	results, err := a.Search(context.Background(), "see 2301.07041", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Genuine" {
		t.Errorf("got %+v, want only the genuine arXiv entry", results)
	}
}

func TestArxivOldStyleID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, atomFeed(atomEntry("math.GT/0309136", "Knots", "V. Turaev")))
	}))
	defer srv.Close()
	pointArxivAPI(t, srv.URL+"/api/query")

	a := newTestArxiv(t, srv.Client(), nil, types.ArxivConfig{})
	results, err := a.Search(context.Background(), "math.GT/0309136", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if want := "10.48550/arXiv.math.GT/0309136"; results[0].DOI != want {
		t.Errorf("DOI = %q, want %q", results[0].DOI, want)
	}
}
