// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mirror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/pkg/types"
)

const sampleDOI = "10.1108/14684520810866010"

// mirrorServer serves html for every DOI path and counts requests.
func mirrorServer(t *testing.T, html string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, html)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testResolver(cfg types.MirrorConfig) *Resolver {
	cfg.SampleDOI = sampleDOI
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 2 * time.Second
	}
	return NewResolver(&http.Client{}, cfg, zerolog.Nop())
}

func TestEstablishMirrorPrefersPrimaryFamily(t *testing.T) {
	primary, _ := mirrorServer(t, "<html></html>")
	fallback, _ := mirrorServer(t, "<html></html>")

	r := testResolver(types.MirrorConfig{
		PrimaryHosts:  []string{"http://127.0.0.1:1", primary.URL},
		FallbackHosts: []string{fallback.URL},
	})

	got, err := r.EstablishMirror(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != primary.URL {
		t.Errorf("established %s, want primary %s", got, primary.URL)
	}
}

func TestEstablishMirrorFallsBack(t *testing.T) {
	fallback, _ := mirrorServer(t, "<html></html>")

	r := testResolver(types.MirrorConfig{
		PrimaryHosts:  []string{"http://127.0.0.1:1"},
		FallbackHosts: []string{fallback.URL},
	})

	got, err := r.EstablishMirror(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != fallback.URL {
		t.Errorf("established %s, want fallback %s", got, fallback.URL)
	}
}

func TestEstablishMirrorRejectsErrorStatus(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer gone.Close()
	alive, _ := mirrorServer(t, "<html></html>")

	r := testResolver(types.MirrorConfig{
		PrimaryHosts: []string{gone.URL, alive.URL},
	})

	got, err := r.EstablishMirror(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != alive.URL {
		t.Errorf("established %s, want %s", got, alive.URL)
	}
}

func TestEstablishMirrorNoSurvivor(t *testing.T) {
	r := testResolver(types.MirrorConfig{
		PrimaryHosts:  []string{"http://127.0.0.1:1"},
		FallbackHosts: []string{"http://127.0.0.1:1"},
	})

	if _, err := r.EstablishMirror(context.Background()); !errors.Is(err, ErrNoMirror) {
		t.Fatalf("got %v, want ErrNoMirror", err)
	}

	// The failed probe is memoized; later lookups fail without re-probing.
	if _, err := r.DownloadLink(context.Background(), "10.1000/x"); !errors.Is(err, ErrNoMirror) {
		t.Fatalf("got %v, want ErrNoMirror", err)
	}
}

func TestEstablishMirrorProbesOnce(t *testing.T) {
	srv, hits := mirrorServer(t, "<html></html>")

	r := testResolver(types.MirrorConfig{PrimaryHosts: []string{srv.URL}})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.EstablishMirror(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("host probed %d times, want 1", got)
	}
}

func TestDownloadLinkEmptyDOI(t *testing.T) {
	r := testResolver(types.MirrorConfig{PrimaryHosts: []string{"http://127.0.0.1:1"}})

	got, err := r.DownloadLink(context.Background(), "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("got %+v, want empty link", got)
	}
}

func TestDownloadLinkPrimaryAnchor(t *testing.T) {
	srv, _ := mirrorServer(t, `
		<html><body>
		<a href="/about">About</a>
		<a href="https://cdn.example.org/paper.pdf">Download</a>
		</body></html>`)

	r := testResolver(types.MirrorConfig{PrimaryHosts: []string{srv.URL}})

	got, err := r.DownloadLink(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := types.LinkResult{Link: "https://cdn.example.org/paper.pdf", Guarantee: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDownloadLinkPrimaryNoAnchor(t *testing.T) {
	srv, _ := mirrorServer(t, `<html><body><a href="/about">About</a></body></html>`)

	r := testResolver(types.MirrorConfig{PrimaryHosts: []string{srv.URL}})

	got, err := r.DownloadLink(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("got %+v, want empty link", got)
	}
}

func TestDownloadLinkFallbackButton(t *testing.T) {
	tests := []struct {
		name    string
		onclick string
		want    func(mirror string) string
	}{
		{
			name:    "protocol relative location",
			onclick: "location.href='//cdn.example.org/paper.pdf'",
			want:    func(string) string { return "https://cdn.example.org/paper.pdf" },
		},
		{
			name:    "mirror relative location",
			onclick: "location.href='/downloads/paper.pdf'",
			want:    func(mirror string) string { return mirror + "/downloads/paper.pdf" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := mirrorServer(t, fmt.Sprintf(
				`<html><body><button onclick="%s">save</button></body></html>`, tt.onclick))

			r := testResolver(types.MirrorConfig{FallbackHosts: []string{srv.URL}})

			got, err := r.DownloadLink(context.Background(), "10.1000/x")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := types.LinkResult{Link: tt.want(srv.URL), Guarantee: true}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestDownloadLinkFallbackNoButton(t *testing.T) {
	srv, _ := mirrorServer(t, `<html><body><p>article not found</p></body></html>`)

	r := testResolver(types.MirrorConfig{FallbackHosts: []string{srv.URL}})

	got, err := r.DownloadLink(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("got %+v, want empty link", got)
	}
}

func TestDownloadLinkUnreachableWorkIsNotFatal(t *testing.T) {
	// The mirror answers the probe, then goes dark for the lookup.
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) > 1 {
			time.Sleep(200 * time.Millisecond)
		}
		fmt.Fprint(w, "<html></html>")
	}))
	defer srv.Close()

	r := testResolver(types.MirrorConfig{
		PrimaryHosts: []string{srv.URL},
		ProbeTimeout: 100 * time.Millisecond,
	})

	if _, err := r.EstablishMirror(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := r.DownloadLink(context.Background(), "10.1000/x")
	if err != nil {
		t.Fatalf("lookup timeout should not be fatal, got: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("got %+v, want empty link", got)
	}
}
