// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Page is a fully read HTTP response body plus the metadata link
// resolution cares about.
type Page struct {
	// Body is the response body decoded as text.
	Body string

	// FinalURL is the request URL after any redirects the client followed.
	FinalURL string

	// ContentType is the raw Content-Type header value.
	ContentType string

	// StatusCode is the HTTP status.
	StatusCode int
}

// FetchPage GETs url with the given timeout and user agent and reads the
// whole body before the timeout context is released. Reading inside the
// timeout matters: the context cancels the body stream too, so a caller
// holding an unread body past this function would see truncation errors.
func FetchPage(ctx context.Context, client *http.Client, url string, timeout time.Duration, userAgent string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		Body:        string(body),
		FinalURL:    finalURL,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// NoRedirectClient returns a client that surfaces redirect responses
// instead of following them, sharing the given client's transport.
func NoRedirectClient(base *http.Client) *http.Client {
	c := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	if base != nil {
		c.Transport = base.Transport
		c.Timeout = base.Timeout
	}
	return c
}
