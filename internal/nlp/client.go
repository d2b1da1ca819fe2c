// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package nlp is the client for the external text-classification service
// that extracts author names, keywords, and stop-word-reduced queries.
// The service is stateless and may be arbitrarily slow, so every response
// is memoized per input string and callers are expected to fan out when
// they need more than one extraction.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperdock/pkg/types"
)

// Client calls the NLP service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
	log     zerolog.Logger
}

// New returns a Client for the service at cfg.BaseURL.
func New(cfg types.NLPConfig, client *http.Client, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client:  client,
		cache:   gocache.New(gocache.NoExpiration, 0),
		log:     log.With().Str("component", "nlp").Logger(),
	}
}

// ExtractNames returns the author names the service finds in query.
func (c *Client) ExtractNames(ctx context.Context, query string) ([]string, error) {
	return c.stringList(ctx, "extract_names", query)
}

// ExtractKeywords returns the keywords the service finds in query.
func (c *Client) ExtractKeywords(ctx context.Context, query string) ([]string, error) {
	return c.stringList(ctx, "extract_keywords", query)
}

// RemoveStopWords returns query reduced to its meaningful terms.
func (c *Client) RemoveStopWords(ctx context.Context, query string) (string, error) {
	key := "remove_stop_words\x00" + query
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}

	var out string
	if err := c.post(ctx, "remove_stop_words", query, &out); err != nil {
		return "", err
	}
	c.cache.SetDefault(key, out)
	return out, nil
}

func (c *Client) stringList(ctx context.Context, op, query string) ([]string, error) {
	key := op + "\x00" + query
	if v, ok := c.cache.Get(key); ok {
		return v.([]string), nil
	}

	var out []string
	if err := c.post(ctx, op, query, &out); err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, out)
	return out, nil
}

func (c *Client) post(ctx context.Context, op, query string, out any) error {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("NLP %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("NLP %s returned HTTP %d", op, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", op, err)
	}
	return nil
}
