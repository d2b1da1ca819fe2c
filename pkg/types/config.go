// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests. An
	// empty value means a rotating browser user agent is used instead.
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NLPConfig holds settings for the external NLP capability.
type NLPConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the NLP service endpoint (e.g. "http://nlp:7234").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Image is the container image for the NLP sidecar, managed by the
	// "nlp up" and "nlp down" commands.
	Image string `json:"image" yaml:"image"`

	// Port is the host port the NLP sidecar is published on (default 7234).
	Port int `json:"port" yaml:"port"`
}

// CrossRefConfig holds settings for the CrossRef connector.
type CrossRefConfig struct {
	HTTPConfig `yaml:",inline"`

	// Mailto is the contact address embedded in the etiquette User-Agent
	// sent to CrossRef for polite pool access.
	Mailto string `json:"mailto" yaml:"mailto"`

	// MaxResults caps the number of search results fetched (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageSize is the number of rows requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// RequestsPerSecond limits the request rate to CrossRef (default 10).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ArxivConfig holds settings for the arXiv connector.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults caps the number of search results fetched (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageSize is the number of entries requested per page (default 50).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxRetries bounds re-fetch attempts when the API returns a valid
	// but empty feed (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// MirrorConfig holds settings for the mirror network resolver.
type MirrorConfig struct {
	// PrimaryHosts lists the high-guarantee mirror family in preference
	// order. A reachable primary host wins outright over any fallback.
	PrimaryHosts []string `json:"primary_hosts" yaml:"primary_hosts"`

	// FallbackHosts lists the fallback mirror family in preference order.
	FallbackHosts []string `json:"fallback_hosts" yaml:"fallback_hosts"`

	// SampleDOI is the known-present DOI used for reachability probes.
	SampleDOI string `json:"sample_doi" yaml:"sample_doi"`

	// ProbeTimeout bounds each probe and each per-DOI page fetch
	// (default 4s).
	ProbeTimeout time.Duration `json:"probe_timeout" yaml:"probe_timeout"`
}

// PublisherConfig holds settings for the publisher page classifier.
type PublisherConfig struct {
	// Timeout bounds the publisher landing page fetch (default 2s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Blacklist lists DOI prefixes of publishers known to never expose
	// public PDFs. Lookups against it must stay O(1).
	Blacklist []string `json:"blacklist" yaml:"blacklist"`
}

// StreamConfig holds settings for paged result streaming.
type StreamConfig struct {
	// PageSize is the number of results resolved and emitted per page
	// (default 20). It also bounds peak outstanding link resolutions.
	PageSize int `json:"page_size" yaml:"page_size"`
}

// LibraryConfig holds settings for the local owned-papers index.
type LibraryConfig struct {
	// Path is the SQLite database file. Empty disables the library lookup.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":7233").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins configures CORS for browser-based callers.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the zerolog level name (default "info").
	Level string `json:"level" yaml:"level"`
}

// Config groups all component configurations.
type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	NLP       NLPConfig       `json:"nlp" yaml:"nlp"`
	CrossRef  CrossRefConfig  `json:"crossref" yaml:"crossref"`
	Arxiv     ArxivConfig     `json:"arxiv" yaml:"arxiv"`
	Mirror    MirrorConfig    `json:"mirror" yaml:"mirror"`
	Publisher PublisherConfig `json:"publisher" yaml:"publisher"`
	Stream    StreamConfig    `json:"stream" yaml:"stream"`
	Library   LibraryConfig   `json:"library" yaml:"library"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}
