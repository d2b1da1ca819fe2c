// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads paperdock configuration through viper, layering
// a YAML config file and PAPERDOCK_* environment variables over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperdock/pkg/types"
)

// Default returns the built-in configuration.
func Default() types.Config {
	return types.Config{
		Logging: types.LoggingConfig{Level: "info"},
		NLP: types.NLPConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 30 * time.Second},
			BaseURL:    "http://nlp:7234",
			Image:      "ghcr.io/pdiddy/paperdock-nlp:latest",
			Port:       7234,
		},
		CrossRef: types.CrossRefConfig{
			HTTPConfig:        types.HTTPConfig{Timeout: 30 * time.Second},
			Mailto:            "paperdock@example.com",
			MaxResults:        100,
			PageSize:          100,
			RequestsPerSecond: 10,
		},
		Arxiv: types.ArxivConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 30 * time.Second},
			MaxResults: 100,
			PageSize:   50,
			MaxRetries: 3,
		},
		Mirror: types.MirrorConfig{
			PrimaryHosts:  []string{"https://annas-archive.se/scidb", "https://annas-archive.org/scidb"},
			FallbackHosts: []string{"https://sci-hub.ru", "https://sci-hub.se", "https://sci-hub.st"},
			SampleDOI:     "10.1108/14684520810866010",
			ProbeTimeout:  4 * time.Second,
		},
		Publisher: types.PublisherConfig{
			Timeout: 2 * time.Second,
		},
		Stream:  types.StreamConfig{PageSize: 20},
		Library: types.LibraryConfig{},
		Server: types.ServerConfig{
			Addr:            ":7233",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from cfgFile, or discovers paperdock.yaml in
// the working directory and ~/.config/paperdock/. A missing config file
// is not an error; defaults apply.
func Load(cfgFile string) (types.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("paperdock")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "paperdock"))
		}
	}

	v.SetEnvPrefix("PAPERDOCK")
	v.AutomaticEnv()

	cfg := Default()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	apply(v, &cfg)
	return cfg, nil
}

// apply copies every key present in the viper instance onto cfg,
// leaving absent keys at their defaults.
func apply(v *viper.Viper, cfg *types.Config) {
	setString(v, "logging.level", &cfg.Logging.Level)

	setString(v, "nlp.base_url", &cfg.NLP.BaseURL)
	setString(v, "nlp.image", &cfg.NLP.Image)
	setInt(v, "nlp.port", &cfg.NLP.Port)
	setDuration(v, "nlp.timeout", &cfg.NLP.Timeout)

	setString(v, "crossref.mailto", &cfg.CrossRef.Mailto)
	setDuration(v, "crossref.timeout", &cfg.CrossRef.Timeout)
	setInt(v, "crossref.max_results", &cfg.CrossRef.MaxResults)
	setInt(v, "crossref.page_size", &cfg.CrossRef.PageSize)
	if v.IsSet("crossref.requests_per_second") {
		cfg.CrossRef.RequestsPerSecond = v.GetFloat64("crossref.requests_per_second")
	}

	setDuration(v, "arxiv.timeout", &cfg.Arxiv.Timeout)
	setInt(v, "arxiv.max_results", &cfg.Arxiv.MaxResults)
	setInt(v, "arxiv.page_size", &cfg.Arxiv.PageSize)
	setInt(v, "arxiv.max_retries", &cfg.Arxiv.MaxRetries)

	setStrings(v, "mirror.primary_hosts", &cfg.Mirror.PrimaryHosts)
	setStrings(v, "mirror.fallback_hosts", &cfg.Mirror.FallbackHosts)
	setString(v, "mirror.sample_doi", &cfg.Mirror.SampleDOI)
	setDuration(v, "mirror.probe_timeout", &cfg.Mirror.ProbeTimeout)

	setDuration(v, "publisher.timeout", &cfg.Publisher.Timeout)
	setStrings(v, "publisher.blacklist", &cfg.Publisher.Blacklist)

	setInt(v, "stream.page_size", &cfg.Stream.PageSize)

	setString(v, "library.path", &cfg.Library.Path)

	setString(v, "server.addr", &cfg.Server.Addr)
	setStrings(v, "server.allowed_origins", &cfg.Server.AllowedOrigins)
	setDuration(v, "server.shutdown_timeout", &cfg.Server.ShutdownTimeout)
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func setStrings(v *viper.Viper, key string, dst *[]string) {
	if v.IsSet(key) {
		*dst = v.GetStringSlice(key)
	}
}

func setInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func setDuration(v *viper.Viper, key string, dst *time.Duration) {
	if v.IsSet(key) {
		*dst = v.GetDuration(key)
	}
}

// WriteDefault writes the default configuration as YAML to path,
// refusing to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// NewLogger builds the process logger at the configured level, writing
// human-readable output to stderr.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}
