// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdock/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the streaming search HTTP API",
	Long: `Serve starts the HTTP API. GET /search streams link-resolved result
pages as server-sent events. The mirror network connection is established
at startup; if no mirror is reachable the server refuses to start, since
every link lookup depends on one.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := eng.resolver.EstablishMirror(ctx); err != nil {
		return fmt.Errorf("establishing mirror: %w", err)
	}

	srv := server.New(eng.analyzer, eng.crossref, eng.arxiv, eng.streamer, cfg.Server, eng.log)
	return srv.Run(ctx)
}
