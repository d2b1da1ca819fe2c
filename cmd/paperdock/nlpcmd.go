// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdock/internal/container"
)

// nlpContainerName is the name the sidecar container runs under.
const nlpContainerName = "paperdock-nlp"

var nlpCmd = &cobra.Command{
	Use:   "nlp",
	Short: "Manage the NLP sidecar container",
}

var nlpUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the NLP sidecar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		if err := rt.ImageExists(cfg.NLP.Image); err != nil {
			return err
		}
		if err := rt.StartService(cfg.NLP.Image, nlpContainerName, cfg.NLP.Port); err != nil {
			return err
		}
		fmt.Printf("Started %s via %s on port %d\n", nlpContainerName, rt.Name(), cfg.NLP.Port)
		return nil
	},
}

var nlpDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the NLP sidecar",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := container.DetectRuntime()
		if err != nil {
			return err
		}
		if err := rt.StopService(nlpContainerName); err != nil {
			return err
		}
		fmt.Println("Stopped", nlpContainerName)
		return nil
	},
}

func init() {
	nlpCmd.AddCommand(nlpUpCmd)
	nlpCmd.AddCommand(nlpDownCmd)
	rootCmd.AddCommand(nlpCmd)
}
