// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperdock/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage paperdock configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default paperdock.yaml to the working directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "paperdock.yaml"
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Println("Wrote", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
