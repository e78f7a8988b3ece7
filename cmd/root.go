package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/montfort-alumni/slambook-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "slambook-cli",
	Short: "Slambook ingestion pipeline for the alumni directory",
	Long:  "Ingests slambook CSV/XLSX exports, fuzzy-matches entries against existing alumni profiles, and merges them with answer replacement.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
