// Package cmd implements the vanthu command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/npnhat/vanthu/internal/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vanthu",
	Short: "vanthu - trợ lý ảo văn thư điện tử",
	Long: `vanthu serves the e-office assistant: a query router and
retrieval-augmented chat backend over a PostgreSQL + pgvector knowledge
base, grounded on Gemini embeddings and generation.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./vanthu.yaml)")
}

// newLogger builds the process logger. DEBUG in the environment switches
// on debug level.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo, JSON: true}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}
