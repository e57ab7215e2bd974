package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/npnhat/vanthu/internal/app"
	"github.com/npnhat/vanthu/internal/config"
	"github.com/npnhat/vanthu/internal/ingest"
)

var (
	ingestCategory string
	ingestSource   string
	ingestStrategy string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Chunk a document file and store it in the knowledge base",
	Long: `Reads a plain-text document, splits it into chunks, embeds each
chunk, and stores the result. The semantic strategy embeds sentences to
find topic breaks; the cascade strategy splits on separators only and is
meant for bulk seeding.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), args[0])
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "chunk category label")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source document name (default: file name)")
	ingestCmd.Flags().StringVar(&ingestStrategy, "strategy", ingest.StrategySemantic,
		"chunking strategy: semantic or cascade")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, path string) error {
	logger := newLogger()

	content, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	source := ingestSource
	if source == "" {
		source = filepath.Base(path)
	}

	report, err := a.Ingest.Ingest(ctx, string(content), ingestCategory, source, ingestStrategy)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", source, err)
	}

	fmt.Printf("Stored %d chunks from %s\n", report.ChunksStored, source)
	return nil
}
