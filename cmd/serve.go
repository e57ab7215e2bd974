package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/npnhat/vanthu/api"
	"github.com/npnhat/vanthu/internal/app"
	"github.com/npnhat/vanthu/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	logger := newLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	srv := api.NewServer(api.Deps{
		Pool:      a.Pool,
		Router:    a.Router,
		Chat:      a.Assembler,
		Keywords:  a.Keywords,
		Cache:     a.Cache,
		Knowledge: a.Knowledge,
		Ingest:    a.Ingest,
		Logger:    logger,
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	return srv.Run(ctx, addr)
}
