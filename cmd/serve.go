package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayurmitra/scheduler/api"
	"github.com/ayurmitra/scheduler/app"
	"github.com/ayurmitra/scheduler/config"
	"github.com/ayurmitra/scheduler/infra/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling HTTP service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return api.Serve(ctx, cfg.API.Addr, svc, cfg.API.Token, logger.New("api"))
}
