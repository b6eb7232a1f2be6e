package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayurmitra/scheduler/app"
	"github.com/ayurmitra/scheduler/config"
	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/pkg/export"
)

var (
	scheduleForce  bool
	scheduleFormat string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule PLAN_ID [PLAN_ID...]",
	Short: "Schedule consultations for the given treatment plans",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleForce, "force", false, "reschedule plans that are already scheduled")
	scheduleCmd.Flags().StringVar(&scheduleFormat, "format", "json", "output format: json or csv")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
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

	result, err := svc.Schedule(ctx, engine.Request{PlanIDs: args, Force: scheduleForce})
	if err != nil {
		return err
	}

	switch scheduleFormat {
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), result)
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), result)
	default:
		return fmt.Errorf("unknown format %q", scheduleFormat)
	}
}
