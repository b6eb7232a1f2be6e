package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayurmitra/scheduler/app"
	"github.com/ayurmitra/scheduler/config"
)

var agendaDate string

var agendaCmd = &cobra.Command{
	Use:   "agenda THERAPIST_ID",
	Short: "Print a therapist's consultations for one day",
	Args:  cobra.ExactArgs(1),
	RunE:  runAgenda,
}

func init() {
	agendaCmd.Flags().StringVar(&agendaDate, "date", "", "day to list, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(agendaCmd)
}

func runAgenda(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	day := time.Now()
	if agendaDate != "" {
		parsed, err := time.Parse("2006-01-02", agendaDate)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", agendaDate, err)
		}
		day = parsed
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	consultations, err := svc.DailySchedule(ctx, args[0], day)
	if err != nil {
		return err
	}
	if len(consultations) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no consultations for %s on %s\n", args[0], day.Format("2006-01-02"))
		return nil
	}
	for _, c := range consultations {
		fmt.Fprintf(cmd.OutOrStdout(), "%s-%s  %-20s patient=%s plan=%s day=%d status=%s\n",
			c.ScheduledAt.Format("15:04"), c.EndTime.Format("15:04"),
			c.TherapyName, c.PatientID, c.PlanID, c.DayNumber, c.Status)
	}
	return nil
}
