// Package api runs the HTTP surface of the scheduling service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayurmitra/scheduler/api/scheduling"
	"github.com/ayurmitra/scheduler/infra/logger"
)

// Serve exposes the scheduling API and Prometheus metrics on addr until the
// context is cancelled.
func Serve(ctx context.Context, addr string, svc scheduling.Scheduler, token string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", scheduling.NewScheduleHandler(svc, token))
	mux.Handle("/api/agenda", scheduling.NewAgendaHandler(svc, token))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("http server shutdown: %v", err)
		}
	}()
	log.Infof("http server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
