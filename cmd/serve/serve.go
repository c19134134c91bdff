// Package serve holds the long running service command: HTTP triggers plus
// the cron scheduled polls.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahulcharvekar/reconciliation-service/cmd/root"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
	"github.com/rahulcharvekar/reconciliation-service/internal/scheduler"
	"github.com/rahulcharvekar/reconciliation-service/internal/server"
)

const shutdownTimeout = 30 * time.Second

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled polls until interrupted",
	Long: `Start the HTTP server exposing:
  POST /api/mt940/ingest     run one MT940 poll
  POST /api/van/ingest       run one VAN poll
  GET  /api/runs?limit=N     recent import runs
  GET  /api/runs/{id}/errors import errors of a run
  GET  /healthz

Polls are also started on the cron expressions of schedule.mt940 and
schedule.van when set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := root.GetContainer()
		cfg := c.GetConfig()
		logger := c.GetLogger()
		svc := c.GetService()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched, err := scheduler.New(cfg.Schedule.Timezone, []scheduler.Job{
			{Name: "MT940", Spec: cfg.Schedule.MT940, Poll: svc.PollMT940},
			{Name: "VAN", Spec: cfg.Schedule.VAN, Poll: svc.PollVAN},
		}, logger)
		if err != nil {
			return err
		}
		sched.Start()

		srv := server.New(svc, logger, server.Options{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		})
		serveErr := srv.ListenAndServe(ctx, shutdownTimeout)

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			logger.WithError(err).Warn("Scheduler did not stop in time")
		}
		logger.Info("Service stopped", logging.F("jobs", sched.Jobs()))
		return serveErr
	},
}
