package cmd

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"games-dashboard/server"
	"games-dashboard/snapshot"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save screenshots of every dashboard tab",
	Long: `Serves the dashboard on a loopback port and saves a full-page PNG of each
tab with headless Chrome into a new run directory under snapshot.output_dir.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dashboard, release, err := newDashboard(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	opts := serverOptions(cfg)
	opts.AccessLog = false
	srv, err := server.New(dashboard, opts, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	go func() {
		if err := srv.Serve(ln); err != nil {
			logger.Error("[snapshot] Dashboard server stopped: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	capturer := snapshot.New(snapshot.Options{
		OutputDir:   cfg.Snapshot.OutputDir,
		ChromeBin:   cfg.Snapshot.ChromeBin,
		Concurrency: cfg.Snapshot.Concurrency,
		RateLimitMs: cfg.Snapshot.RateLimitMs,
		Timeout:     cfg.Snapshot.Timeout,
		Width:       cfg.Snapshot.Width,
		Height:      cfg.Snapshot.Height,
	}, cfg.RetryPolicy(logger), logger)

	run, err := capturer.Capture(ctx, "http://"+ln.Addr().String(), snapshot.DefaultPages())
	if run != nil {
		logger.Info("[snapshot] Run %s written to %s", run.ID, run.Dir)
	}
	return err
}
