package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/clever-parlay/internal/datasource"
	"github.com/yourusername/clever-parlay/internal/health"
	"github.com/yourusername/clever-parlay/internal/metrics"
	"github.com/yourusername/clever-parlay/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled settlement, the live score stream and health endpoints",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Starting parlay engine")

	a, err := newApp(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer a.close()

	checks := map[string]health.Checker{"database": a.db}
	if a.redis != nil {
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}

	healthServer := health.NewServer(health.Config{
		ServiceName:    cfg.App.Name,
		Version:        Version,
		Commit:         GitCommit,
		Addr:           fmt.Sprintf(":%d", cfg.Metrics.Port),
		MetricsPath:    cfg.Metrics.Path,
		MetricsHandler: metricsHandler(),
		Logger:         appLog,
		Checks:         checks,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if cfg.Metrics.GRPCPort > 0 {
		grpcServer := health.NewGRPCServer(fmt.Sprintf(":%d", cfg.Metrics.GRPCPort), cfg.App.Name, healthServer, appLog)
		if err := grpcServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start grpc health server: %w", err)
		}
	}

	sched := scheduler.NewScheduler(appLog)
	if err := sched.ScheduleSweep(cfg.Settlement.SweepSchedule, a.engine); err != nil {
		return err
	}
	lookback := time.Duration(cfg.Settlement.PollLookbackHours) * time.Hour
	if err := sched.ScheduleSettlementPoll(cfg.Settlement.PollSchedule, lookback, a.engine); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Warn("Scheduler did not stop cleanly")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Features.ScoreStreamEnabled {
		reconnect := datasource.DefaultReconnectConfig()
		if cfg.ScoreStream.ReconnectSeconds > 0 {
			reconnect.InitialBackoff = time.Duration(cfg.ScoreStream.ReconnectSeconds) * time.Second
		}
		stream := datasource.NewScoreStream(cfg.ScoreStream.URL, cfg.ScoreStream.ScoreStreamSports(), a.engine, reconnect, appLog)
		g.Go(func() error {
			return stream.Run(gctx)
		})
	}

	healthServer.SetReady(true)
	appLog.WithField("next_run", sched.GetNextRun()).Info("Parlay engine ready")

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = g.Wait()
	healthServer.SetReady(false)
	appLog.Info("Shutting down parlay engine")

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func metricsHandler() http.Handler {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.Handler()
}
