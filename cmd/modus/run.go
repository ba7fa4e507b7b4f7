// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Gurman8r/modus-sub002/internal/config"
	"github.com/Gurman8r/modus-sub002/internal/host"
	"github.com/Gurman8r/modus-sub002/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Run the runtime loop with the configured plugins",
		Long: `Run installs the configured plugin modules, runs the frame loop until
the frame limit is reached or the process is interrupted, then uninstalls
every module in reverse order and verifies that no memory leaked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithDeps(cmd.Context(), cmd, args, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runWithDeps runs the host with injectable dependencies.
// If deps is nil, default implementations are used.
func runWithDeps(ctx context.Context, cmd *cobra.Command, args []string, deps *RunDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &RunDeps{}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, extra ...prometheus.Collector) ObservabilityServer {
			return observability.NewServer(addr, ready, extra...)
		}
	}

	path, err := config.Locate(configFile)
	if err != nil {
		return fmt.Errorf("failed to locate config: %w", err)
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := setupLogging(cfg.Log, deps.LogWriter)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Info("starting runtime",
		"config", path,
		"plugins", len(cfg.Plugins.Files),
		"frames", cfg.Loop.Frames)

	hdeps := deps.HostDeps
	hdeps.Logger = logger
	if hdeps.Args == nil {
		hdeps.Args = args
	}
	h, err := host.New(*cfg, hdeps)
	if err != nil {
		return fmt.Errorf("failed to build host: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, h.Ready, h.Collector())
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return errors.Join(fmt.Errorf("failed to start observability server: %w", err), closeHost(h, logger))
		}
		g.Go(func() error {
			return monitorServerErrors(gctx, obsErrChan, "observability")
		})
	}

	g.Go(func() error {
		defer cancel()
		return h.Run(gctx)
	})

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("runtime stopped with error", "error", runErr)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	closeErr := h.Close(shutdownCtx)
	if closeErr != nil {
		logger.Error("runtime shutdown failed", "error", closeErr)
	}
	if runErr == nil && closeErr == nil {
		cmd.Println("runtime stopped")
		logger.Info("shutdown complete")
	}
	return errors.Join(runErr, closeErr)
}

func closeHost(h *host.Host, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Close(ctx)
	if err != nil {
		logger.Error("runtime shutdown failed", "error", err)
	}
	return err
}

// monitorServerErrors returns the first error a background server reports,
// or nil once ctx is done or the server stops cleanly.
func monitorServerErrors(ctx context.Context, errCh <-chan error, name string) error {
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-errCh:
		if !ok || err == nil {
			return nil
		}
		slog.Error("server failed", "server", name, "error", err)
		return fmt.Errorf("%s server: %w", name, err)
	}
}
