// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package main

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Gurman8r/modus-sub002/internal/host"
	"github.com/Gurman8r/modus-sub002/internal/observability"
)

// RunDeps contains injectable dependencies for the run command.
// All fields with nil values will use their default implementations.
type RunDeps struct {
	// HostDeps is passed to host.New after the logger is filled in.
	HostDeps host.Deps

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, extra ...prometheus.Collector) ObservabilityServer

	// LogWriter receives log output.
	// Default: os.Stderr
	LogWriter io.Writer
}

// ObservabilityServer is the subset of observability.Server used by run.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
