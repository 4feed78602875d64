// Package cmd holds the startup plumbing shared by featurebook commands:
// environment then flag configuration, and telemetry around the run loop.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/louisbranch/featurebook/internal/platform/config"
	"github.com/louisbranch/featurebook/internal/platform/otel"
	"github.com/louisbranch/featurebook/internal/platform/timeouts"
)

// ServiceFeaturebook names the featurebook CLI in telemetry resources.
const ServiceFeaturebook = "featurebook"

// LoadConfig fills cfg from FEATUREBOOK_* environment variables, lets bind
// register flags on fs defaulting to those values, then parses args. Flags
// given on the command line win over the environment.
func LoadConfig[T any](cfg *T, fs *flag.FlagSet, args []string, bind func(*flag.FlagSet, *T)) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if fs == nil {
		return errors.New("flag set is required")
	}
	if err := config.ParseEnv(cfg); err != nil {
		return err
	}
	if bind != nil {
		bind(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs the tracer provider for service, runs run and
// flushes pending spans before returning run's error.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.OTelShutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()
	return run(ctx)
}
