// Package main runs the featurebook command line.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	featurebookcmd "github.com/louisbranch/featurebook/internal/cmd/featurebook"
	"github.com/louisbranch/featurebook/internal/platform/config"
)

func main() {
	cfg, err := featurebookcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[FEATUREBOOK] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = featurebookcmd.Run(ctx, cfg, os.Stdin, os.Stdout)
	stop()
	if code := featurebookcmd.ExitCode(err); code != 0 {
		config.Exitf(code, "%s", featurebookcmd.Message(cfg.Locale, err))
	}
}
