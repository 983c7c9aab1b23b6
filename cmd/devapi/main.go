// Package main runs the CodePath development API: an in-memory server with
// a seeded catalog that speaks the same JSON contract as the real backend.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/codepath/internal/config"
	"github.com/atinyakov/codepath/internal/logger"
	"github.com/atinyakov/codepath/internal/server"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to build server", zap.Error(err))
	}
	if options.Demo {
		zapLogger.Info("demo account ready", zap.String("email", server.DemoEmail))
	}

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
