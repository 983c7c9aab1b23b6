// Package main is the CodePath terminal client. With no command (or with
// "shell") it starts an interactive session; otherwise it runs one command and
// exits.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/codepath/internal/client/api"
	"github.com/atinyakov/codepath/internal/client/session"
	"github.com/atinyakov/codepath/internal/client/shell"
	"github.com/atinyakov/codepath/internal/client/tokenstore"
	"github.com/atinyakov/codepath/internal/client/views"
	"github.com/atinyakov/codepath/internal/config"
	"github.com/atinyakov/codepath/internal/logger"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "codepath:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := config.ParseClient(args)
	if err != nil {
		return err
	}
	if opts.Version {
		fmt.Fprintf(stdout, "CodePath Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return nil
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(opts.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := tokenstore.Open(opts.Store, opts.TokenPath, opts.TokenDSN)
	if err != nil {
		return err
	}
	if c, ok := tokens.(io.Closer); ok {
		defer c.Close()
	}

	httpClient, err := api.NewHTTPClient(opts.CAFile, opts.Timeout)
	if err != nil {
		return err
	}
	client := api.New(opts.APIURL, tokens, api.WithHTTPClient(httpClient), api.WithLogger(zapLogger))
	ctrl := session.New(ctx, client, tokens, zapLogger)
	client.OnTokenChange(ctrl.TokenChanged)

	sh := shell.New(client, ctrl, views.NewLinePrompter(stdin, stdout), stdout, zapLogger)

	cmdArgs := opts.Args
	if len(cmdArgs) == 0 || cmdArgs[0] == "shell" {
		zapLogger.Debug("starting shell", zap.String("api", opts.APIURL), zap.String("store", opts.Store))
		return sh.Run(ctx, opts.Revalidate)
	}

	if err := ctrl.Bootstrap(ctx); err != nil {
		zapLogger.Debug("session bootstrap failed", zap.Error(err))
	}
	if err := sh.Exec(ctx, cmdArgs); err != nil && !errors.Is(err, shell.ErrExit) {
		return err
	}
	return nil
}
