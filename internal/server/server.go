// Package server assembles the CodePath development API: an in-memory
// repository with the seeded catalog, the services and the HTTP router.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/codepath/internal/config"
	"github.com/atinyakov/codepath/internal/repository"
	handler "github.com/atinyakov/codepath/internal/server/handler/http"
	"github.com/atinyakov/codepath/internal/service"
	"go.uber.org/zap"
)

// Demo account seeded when ServerOptions.Demo is set.
const (
	DemoEmail    = "alice@example.com"
	DemoPassword = "testpass123"
)

// Server is a wired development API.
type Server struct {
	Repo     *repository.Memory
	Auth     *service.AuthService
	Learning *service.LearningService
	Handler  http.Handler

	opts *config.ServerOptions
	log  *zap.Logger
}

// New seeds a fresh repository and builds the router over it.
func New(ctx context.Context, opts *config.ServerOptions, log *zap.Logger) (*Server, error) {
	repo := repository.NewMemory()
	if err := repository.Seed(ctx, repo); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	auth := service.NewAuthService(repo, opts.TokenTTL, opts.RefreshGrace)
	learning := service.NewLearningService(repo)

	if opts.Demo {
		name := "Alice"
		if _, err := auth.Signup(ctx, DemoEmail, DemoPassword, &name); err != nil {
			return nil, fmt.Errorf("seed demo account: %w", err)
		}
	}

	router := handler.NewRouter(
		&handler.AuthHandler{AuthService: auth},
		&handler.LearningHandler{Service: learning},
		auth,
		log,
	)
	return &Server{
		Repo:     repo,
		Auth:     auth,
		Learning: learning,
		Handler:  router,
		opts:     opts,
		log:      log,
	}, nil
}

// Run starts the token sweeper and serves until ctx is cancelled. HTTPS is
// used when a certificate and key are configured.
func (s *Server) Run(ctx context.Context) error {
	if s.opts.SweepInterval > 0 {
		service.StartTokenSweeper(ctx, s.Auth, s.opts.SweepInterval, s.log)
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tlsOn := s.opts.TLSCert != ""
	if tlsOn {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting devapi", zap.String("addr", s.opts.Addr), zap.Bool("tls", tlsOn))
		var err error
		if tlsOn {
			err = srv.ListenAndServeTLS(s.opts.TLSCert, s.opts.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
