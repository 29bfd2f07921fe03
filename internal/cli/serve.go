package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/tracker/internal/api"
	"github.com/mesh-intelligence/tracker/internal/auth"
	"github.com/mesh-intelligence/tracker/internal/sqlite"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = 10 * time.Minute
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the issue API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.settings.ListenAddr = addr
			}
			return a.withBackend(func(b *sqlite.Backend) error {
				return a.serve(cmd.Context(), b, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides listen_addr)")
	return cmd
}

// newLogger builds the JSON logger used by the server.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// serve runs the HTTP server until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (a *app) serve(ctx context.Context, b *sqlite.Backend, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(logOut, a.settings.LogLevel)
	slog.SetDefault(logger)

	router := api.NewRouter(api.Deps{
		Issues:    b,
		Users:     b,
		Auth:      auth.NewAuthenticator(b, a.settings.SessionCookie),
		Health:    b,
		RateLimit: rate.Limit(a.settings.RateLimitRPS),
		Burst:     a.settings.RateLimitBurst,
	}, logger)

	srv := &http.Server{
		Addr:         a.settings.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("tracker server starting", "addr", srv.Addr, "data_dir", b.DataDir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sweepSessions(gctx, b, logger, sweepInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// sweepSessions deletes expired sessions every interval until ctx ends.
func sweepSessions(ctx context.Context, b *sqlite.Backend, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
