package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diasporalink/backend/internal/config"
	"github.com/diasporalink/backend/internal/handlers"
	"github.com/diasporalink/backend/internal/httpserver"
	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/metrics"
	"github.com/diasporalink/backend/internal/middleware"
)

// visitorTTL is how long an idle client keeps its throttle bucket.
const visitorTTL = 10 * time.Minute

// Run bootstraps the DiasporaLink backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.Admin.PasswordHash == "" {
		logger.Warn("admin password hash not set, admin login is disabled")
	}

	b, closeBackends, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackends()

	m := metrics.New()
	deps, err := buildDependencies(ctx, b, cfg, m)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.AppPort, newHandler(logger, m, cfg, deps))

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"store", cfg.Store,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"media_uploads", deps.Media != nil,
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newHandler mounts the routes behind request logging and the per-client
// burst throttle.
func newHandler(logger *slog.Logger, m *metrics.Metrics, cfg config.Config, deps handlers.Dependencies) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	burst := middleware.NewBurstLimiter(cfg.RateLimit.ThrottleRPS, cfg.RateLimit.ThrottleBurst, visitorTTL)
	return middleware.Chain(mux,
		middleware.RequestLogger(logger, m),
		middleware.Throttle(burst),
	)
}
