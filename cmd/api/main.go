// Package main is the entry point for the printer selection API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/spk/internal/api"
	"github.com/onnwee/spk/internal/config"
	"github.com/onnwee/spk/internal/health"
	"github.com/onnwee/spk/internal/middleware"
	"github.com/onnwee/spk/internal/printer"
	"github.com/onnwee/spk/internal/ranking"
	"github.com/onnwee/spk/internal/tracing"
)

const serviceName = "spk-api"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// shutdownTimeout bounds graceful shutdown after a termination signal.
const shutdownTimeout = 10 * time.Second

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", os.Getenv("SPK_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	if *help {
		fmt.Println("SPK Printer Selection API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run builds the application and serves it until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Enabled:        cfg.TracingEnabled,
		Environment:    cfg.Env,
		ExporterType:   cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRate:   cfg.TracingSampleRate,
		InsecureMode:   cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Port, err)
	}

	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, server, ln, logger)
}

// serve runs server on ln until ctx is done, then shuts it down gracefully,
// letting in-flight requests finish.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// app is the wired HTTP application.
type app struct {
	handler http.Handler
	redis   *redis.Client
}

// Close releases the Redis connection pool, if any.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
}

// newApp wires the ranking service, handlers and middleware chain.
// Metrics are registered on reg and served from /metrics. Background work
// (rate limit cleanup) stops when ctx is done.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*app, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}
	printerMetrics := printer.NewMetrics()
	if err := printerMetrics.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register printer metrics: %w", err)
	}

	tieBreak, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking calibration: %w", err)
	}

	a := &app{}
	healthCfg := api.HealthHandlersConfig{Calibration: tieBreak.String()}

	var store middleware.RateLimitStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		store = middleware.NewRedisRateLimitStore(a.redis).WithMetrics(httpMetrics)
		healthCfg.RedisChecker = health.NewRedisChecker(a.redis)
		logger.Info("rate limiting backed by redis", "addr", opts.Addr)
	} else {
		memStore := middleware.NewInMemoryRateLimitStore()
		memStore.StartCleanup(ctx, time.Minute)
		store = memStore
		logger.Info("rate limiting in memory")
	}

	service := printer.NewService(tieBreak, printerMetrics)
	router := api.NewRouter(api.RouterConfig{
		Printers: api.NewPrinterHandlers(service, cfg.MaxBodyBytes),
		Health:   api.NewHealthHandlers(healthCfg),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	limit := middleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimitRequests,
		WindowDuration:    cfg.RateLimitWindow(),
	}
	if err := limit.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit: %w", err)
	}

	// Outermost first: RequestID -> Logging -> Tracing -> HTTPMetrics -> CORS ->
	// RateLimiter (find-printer only) -> Profiling -> Timeout -> router.
	var handler http.Handler = http.TimeoutHandler(router, cfg.RequestTimeout(),
		`{"error":{"code":"timeout","message":"Request timed out"}}`)
	handler = middleware.Profiling(middleware.ProfilingConfig{
		Enabled:     cfg.ProfilingEnabled,
		Environment: cfg.Env,
	})(handler)
	handler = limitPath(middleware.FindPrinterPath,
		middleware.RateLimiter(store, limit, middleware.IPKeyFunc(), httpMetrics))(handler)
	handler = middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins})(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	a.handler = handler
	return a, nil
}

// limitPath applies mw only to requests for path.
func limitPath(path string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == path {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
