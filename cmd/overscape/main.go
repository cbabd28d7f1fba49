package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/steinbro/overscape-server/pkg/cache"
	"github.com/steinbro/overscape-server/pkg/config"
	"github.com/steinbro/overscape-server/pkg/monitoring"
	"github.com/steinbro/overscape-server/pkg/overpass"
	"github.com/steinbro/overscape-server/pkg/server"
	"github.com/steinbro/overscape-server/pkg/tiles"
	"github.com/steinbro/overscape-server/pkg/tracing"
	ver "github.com/steinbro/overscape-server/pkg/version"
)

var (
	showVersion bool
	debug       bool
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(ver.String())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.Log.Level)
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, ver.BuildVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		// Continue without tracing - it's not critical
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
	}

	logger.Info("starting overscape server",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"overpass_url", cfg.Overpass.ServerURL,
		"user_agent", cfg.Overpass.UserAgent,
		"cache_backend", cfg.Cache.Backend,
		"addr", cfg.ServerAddr(),
		"monitoring_addr", cfg.MonitoringAddr())

	// Feed upstream client metrics into prometheus.
	overpass.SetMonitoringHooks(&overpass.MonitoringHooks{
		OnResponse: func(operation string, duration time.Duration, success bool) {
			monitoring.RecordUpstreamRequest(operation, duration, success)
		},
		OnRateLimit: func(waitTime time.Duration) {
			monitoring.RecordRateLimitWait("overpass", waitTime)
		},
		OnError: func(errorType string) {
			monitoring.RecordError("overpass", errorType)
		},
	})

	client := overpass.NewClient(overpass.ClientOptions{
		ServerURL: cfg.Overpass.ServerURL,
		UserAgent: cfg.Overpass.UserAgent,
		RPS:       cfg.Overpass.RPS,
		Burst:     cfg.Overpass.Burst,
		Logger:    logger,
	})

	tags := overpass.DefaultTags()
	if cfg.Overpass.TagsFile != "" {
		tags, err = overpass.LoadTagTable(cfg.Overpass.TagsFile)
		if err != nil {
			logger.Error("failed to load tag table", "path", cfg.Overpass.TagsFile, "error", err)
			os.Exit(1)
		}
	}

	tileCache, err := cache.New(cache.Options{
		Backend:       cfg.Cache.Backend,
		MaxEntries:    cfg.Cache.MaxEntries,
		TTL:           cfg.Cache.TTL,
		Dir:           cfg.Cache.Dir,
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create tile cache", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := tileCache.Close(); err != nil {
			logger.Error("failed to close tile cache", "error", err)
		}
	}()

	svc := tiles.NewService(tiles.Options{
		Cache:        tileCache,
		CacheBackend: cfg.Cache.Backend,
		Client:       client,
		Tags:         tags,
		QueryTimeout: cfg.Overpass.QueryTimeout,
		Logger:       logger,
	})

	healthChecker := monitoring.NewHealthChecker(monitoring.ServiceName, ver.BuildVersion)
	defer healthChecker.Shutdown()

	overpassMonitor := monitoring.NewConnectionMonitor(
		"overpass",
		healthChecker,
		client.Health,
		30*time.Second,
	)
	overpassMonitor.Start()
	defer overpassMonitor.Stop()

	monitoringServer := newMonitoringServer(cfg.MonitoringAddr(), healthChecker)
	go func() {
		logger.Info("starting monitoring server", "addr", cfg.MonitoringAddr())
		if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("monitoring server error", "error", err)
		}
	}()

	srv := server.New(svc, server.Options{
		Addr:        cfg.ServerAddr(),
		ClientRPS:   cfg.Server.ClientRPS,
		ClientBurst: cfg.Server.ClientBurst,
		Logger:      logger,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tile server", "error", err)
	}
	if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown monitoring server", "error", err)
	}

	logger.Info("server stopped")
}

// newMonitoringServer builds the metrics and health listener.
func newMonitoringServer(addr string, hc *monitoring.HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", hc.HealthHandler())
	mux.HandleFunc("/readyz", hc.ReadinessHandler())
	mux.HandleFunc("/livez", hc.LivenessHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}
}

// parseLogLevel maps a config string onto a slog level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
