// Command server starts the Lumen Live video API HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"lumen-live/internal/api"
	"lumen-live/internal/config"
	"lumen-live/internal/live"
	"lumen-live/internal/medialive"
	"lumen-live/internal/observability/logging"
	"lumen-live/internal/observability/metrics"
	"lumen-live/internal/server"
	"lumen-live/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to TOML configuration file")
	addr := flag.String("addr", "", "HTTP listen address")
	dataPath := flag.String("data", "", "path to JSON datastore")
	storageDriver := flag.String("storage-driver", "", "datastore driver (json or postgres)")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string")
	postgresMaxConns := flag.Int("postgres-max-conns", 0, "maximum connections in the Postgres pool")
	postgresMinConns := flag.Int("postgres-min-conns", 0, "minimum idle connections maintained by the Postgres pool")
	postgresMaxConnLifetime := flag.Duration("postgres-max-conn-lifetime", 0, "maximum lifetime for a pooled Postgres connection")
	postgresMaxConnIdle := flag.Duration("postgres-max-conn-idle", 0, "maximum idle time for a pooled Postgres connection")
	postgresHealthInterval := flag.Duration("postgres-health-interval", 0, "interval between Postgres health checks")
	postgresAcquireTimeout := flag.Duration("postgres-acquire-timeout", 0, "timeout when acquiring a Postgres connection from the pool")
	postgresAppName := flag.String("postgres-app-name", "", "application_name reported to Postgres")
	mediaLiveURL := flag.String("medialive-url", "", "base URL of the channel service REST API")
	mediaLiveToken := flag.String("medialive-token", "", "bearer token for the channel service")
	mediaLiveTimeout := flag.Duration("medialive-timeout", 0, "timeout for channel service requests")
	eventToken := flag.String("event-token", "", "shared token required on lifecycle webhook deliveries")
	tlsCert := flag.String("tls-cert", "", "path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "path to TLS private key file")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (json or text)")
	dashboardOrigins := flag.String("cors-dashboard-origins", "", "comma separated origins allowed for the dashboard")
	shutdownGrace := flag.Duration("shutdown-grace", 0, "grace period for draining requests on shutdown")
	flag.Parse()

	cfg, loaded, err := config.Load(firstNonEmpty(*configPath, os.Getenv("LUMEN_LIVE_CONFIG")))
	if err != nil {
		logging.Init(logging.Config{}).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{
		Level:  firstNonEmpty(*logLevel, os.Getenv("LUMEN_LIVE_LOG_LEVEL"), cfg.Logging.Level),
		Format: firstNonEmpty(*logFormat, os.Getenv("LUMEN_LIVE_LOG_FORMAT"), cfg.Logging.Format),
	})
	if loaded {
		logger.Info("configuration loaded", "path", firstNonEmpty(*configPath, os.Getenv("LUMEN_LIVE_CONFIG")))
	}
	recorder := metrics.Default()

	listenAddr := firstNonEmpty(*addr, os.Getenv("LUMEN_LIVE_ADDR"), cfg.Server.Addr)

	driver := strings.ToLower(firstNonEmpty(*storageDriver, os.Getenv("LUMEN_LIVE_STORAGE_DRIVER"), cfg.Storage.Driver))
	resolvedDSN := firstNonEmpty(*postgresDSN, os.Getenv("LUMEN_LIVE_POSTGRES_DSN"), os.Getenv("DATABASE_URL"), cfg.Storage.PostgresDSN)
	if driver == "" {
		if resolvedDSN != "" {
			driver = "postgres"
		} else {
			driver = "json"
		}
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	var store storage.Repository
	switch driver {
	case "json":
		dataFile := firstNonEmpty(*dataPath, os.Getenv("LUMEN_LIVE_DATA"), cfg.Storage.JSONPath)
		store, err = storage.NewJSONRepository(dataFile)
	case "postgres":
		if resolvedDSN == "" {
			logger.Error("postgres storage selected without DSN")
			startCancel()
			os.Exit(1)
		}
		store, err = storage.NewPostgresRepository(startCtx, storage.PostgresConfig{
			DSN:                 resolvedDSN,
			MaxConnections:      int32(resolveInt(*postgresMaxConns, "LUMEN_LIVE_POSTGRES_MAX_CONNS", cfg.Storage.MaxConnections)),
			MinConnections:      int32(resolveInt(*postgresMinConns, "LUMEN_LIVE_POSTGRES_MIN_CONNS", cfg.Storage.MinConnections)),
			MaxConnLifetime:     resolveDuration(*postgresMaxConnLifetime, "LUMEN_LIVE_POSTGRES_MAX_CONN_LIFETIME", secondsDuration(cfg.Storage.ConnLifetimeSecs)),
			MaxConnIdleTime:     resolveDuration(*postgresMaxConnIdle, "LUMEN_LIVE_POSTGRES_MAX_CONN_IDLE", secondsDuration(cfg.Storage.ConnIdleSecs)),
			HealthCheckInterval: resolveDuration(*postgresHealthInterval, "LUMEN_LIVE_POSTGRES_HEALTH_INTERVAL", secondsDuration(cfg.Storage.HealthIntervalSecs)),
			AcquireTimeout:      resolveDuration(*postgresAcquireTimeout, "LUMEN_LIVE_POSTGRES_ACQUIRE_TIMEOUT", secondsDuration(cfg.Storage.AcquireTimeoutSecs)),
			ApplicationName:     firstNonEmpty(*postgresAppName, os.Getenv("LUMEN_LIVE_POSTGRES_APP_NAME"), cfg.Storage.ApplicationName),
		})
	default:
		logger.Error("unsupported storage driver", "driver", driver)
		startCancel()
		os.Exit(1)
	}
	startCancel()
	if err != nil {
		logger.Error("failed to open datastore", "error", err)
		os.Exit(1)
	}

	var (
		channels     *medialive.Client
		eventHandler *live.Handler
	)
	mediaLiveBase := firstNonEmpty(*mediaLiveURL, os.Getenv("LUMEN_LIVE_MEDIALIVE_URL"), cfg.MediaLive.BaseURL)
	if mediaLiveBase != "" {
		channels, err = medialive.NewClient(medialive.ClientConfig{
			BaseURL: mediaLiveBase,
			Token:   firstNonEmpty(*mediaLiveToken, os.Getenv("LUMEN_LIVE_MEDIALIVE_TOKEN"), cfg.MediaLive.Token),
			Timeout: resolveDuration(*mediaLiveTimeout, "LUMEN_LIVE_MEDIALIVE_TIMEOUT", secondsDuration(cfg.MediaLive.TimeoutSecs)),
		})
		if err != nil {
			logger.Error("failed to configure channel service client", "error", err)
			os.Exit(1)
		}
		eventHandler = live.NewHandler(
			channels,
			live.StorePublisher{Store: store},
			logging.WithComponent(logger, "lifecycle"),
		)
	} else {
		logger.Warn("channel service not configured; live control and lifecycle events disabled")
	}

	handler := api.NewHandler(store, channelControl(channels), eventHandler)
	handler.EventToken = firstNonEmpty(*eventToken, os.Getenv("LUMEN_LIVE_EVENT_TOKEN"), cfg.Events.Token)
	handler.Metrics = recorder
	handler.Logger = logging.WithComponent(logger, "api")

	srv, err := server.New(handler, server.Config{
		Addr: listenAddr,
		TLS: server.TLSConfig{
			CertFile: firstNonEmpty(*tlsCert, os.Getenv("LUMEN_LIVE_TLS_CERT"), cfg.Server.TLSCertFile),
			KeyFile:  firstNonEmpty(*tlsKey, os.Getenv("LUMEN_LIVE_TLS_KEY"), cfg.Server.TLSKeyFile),
		},
		CORS: server.CORSConfig{
			DashboardOrigins: resolveList(*dashboardOrigins, "LUMEN_LIVE_CORS_DASHBOARD_ORIGINS", cfg.Server.DashboardOrigins),
			WebhookOrigins:   cfg.Server.WebhookOrigins,
		},
		Security: server.SecurityConfig{
			ContentSecurityPolicy: cfg.Server.ContentSecurityCSP,
			FrameAncestors:        cfg.Server.FrameAncestorsValue,
		},
		Logger:  logger,
		Metrics: recorder,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("Lumen Live API listening", "addr", listenAddr, "storage", driver)
		logger.Info("metrics endpoint available", "path", "/metrics")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errs:
		logger.Error("server error", "error", err)
	}

	grace := resolveDuration(*shutdownGrace, "LUMEN_LIVE_SHUTDOWN_GRACE", secondsDuration(cfg.Server.ShutdownGraceSecs))
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}

	if err := store.Close(ctx); err != nil {
		logger.Warn("failed to close datastore", "error", err)
	}

	logger.Info("server stopped")
}

// channelControl keeps the api.Handler interface field nil when no client is
// configured; a non-nil interface holding a nil *Client would defeat the
// handler's availability checks.
func channelControl(client *medialive.Client) medialive.ChannelControl {
	if client == nil {
		return nil
	}
	return client
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func resolveInt(flagValue int, envKey string, fallback int) int {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := strconv.Atoi(strings.TrimSpace(env)); err == nil {
			return value
		}
	}
	return fallback
}

func resolveDuration(flagValue time.Duration, envKey string, fallback time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if env := os.Getenv(envKey); env != "" {
		if value, err := time.ParseDuration(env); err == nil {
			return value
		}
	}
	return fallback
}

func secondsDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func resolveList(flagValue, envKey string, fallback []string) []string {
	if list := splitAndTrim(flagValue); len(list) > 0 {
		return list
	}
	if list := splitAndTrim(os.Getenv(envKey)); len(list) > 0 {
		return list
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
