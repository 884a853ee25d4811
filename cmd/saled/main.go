package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"crowdsale/config"
	"crowdsale/core"
	"crowdsale/core/events"
	"crowdsale/gateway/middleware"
	"crowdsale/gateway/routes"
	"crowdsale/native/oracle"
	"crowdsale/native/sale"
	"crowdsale/observability"
	"crowdsale/observability/logging"
	telemetry "crowdsale/observability/otel"
	"crowdsale/storage"
	"crowdsale/storage/eventlog"
)

const advanceInterval = 15 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	bootstrapFlag := flag.String("bootstrap", "", "Path to a bootstrap YAML file (overrides node.BootstrapFile)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *bootstrapFlag); err != nil {
		fmt.Fprintf(os.Stderr, "saled: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile, bootstrapPath string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logCloser := setupLogging(cfg)
	defer logCloser.Close()
	slog.SetDefault(logger)

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromTelemetry("saled", cfg.Node.Environment, cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	settings, err := core.SettingsFromConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Node.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := openState(cfg.Node)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()

	sinks := events.Multi{observability.Sale(), observability.Events()}
	var eventLog *eventlog.Store
	if dsn := strings.TrimSpace(cfg.Node.EventLogDSN); dsn != "" {
		eventLog, err = eventlog.Open(dsn, logger)
		if err != nil {
			return err
		}
		defer eventLog.Close()
		sinks = append(sinks, eventLog)
	}

	opts := core.Options{Sink: sinks, Logger: logger}
	if certifier := newCertifier(cfg.Oracle, logger); certifier != nil {
		opts.Certifier = certifier
	}
	node, err := core.NewNode(db, settings, opts)
	if err != nil {
		return fmt.Errorf("start node: %w", err)
	}

	if path := firstNonEmpty(bootstrapPath, cfg.Node.BootstrapFile); path != "" {
		b, err := config.LoadBootstrap(path)
		if err != nil {
			return err
		}
		applied, err := node.Bootstrap(b)
		if err != nil {
			return fmt.Errorf("apply bootstrap: %w", err)
		}
		logger.Info("bootstrap", "path", path, "applied", applied)
	}

	secret := os.Getenv(cfg.Gateway.JWTSecretEnv)
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("gateway secret not set: export %s", cfg.Gateway.JWTSecretEnv)
	}
	logger.Info("gateway configured",
		"issuer", cfg.Gateway.Issuer,
		logging.Secret("jwtSecret", secret),
		logging.DSN("eventLog", cfg.Node.EventLogDSN))
	routeCfg := routes.Config{
		Backend:       node,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{HMACSecret: secret, Issuer: cfg.Gateway.Issuer}, logger),
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimit{
			RequestsPerMinute: cfg.Gateway.RequestsPerMinute,
			Burst:             cfg.Gateway.Burst,
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{ServiceName: "saled"}, logger),
		Logger:        logger,
	}
	if eventLog != nil {
		routeCfg.Events = eventLog
	}
	router, err := routes.New(routeCfg)
	if err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	handler := http.Handler(router)
	if cfg.Telemetry.Traces {
		handler = otelhttp.NewHandler(router, "saled")
	}
	server := &http.Server{
		Addr:              cfg.Node.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	listener, err := net.Listen("tcp", cfg.Node.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go advanceLoop(ctx, node, logger)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
	return nil
}

func setupLogging(cfg *config.Config) (*slog.Logger, io.Closer) {
	if path := strings.TrimSpace(cfg.Node.LogFile); path != "" {
		return logging.SetupWithFile("saled", cfg.Node.Environment, logging.FileOptions{Path: path, Compress: true})
	}
	return logging.Setup("saled", cfg.Node.Environment), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newCertifier returns the external oracle client in http mode. In registry
// mode the node's own registry answers.
func openState(nc config.NodeConfig) (storage.Database, error) {
	if nc.StateBackend == config.StateBackendBolt {
		return storage.NewBoltDB(filepath.Join(nc.DataDir, "state.bolt"))
	}
	return storage.NewLevelDB(filepath.Join(nc.DataDir, "state"))
}

func newCertifier(oc config.OracleConfig, logger *slog.Logger) sale.Certifier {
	if oc.Mode != config.OracleModeHTTP {
		return nil
	}
	logger.Info("using external verification oracle", "url", oc.URL)
	return oracle.NewClient(oc.URL, oc.Timeout())
}

// advanceLoop persists timed phase transitions without waiting for traffic.
func advanceLoop(ctx context.Context, node *core.Node, logger *slog.Logger) {
	ticker := time.NewTicker(advanceInterval)
	defer ticker.Stop()
	last := sale.Phase(255)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			phase, err := node.Advance()
			if err != nil {
				logger.Warn("advance failed", "error", err)
				continue
			}
			if phase != last {
				logger.Info("sale phase", "phase", phase.String())
				last = phase
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
