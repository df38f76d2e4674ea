package main

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tinywideclouds/go-apns-delivery/internal/metrics"
	"github.com/tinywideclouds/go-apns-delivery/internal/platform/apns"
	"github.com/tinywideclouds/go-apns-delivery/pushservice"
	"github.com/tinywideclouds/go-apns-delivery/pushservice/config"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"gopkg.in/yaml.v3"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-apns-delivery")
	slog.SetDefault(logger)

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Metrics ---
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	deliveryMetrics := metrics.NewDelivery(promRegistry)

	// --- Sender ---
	// The signing key is parsed here; a bad identity stops the process
	// before it can accept a single send.
	sender, err := apns.NewSender(apns.Config{
		Identity: apns.Identity{
			TeamID:       cfg.APNS.TeamID,
			KeyID:        cfg.APNS.KeyID,
			BundleID:     cfg.APNS.BundleID,
			Environment:  apns.Environment(cfg.APNS.Environment),
			P8KeyContent: cfg.APNS.P8KeyContent,
		},
		OmitEmptyAlertKeys: cfg.Delivery.OmitEmptyAlertKeys,
		Timeout:            cfg.Delivery.Timeout,
		TransportRetries:   cfg.Delivery.TransportRetries,
	}, deliveryMetrics, logger)
	if err != nil {
		logger.Error("APNs sender creation failed", "err", err)
		os.Exit(1)
	}
	logger.Info("APNs sender initialized",
		"environment", cfg.APNS.Environment,
		"bundle_id", cfg.APNS.BundleID,
		"transport_retries", cfg.Delivery.TransportRetries,
	)

	// --- Auth ---
	authMiddleware := passthrough
	if identityURL := os.Getenv("IDENTITY_SERVICE_URL"); identityURL != "" {
		jwksURL, err := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
		if err != nil {
			logger.Error("JWT config discovery failed", "err", err)
			os.Exit(1)
		}
		authMiddleware, err = middleware.NewJWKSAuthMiddleware(jwksURL, logger)
		if err != nil {
			logger.Error("JWKS middleware creation failed", "err", err)
			os.Exit(1)
		}
		logger.Info("JWKS auth enabled", "identity_service", identityURL)
	} else {
		logger.Warn("IDENTITY_SERVICE_URL not set; send API is unauthenticated")
	}

	// --- Service ---
	service, err := pushservice.New(cfg, sender, authMiddleware, promRegistry, logger)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}

func passthrough(next http.Handler) http.Handler {
	return next
}
