// Package config holds the single, authoritative configuration for the
// push delivery service. A bad or incomplete configuration is fatal at
// startup: the service must never accept send requests with credentials it
// cannot sign with.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// APNSConfig holds the sender identity toward the gateway.
type APNSConfig struct {
	TeamID      string
	KeyID       string
	BundleID    string
	Environment string
	// P8KeyContent is the raw string content of the .p8 file.
	P8KeyContent string
	// KeyFile is the on-disk path to the .p8 file, read when P8KeyContent
	// is not provided inline.
	KeyFile string
}

// DeliveryConfig tunes the send path.
type DeliveryConfig struct {
	OmitEmptyAlertKeys bool
	Timeout            time.Duration
	TransportRetries   int
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ListenAddr string
	CorsConfig middleware.CorsConfig
	APNS       APNSConfig
	Delivery   DeliveryConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("APNS_TEAM_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_TEAM_ID", "source", "env")
		cfg.APNS.TeamID = val
	}
	if val := os.Getenv("APNS_KEY_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_KEY_ID", "source", "env")
		cfg.APNS.KeyID = val
	}
	if val := os.Getenv("APNS_BUNDLE_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_BUNDLE_ID", "source", "env")
		cfg.APNS.BundleID = val
	}
	if val := os.Getenv("APNS_ENVIRONMENT"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_ENVIRONMENT", "source", "env")
		cfg.APNS.Environment = val
	}
	if val := os.Getenv("APNS_KEY"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_KEY", "source", "env")
		cfg.APNS.P8KeyContent = val
	}
	if val := os.Getenv("APNS_KEY_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "APNS_KEY_FILE", "source", "env")
		cfg.APNS.KeyFile = val
	}

	// Delivery Overrides
	if val := os.Getenv("DELIVERY_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			cfg.Delivery.Timeout = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("DELIVERY_TRANSPORT_RETRIES"); val != "" {
		if retries, err := strconv.Atoi(val); err == nil && retries >= 0 {
			cfg.Delivery.TransportRetries = retries
		}
	}
	if val := os.Getenv("DELIVERY_OMIT_EMPTY_ALERT_KEYS"); val != "" {
		omit, _ := strconv.ParseBool(val)
		cfg.Delivery.OmitEmptyAlertKeys = omit
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Resolve key material
	if cfg.APNS.P8KeyContent == "" && cfg.APNS.KeyFile != "" {
		raw, err := os.ReadFile(cfg.APNS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read APNs key file %q: %w", cfg.APNS.KeyFile, err)
		}
		cfg.APNS.P8KeyContent = string(raw)
	}

	// 3. Final Validation
	if cfg.APNS.TeamID == "" {
		return nil, fmt.Errorf("apns.team_id is required (set via YAML or APNS_TEAM_ID env var)")
	}
	if cfg.APNS.KeyID == "" {
		return nil, fmt.Errorf("apns.key_id is required (set via YAML or APNS_KEY_ID env var)")
	}
	if cfg.APNS.BundleID == "" {
		return nil, fmt.Errorf("apns.bundle_id is required (set via YAML or APNS_BUNDLE_ID env var)")
	}
	if cfg.APNS.Environment != "sandbox" && cfg.APNS.Environment != "production" {
		return nil, fmt.Errorf("apns.environment must be 'sandbox' or 'production', got %q", cfg.APNS.Environment)
	}
	if !strings.Contains(cfg.APNS.P8KeyContent, "PRIVATE KEY") {
		return nil, fmt.Errorf("apns key material is not a private-key PEM block (set via YAML, APNS_KEY or APNS_KEY_FILE)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
