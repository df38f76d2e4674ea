package config

import (
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlAPNSConfig struct {
	TeamID      string `yaml:"team_id"`
	KeyID       string `yaml:"key_id"`
	BundleID    string `yaml:"bundle_id"`
	Environment string `yaml:"environment"`
	// Key is the inline P8 key content; KeyFile points at the .p8 file on
	// disk and is read during validation when Key is empty.
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"`
}

type YamlDeliveryConfig struct {
	OmitEmptyAlertKeys bool `yaml:"omit_empty_alert_keys"`
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	TransportRetries   int  `yaml:"transport_retries"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ListenAddr string             `yaml:"listen_addr"`
	CorsConfig YamlCorsConfig     `yaml:"cors"`
	APNS       YamlAPNSConfig     `yaml:"apns"`
	Delivery   YamlDeliveryConfig `yaml:"delivery"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ListenAddr: baseCfg.ListenAddr,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		APNS: APNSConfig{
			TeamID:       baseCfg.APNS.TeamID,
			KeyID:        baseCfg.APNS.KeyID,
			BundleID:     baseCfg.APNS.BundleID,
			Environment:  baseCfg.APNS.Environment,
			P8KeyContent: baseCfg.APNS.Key,
			KeyFile:      baseCfg.APNS.KeyFile,
		},
		Delivery: DeliveryConfig{
			OmitEmptyAlertKeys: baseCfg.Delivery.OmitEmptyAlertKeys,
			Timeout:            time.Duration(baseCfg.Delivery.TimeoutSeconds) * time.Second,
			TransportRetries:   baseCfg.Delivery.TransportRetries,
		},
	}

	logger.Debug("YAML config mapping complete",
		"listen_addr", cfg.ListenAddr,
		"apns_environment", cfg.APNS.Environment,
		"apns_bundle_id", cfg.APNS.BundleID,
	)

	return cfg, nil
}
