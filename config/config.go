package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Logging  LoggingConfig
	Gate     GateConfig
	Audit    AuditConfig
	Operator OperatorConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// GateConfig describes the payment requirements and the facilitator.
type GateConfig struct {
	Recipient          string
	Asset              string
	Network            string
	FacilitatorURL     string
	FacilitatorAPIKey  string
	FacilitatorTimeout time.Duration
	AssetName          string
	AssetVersion       string
	AssetDecimals      int32
	// ChainID enables local signature recovery when non-zero.
	ChainID           int64
	MaxTimeoutSeconds int64
	PricesFile        string
	DefaultPath       string
	DefaultAmount     string
}

// AuditConfig describes where verification outcomes are recorded.
type AuditConfig struct {
	DBDriver     string
	DBDSN        string
	KafkaBrokers []string
	KafkaTopic   string
}

// OperatorConfig controls access to operator endpoints.
type OperatorConfig struct {
	APIKey string
}

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 8402
	defaultReadTimeout        = 10 * time.Second
	defaultWriteTimeout       = 45 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "text"
	defaultNetwork            = "avalanche"
	defaultFacilitatorTimeout = 30 * time.Second
	defaultAssetName          = "USD Coin"
	defaultAssetVersion       = "2"
	defaultAssetDecimals      = 6
	defaultMaxTimeoutSeconds  = 60
	defaultPath               = "/api/premium"
	defaultAmount             = "10000"
	defaultKafkaTopic         = "x402.payment-audit"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Gate: GateConfig{
			Recipient:          strings.TrimSpace(os.Getenv("X402_RECIPIENT")),
			Asset:              strings.TrimSpace(os.Getenv("X402_ASSET")),
			Network:            valueOrDefault("X402_NETWORK", defaultNetwork),
			FacilitatorURL:     strings.TrimSpace(os.Getenv("X402_FACILITATOR_URL")),
			FacilitatorAPIKey:  os.Getenv("X402_FACILITATOR_API_KEY"),
			FacilitatorTimeout: defaultFacilitatorTimeout,
			AssetName:          valueOrDefault("X402_ASSET_NAME", defaultAssetName),
			AssetVersion:       valueOrDefault("X402_ASSET_VERSION", defaultAssetVersion),
			AssetDecimals:      int32(parseIntWithDefault("X402_ASSET_DECIMALS", defaultAssetDecimals)),
			MaxTimeoutSeconds:  int64(parseIntWithDefault("X402_MAX_TIMEOUT_SECONDS", defaultMaxTimeoutSeconds)),
			PricesFile:         os.Getenv("X402_PRICES_FILE"),
			DefaultPath:        valueOrDefault("X402_DEFAULT_PATH", defaultPath),
			DefaultAmount:      valueOrDefault("X402_DEFAULT_AMOUNT", defaultAmount),
		},
		Audit: AuditConfig{
			DBDriver:     os.Getenv("AUDIT_DB_DRIVER"),
			DBDSN:        os.Getenv("AUDIT_DB_DSN"),
			KafkaBrokers: splitCSV(os.Getenv("AUDIT_KAFKA_BROKERS")),
			KafkaTopic:   valueOrDefault("AUDIT_KAFKA_TOPIC", defaultKafkaTopic),
		},
		Operator: OperatorConfig{
			APIKey: os.Getenv("OPERATOR_API_KEY"),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"X402_FACILITATOR_TIMEOUT", &cfg.Gate.FacilitatorTimeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.dst); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("X402_CHAIN_ID"); v != "" {
		chainID, err := strconv.ParseInt(v, 10, 64)
		if err != nil || chainID <= 0 {
			return Config{}, fmt.Errorf("invalid X402_CHAIN_ID value %q", v)
		}
		cfg.Gate.ChainID = chainID
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks required values and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.Gate.Recipient == "" {
		errs = append(errs, errors.New("X402_RECIPIENT is required"))
	}
	if c.Gate.Asset == "" {
		errs = append(errs, errors.New("X402_ASSET is required"))
	}
	if c.Gate.FacilitatorURL == "" {
		errs = append(errs, errors.New("X402_FACILITATOR_URL is required"))
	}
	if c.Gate.FacilitatorTimeout <= 0 {
		errs = append(errs, errors.New("X402_FACILITATOR_TIMEOUT must be positive"))
	}
	if c.Gate.AssetDecimals < 0 || c.Gate.AssetDecimals > 36 {
		errs = append(errs, fmt.Errorf("X402_ASSET_DECIMALS %d is out of range", c.Gate.AssetDecimals))
	}
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= c.Gate.FacilitatorTimeout {
		errs = append(errs, errors.New("SERVER_WRITE_TIMEOUT must exceed X402_FACILITATOR_TIMEOUT"))
	}
	if (c.Audit.DBDriver == "") != (c.Audit.DBDSN == "") {
		errs = append(errs, errors.New("AUDIT_DB_DRIVER and AUDIT_DB_DSN must be set together"))
	}
	if c.Audit.DBDriver != "" && c.Audit.DBDriver != "postgres" && c.Audit.DBDriver != "mysql" {
		errs = append(errs, fmt.Errorf("unsupported AUDIT_DB_DRIVER %q", c.Audit.DBDriver))
	}
	return errors.Join(errs...)
}

func valueOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func splitCSV(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
