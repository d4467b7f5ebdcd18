package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultCommerceTimeout = 8 * time.Second
	defaultGatewayName     = "hosted"
	defaultSuccessPath     = "/order-success"
	defaultSessionTTL      = 30 * 24 * time.Hour
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Commerce    CommerceConfig
	ServiceArea ServiceAreaConfig
	Gateway     GatewayConfig
	Session     SessionConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CommerceConfig points at the remote commerce API serving this storefront.
type CommerceConfig struct {
	BaseURL   string
	StoreCode string
	APIKey    string
	Timeout   time.Duration
}

// ServiceAreaConfig selects the serviceable-area rule the store is configured with.
// Shape decides which serviceability query variant the storefront submits.
type ServiceAreaConfig struct {
	Shape       string
	CountryCode string
	State       string
}

// GatewayConfig controls how the hosted payment gateway return flow behaves.
type GatewayConfig struct {
	Name        string
	SuccessPath string
	// MissingStatusIsSuccess preserves the documented reconciliation policy of
	// treating a return URL that carries an order identifier but no recognised
	// status parameter as a successful payment. Sandbox gateway modes omit the
	// status parameters on success.
	MissingStatusIsSuccess bool
}

// SessionConfig controls storefront session lifetimes.
type SessionConfig struct {
	TTL time.Duration
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values
// in the map take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables fallback to the process environment (used in tests).
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from the .env file, the process environment, and
// explicit overrides, in ascending order of precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values := make(map[string]string)
	if options.envFile != "" {
		if dotEnv, err := godotenv.Read(options.envFile); err == nil {
			for key, value := range normalizeEnvValues(dotEnv) {
				values[key] = value
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", options.envFile, err)
		}
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				continue
			}
			values[parts[0]] = parts[1]
		}
	}
	for key, value := range normalizeEnvValues(options.envMap) {
		values[key] = value
	}

	lookup := func(key, fallback string) string {
		if value, ok := values[key]; ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
		return fallback
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         lookup("PORT", defaultPort),
			ReadTimeout:  durationValue(values, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationValue(values, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationValue(values, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Commerce: CommerceConfig{
			BaseURL:   lookup("COMMERCE_BASE_URL", ""),
			StoreCode: lookup("COMMERCE_STORE_CODE", ""),
			APIKey:    lookup("COMMERCE_API_KEY", ""),
			Timeout:   durationValue(values, "COMMERCE_TIMEOUT", defaultCommerceTimeout),
		},
		ServiceArea: ServiceAreaConfig{
			Shape:       strings.ToLower(lookup("SERVICE_AREA_SHAPE", "anywhere")),
			CountryCode: strings.ToUpper(lookup("SERVICE_AREA_COUNTRY", "")),
			State:       lookup("SERVICE_AREA_STATE", ""),
		},
		Gateway: GatewayConfig{
			Name:                   strings.ToLower(lookup("GATEWAY_NAME", defaultGatewayName)),
			SuccessPath:            lookup("GATEWAY_SUCCESS_PATH", defaultSuccessPath),
			MissingStatusIsSuccess: boolValue(values, "GATEWAY_MISSING_STATUS_IS_SUCCESS", true),
		},
		Session: SessionConfig{
			TTL: durationValue(values, "SESSION_TTL", defaultSessionTTL),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.Commerce.BaseURL) == "" {
		missing = append(missing, "COMMERCE_BASE_URL")
	}
	switch c.ServiceArea.Shape {
	case "pincode", "latlng", "anywhere":
	default:
		missing = append(missing, "SERVICE_AREA_SHAPE")
	}
	if c.ServiceArea.Shape == "anywhere" && strings.TrimSpace(c.ServiceArea.CountryCode) == "" {
		missing = append(missing, "SERVICE_AREA_COUNTRY")
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ValidationError{fields: missing}
}

// normalizeEnvValues trims keys and values from .env files and override maps
// so stray whitespace in a deployment file cannot change lookup behaviour.
// Entries with blank keys are dropped.
func normalizeEnvValues(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(value)
	}
	return normalized
}

func durationValue(values map[string]string, key string, fallback time.Duration) time.Duration {
	raw, ok := values[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func boolValue(values map[string]string, key string, fallback bool) bool {
	raw, ok := values[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return parsed
}
