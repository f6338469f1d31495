// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with an optional YAML or JSON file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port                  int      `koanf:"port"`
	Env                   string   `koanf:"env"`
	MaxBodyBytes          int64    `koanf:"max_body_bytes"`
	RequestTimeoutSeconds int      `koanf:"request_timeout_seconds"`
	CORSAllowedOrigins    []string `koanf:"cors_allowed_origins"`

	// Rate limiting. Counters live in Redis when RedisURL is set, in memory otherwise.
	RedisURL               string `koanf:"redis_url"`
	RateLimitRequests      int    `koanf:"rate_limit_requests"`
	RateLimitWindowSeconds int    `koanf:"rate_limit_window_seconds"`

	// Ranking
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	TracingExporter   string  `koanf:"tracing_exporter"`
	OTLPEndpoint      string  `koanf:"otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
	TracingInsecure   bool    `koanf:"tracing_insecure"`

	// Profiling exposes /debug/pprof; refused in production.
	ProfilingEnabled bool `koanf:"profiling_enabled"`
}

// Configuration validation errors.
var (
	ErrInvalidPort              = errors.New("PORT must be between 1 and 65535")
	ErrInvalidInteger           = errors.New("value must be a valid integer")
	ErrInvalidFloat             = errors.New("value must be a valid number")
	ErrInvalidBool              = errors.New("value must be a boolean")
	ErrInvalidRateLimit         = errors.New("RATE_LIMIT_REQUESTS must be greater than 0")
	ErrInvalidRateLimitWindow   = errors.New("RATE_LIMIT_WINDOW_SECONDS must be greater than 0")
	ErrInvalidMaxBodyBytes      = errors.New("MAX_BODY_BYTES must be greater than 0")
	ErrInvalidRequestTimeout    = errors.New("REQUEST_TIMEOUT_SECONDS must be greater than 0")
	ErrInvalidRedisURL          = errors.New("REDIS_URL is not a valid redis:// or rediss:// URL")
	ErrInvalidTracingExporter   = errors.New("TRACING_EXPORTER must be otlp-http or otlp-grpc")
	ErrInvalidTracingSampleRate = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrProfilingInProduction    = errors.New("PROFILING_ENABLED is not allowed in production")
	ErrUnsupportedConfigFormat  = errors.New("config file must be .yaml, .yml or .json")
)

// Default values for non-secret configuration.
const (
	DefaultPort                   = 8000
	DefaultEnv                    = "development"
	DefaultMaxBodyBytes           = 1 << 20
	DefaultRequestTimeoutSeconds  = 10
	DefaultRateLimitRequests      = 60
	DefaultRateLimitWindowSeconds = 60
	DefaultTracingExporter        = "otlp-http"
	DefaultTracingSampleRate      = 1.0
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values, which take precedence
// over defaults. Returns the loaded config and a slice of validation errors
// (empty if valid). If the config file cannot be loaded, only that error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")

	if configFilePath != "" {
		parser, err := parserFor(configFilePath)
		if err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
		if err := k.Load(file.Provider(configFilePath), parser); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	l := &loader{k: k}
	cfg := &Config{
		Port:                   l.int([]string{"SPK_PORT", "PORT"}, "port", DefaultPort),
		Env:                    l.string([]string{"SPK_ENV", "ENV", "GO_ENV"}, "env", DefaultEnv),
		MaxBodyBytes:           int64(l.int([]string{"MAX_BODY_BYTES"}, "max_body_bytes", DefaultMaxBodyBytes)),
		RequestTimeoutSeconds:  l.int([]string{"REQUEST_TIMEOUT_SECONDS"}, "request_timeout_seconds", DefaultRequestTimeoutSeconds),
		CORSAllowedOrigins:     l.list("CORS_ALLOWED_ORIGINS", "cors_allowed_origins"),
		RedisURL:               l.string([]string{"REDIS_URL"}, "redis_url", ""),
		RateLimitRequests:      l.int([]string{"RATE_LIMIT_REQUESTS"}, "rate_limit_requests", DefaultRateLimitRequests),
		RateLimitWindowSeconds: l.int([]string{"RATE_LIMIT_WINDOW_SECONDS"}, "rate_limit_window_seconds", DefaultRateLimitWindowSeconds),
		RankingCalibrationPath: l.string([]string{"RANKING_CALIBRATION_PATH"}, "ranking_calibration_path", ""),
		TracingEnabled:         l.bool("TRACING_ENABLED", "tracing_enabled", false),
		TracingExporter:        l.string([]string{"TRACING_EXPORTER"}, "tracing_exporter", DefaultTracingExporter),
		OTLPEndpoint:           l.string([]string{"OTEL_EXPORTER_OTLP_ENDPOINT"}, "otlp_endpoint", ""),
		TracingSampleRate:      l.float("TRACING_SAMPLE_RATE", "tracing_sample_rate", DefaultTracingSampleRate),
		TracingInsecure:        l.bool("TRACING_INSECURE", "tracing_insecure", false),
		ProfilingEnabled:       l.bool("PROFILING_ENABLED", "profiling_enabled", false),
	}

	errs := append(l.errs, cfg.Validate()...)
	return cfg, errs
}

// parserFor picks the koanf parser from the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, ErrUnsupportedConfigFormat
	}
}

// loader resolves each key from the environment, then the file, then the default.
// Parse errors are collected rather than returned.
type loader struct {
	k    *koanf.Koanf
	errs []error
}

func firstEnv(keys []string) (string, string) {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return key, val
		}
	}
	return "", ""
}

func (l *loader) string(envKeys []string, key, def string) string {
	if _, val := firstEnv(envKeys); val != "" {
		return val
	}
	if v := l.k.String(key); v != "" {
		return v
	}
	return def
}

func (l *loader) int(envKeys []string, key string, def int) int {
	if name, val := firstEnv(envKeys); val != "" {
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s: %w", name, ErrInvalidInteger))
			return def
		}
		return i
	}
	if l.k.Exists(key) {
		return l.k.Int(key)
	}
	return def
}

func (l *loader) float(envKey, key string, def float64) float64 {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s: %w", envKey, ErrInvalidFloat))
			return def
		}
		return f
	}
	if l.k.Exists(key) {
		return l.k.Float64(key)
	}
	return def
}

func (l *loader) bool(envKey, key string, def bool) bool {
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		default:
			l.errs = append(l.errs, fmt.Errorf("%s: %w", envKey, ErrInvalidBool))
			return def
		}
	}
	if l.k.Exists(key) {
		return l.k.Bool(key)
	}
	return def
}

// list reads a comma separated env value, or a file value given as a list or
// a comma separated string.
func (l *loader) list(envKey, key string) []string {
	if val := os.Getenv(envKey); val != "" {
		return splitList(val)
	}
	switch v := l.k.Get(key).(type) {
	case string:
		return splitList(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// RequestTimeout returns the per-request handler timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RateLimitWindow returns the rate limit window.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// Validate checks value ranges and combinations.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, ErrInvalidMaxBodyBytes)
	}
	if c.RequestTimeoutSeconds <= 0 {
		errs = append(errs, ErrInvalidRequestTimeout)
	}
	if c.RateLimitRequests <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.RateLimitWindowSeconds <= 0 {
		errs = append(errs, ErrInvalidRateLimitWindow)
	}
	if c.RedisURL != "" {
		if _, err := redis.ParseURL(c.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidRedisURL, err))
		}
	}
	if c.TracingExporter != "otlp-http" && c.TracingExporter != "otlp-grpc" {
		errs = append(errs, ErrInvalidTracingExporter)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		errs = append(errs, ErrInvalidTracingSampleRate)
	}
	if c.ProfilingEnabled && c.IsProduction() {
		errs = append(errs, ErrProfilingInProduction)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Credentials in the Redis URL are masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                      strconv.Itoa(c.Port),
		"env":                       c.Env,
		"max_body_bytes":            strconv.FormatInt(c.MaxBodyBytes, 10),
		"request_timeout_seconds":   strconv.Itoa(c.RequestTimeoutSeconds),
		"cors_allowed_origins":      strings.Join(c.CORSAllowedOrigins, ","),
		"redis_url":                 maskRedisURL(c.RedisURL),
		"rate_limit_requests":       strconv.Itoa(c.RateLimitRequests),
		"rate_limit_window_seconds": strconv.Itoa(c.RateLimitWindowSeconds),
		"ranking_calibration_path":  orNotSet(c.RankingCalibrationPath),
		"tracing_enabled":           strconv.FormatBool(c.TracingEnabled),
		"tracing_exporter":          c.TracingExporter,
		"otlp_endpoint":             orNotSet(c.OTLPEndpoint),
		"tracing_sample_rate":       strconv.FormatFloat(c.TracingSampleRate, 'f', -1, 64),
		"profiling_enabled":         strconv.FormatBool(c.ProfilingEnabled),
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskRedisURL masks the password in a redis:// or rediss:// URL.
func maskRedisURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return "****"
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.LastIndex(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	scheme := s[:schemeEnd+3]
	userinfo := rest[:atIndex]
	hostAndPath := rest[atIndex:]

	colonIndex := strings.Index(userinfo, ":")
	if colonIndex == -1 {
		// redis://password@host form
		return scheme + "****" + hostAndPath
	}
	return scheme + userinfo[:colonIndex] + ":****" + hostAndPath
}
