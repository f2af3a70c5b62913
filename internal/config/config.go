package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores the full set of settings for a dispatch service instance.
// Values are resolved in order: .env file (if present) → environment →
// command-line flags, each layer overriding the previous.
type Config struct {
	HTTPPort        int
	GRPCPort        int
	LogLevel        string
	OrderQueueSize  int
	EventBufferSize int

	Engine    Engine
	RateLimit RateLimit
}

// Engine holds the assignment engine's retry and shutdown tunables.
type Engine struct {
	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffCap    time.Duration
	ShutdownDrain time.Duration
}

// RateLimit holds the token-bucket limiter settings applied to write
// endpoints (courier/order creation).
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Load resolves a Config from .env, the environment, and flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", DefaultHTTPPort()),
		GRPCPort:        getEnvInt("GRPC_PORT", DefaultGRPCPort()),
		LogLevel:        getEnvString("LOG_LEVEL", DefaultLogLevel()),
		OrderQueueSize:  getEnvInt("ORDER_QUEUE_SIZE", DefaultOrderQueueSize()),
		EventBufferSize: getEnvInt("EVENT_BUFFER_SIZE", DefaultEventBufferSize()),
		Engine: Engine{
			MaxAttempts:   getEnvInt("ENGINE_MAX_ATTEMPTS", DefaultEngine().MaxAttempts),
			BackoffBase:   getEnvDuration("ENGINE_BACKOFF_BASE_MS", DefaultEngine().BackoffBase),
			BackoffCap:    getEnvDuration("ENGINE_BACKOFF_CAP_MS", DefaultEngine().BackoffCap),
			ShutdownDrain: getEnvDuration("ENGINE_SHUTDOWN_DRAIN_MS", DefaultEngine().ShutdownDrain),
		},
		RateLimit: RateLimit{
			Enabled:    getEnvBool("RATE_LIMIT_ENABLED", DefaultRateLimit().Enabled),
			Rate:       getEnvFloat("RATE_LIMIT_RPS", DefaultRateLimit().Rate),
			Burst:      getEnvInt("RATE_LIMIT_BURST", DefaultRateLimit().Burst),
			TTL:        getEnvDuration("RATE_LIMIT_TTL_MS", DefaultRateLimit().TTL),
			MaxBuckets: getEnvInt("RATE_LIMIT_MAX_BUCKETS", DefaultRateLimit().MaxBuckets),
		},
	}

	fs := pflag.NewFlagSet("dispatchsvc", pflag.ContinueOnError)
	// Unknown flags are ignored rather than rejected: this lets Load run
	// unmodified inside `go test` binaries, which pass their own -test.*
	// flags on os.Args.
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.IntVar(&cfg.HTTPPort, "http-port", cfg.HTTPPort, "HTTP listen port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "gRPC listen port")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.IntVar(&cfg.OrderQueueSize, "order-queue-size", cfg.OrderQueueSize, "bounded capacity of the order queue")
	fs.IntVar(&cfg.EventBufferSize, "event-buffer-size", cfg.EventBufferSize, "per-subscriber event ring buffer size")
	fs.IntVar(&cfg.Engine.MaxAttempts, "engine-max-attempts", cfg.Engine.MaxAttempts, "max assignment attempts before an order is marked failed")
	fs.BoolVar(&cfg.RateLimit.Enabled, "rate-limit-enabled", cfg.RateLimit.Enabled, "enable ingress rate limiting")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT: %d", c.HTTPPort)
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid GRPC_PORT: %d", c.GRPCPort)
	}
	if c.OrderQueueSize < 1 {
		return fmt.Errorf("invalid ORDER_QUEUE_SIZE: %d", c.OrderQueueSize)
	}
	if c.EventBufferSize < 1 {
		return fmt.Errorf("invalid EVENT_BUFFER_SIZE: %d", c.EventBufferSize)
	}
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("invalid ENGINE_MAX_ATTEMPTS: %d", c.Engine.MaxAttempts)
	}
	if c.Engine.BackoffBase <= 0 || c.Engine.BackoffCap < c.Engine.BackoffBase {
		return fmt.Errorf("invalid engine backoff window: base=%s cap=%s", c.Engine.BackoffBase, c.Engine.BackoffCap)
	}
	return nil
}

func getEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warning: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("warning: invalid %s=%q, using default %v", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("warning: invalid %s=%q, using default %v", key, v, def)
		return def
	}
	return b
}

// getEnvDuration reads an env var expressed in milliseconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warning: invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
