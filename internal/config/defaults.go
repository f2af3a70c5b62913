package config

import "time"

const (
	defaultHTTPPort        = 3000
	defaultGRPCPort        = 50051
	defaultLogLevel        = "info"
	defaultOrderQueueSize  = 1024
	defaultEventBufferSize = 1024
)

var defaultEngine = Engine{
	MaxAttempts:   20,
	BackoffBase:   100 * time.Millisecond,
	BackoffCap:    5 * time.Second,
	ShutdownDrain: 2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       50,
	Burst:      100,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

// DefaultHTTPPort returns the default HTTP listen port.
func DefaultHTTPPort() int { return defaultHTTPPort }

// DefaultGRPCPort returns the default gRPC listen port.
func DefaultGRPCPort() int { return defaultGRPCPort }

// DefaultLogLevel returns the default log level.
func DefaultLogLevel() string { return defaultLogLevel }

// DefaultOrderQueueSize returns the default bounded order queue capacity.
func DefaultOrderQueueSize() int { return defaultOrderQueueSize }

// DefaultEventBufferSize returns the default per-subscriber event buffer
// size.
func DefaultEventBufferSize() int { return defaultEventBufferSize }

// DefaultEngine returns the default engine retry/shutdown settings.
func DefaultEngine() Engine { return defaultEngine }

// DefaultRateLimit returns the default ingress rate limit settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }
