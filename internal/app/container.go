// Package app is the composition root: it wires config, logging, the
// in-memory store/queue/event bus, the assignment engine, every ingress
// adapter (HTTP, WebSocket, gRPC health, optional Kafka) and the
// background jobs into one dig.Container, then runs them to completion.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/dig"

	"dispatchsvc/internal/config"
	"dispatchsvc/internal/engine"
	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/grpcapi"
	"dispatchsvc/internal/http/handlers"
	"dispatchsvc/internal/http/router"
	"dispatchsvc/internal/jobs"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/scorer"
	"dispatchsvc/internal/store"
	"dispatchsvc/internal/transport/kafka"
	"dispatchsvc/internal/ws"
)

// ContainerBuilder builds the dig container; overridable seams exist only
// for what tests need to replace (the fatal-error sink).
type ContainerBuilder struct {
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{logFatalf: log.Fatalf}
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container for the full server
// binary (HTTP + WS + gRPC health + jobs + optional Kafka ingress).
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDomain(container); err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}
	if err := registerRateLimit(container); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if err := registerGRPC(container); err != nil {
		return nil, fmt.Errorf("grpc: %w", err)
	}
	if err := registerKafka(container); err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}
	if err := registerJobs(container); err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the full server container using the default
// builder.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the worker container: domain state plus
// the engine and the Kafka ingress adapter, no HTTP/WS/gRPC surface.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	container := dig.New()
	must := func(err error, stage string) {
		if err != nil {
			log.Fatalf("failed to build worker container: %s: %v", stage, err)
		}
	}
	must(registerCore(container, ctx), "core")
	must(registerDomain(container), "domain")
	must(registerKafka(container), "kafka")
	return container
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
	)
}

// registerDomain wires the in-memory store, bounded queue, event bus,
// scorer and the single assignment engine — the state every adapter
// ultimately reads from or writes to.
func registerDomain(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) *queue.OrderQueue { return queue.New(cfg.OrderQueueSize) },
		func(cfg *config.Config) *eventbus.Bus { return eventbus.New(cfg.EventBufferSize) },
		store.New,
		func(st *store.Store, q *queue.OrderQueue, bus *eventbus.Bus, cfg *config.Config, logger logx.Logger) *engine.Engine {
			return engine.New(st, q, bus, scorer.Score, logger.With(logx.String("component", "engine")), cfg.Engine)
		},
	)
}

func registerRateLimit(container *dig.Container) error {
	return provideAll(container,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitCounter,
		newRateLimitMiddleware,
	)
}

// registerHTTP wires the REST handlers, WebSocket fan-out, router and the
// *http.Server bound to HTTP_PORT.
func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		ws.NewHandler,
		router.New,
		serverProvider,
	)
}

func registerGRPC(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config, logger logx.Logger) *grpcapi.Server {
			return grpcapi.New(fmt.Sprintf(":%d", cfg.GRPCPort), logger.With(logx.String("component", "grpcapi")))
		},
	)
}

func registerKafka(container *dig.Container) error {
	return provideAll(container,
		func(st *store.Store, q *queue.OrderQueue, logger logx.Logger) (*kafka.Consumer, error) {
			brokers := splitAndTrim(os.Getenv("KAFKA_BROKERS"))
			groupID := os.Getenv("KAFKA_GROUP_ID")
			topic := os.Getenv("KAFKA_ORDERS_TOPIC")
			return kafka.NewConsumer(brokers, groupID, topic, st, q, logger)
		},
	)
}

func registerJobs(container *dig.Container) error {
	return provideAll(container, jobs.NewJobManager)
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
