package app

import (
	"context"
	"errors"

	"go.uber.org/dig"

	"dispatchsvc/internal/engine"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/transport/kafka"
)

// WorkerRunner runs the engine and the optional Kafka ingress adapter with
// no HTTP/WS/gRPC surface.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner.
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the worker using the provided DI container.
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	logger logx.Logger,
	eng *engine.Engine,
	consumer *kafka.Consumer,
) error {
	engineCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engineDone := make(chan error, 1)
	go func() { engineDone <- eng.Run(engineCtx) }()

	logger.Info("dispatch-worker started")

	if consumer == nil {
		logger.Info("kafka ingress not configured, engine running with no order ingress")
		<-ctx.Done()
		cancel()
		<-engineDone
		return ctx.Err()
	}

	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Run(ctx) }()

	select {
	case <-ctx.Done():
		cancel()
		_ = consumer.Close()
		<-engineDone
		return ctx.Err()
	case err := <-consumerDone:
		cancel()
		<-engineDone
		return err
	}
}
