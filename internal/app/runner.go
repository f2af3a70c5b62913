package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/dig"

	"dispatchsvc/internal/config"
	"dispatchsvc/internal/engine"
	"dispatchsvc/internal/grpcapi"
	"dispatchsvc/internal/jobs"
	"dispatchsvc/internal/logx"
)

// MustRun starts the full server (HTTP, gRPC health, engine, jobs) using
// the provided DI container and blocks until shutdown.
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		panic(err)
	}
}

func run(container *dig.Container) error {
	return container.Invoke(func(
		ctx context.Context,
		cfg *config.Config,
		srv *http.Server,
		grpcSrv *grpcapi.Server,
		eng *engine.Engine,
		jm *jobs.JobManager,
		logger logx.Logger,
	) error {
		engineCtx, cancelEngine := context.WithCancel(context.Background())
		defer cancelEngine()

		go func() {
			if err := eng.Run(engineCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("engine stopped", logx.Any("error", err))
			}
		}()

		if err := jm.StartAll(); err != nil {
			return err
		}

		startHTTPServer(srv, logger)
		startGRPCServer(grpcSrv, logger)
		grpcSrv.SetServing()

		<-ctx.Done()
		logger.Info("shutdown requested")

		cancelEngine()
		jm.StopAll()
		grpcSrv.Stop()
		gracefulShutdownHTTP(srv, logger, cfg.Engine.ShutdownDrain+5*time.Second)
		return nil
	})
}

func startHTTPServer(srv *http.Server, logger logx.Logger) {
	go func() {
		logger.Info("http server listening", logx.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http listen error", logx.Any("error", err))
		}
	}()
}

func startGRPCServer(srv *grpcapi.Server, logger logx.Logger) {
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("grpc listen error", logx.Any("error", err))
		}
	}()
}

func gracefulShutdownHTTP(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Any("error", err))
	}
}
