// Command service-courier runs the full dispatch service: HTTP REST +
// WebSocket + dashboard, gRPC health checking, the assignment engine and
// its background jobs, with an optional Kafka order ingress.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"dispatchsvc/internal/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container := app.MustBuildContainer(ctx)
	app.MustRun(container)
}
