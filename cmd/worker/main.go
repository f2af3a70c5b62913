// Command worker runs only the assignment engine and the Kafka order
// ingress adapter, with no HTTP/WS/gRPC surface — for deployments that
// scale dispatch processing independently of the REST API.
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

	container := app.MustBuildWorkerContainer(ctx)
	app.NewWorkerRunner().MustRun(container)
}
