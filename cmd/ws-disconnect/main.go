// Command ws-disconnect serves the $disconnect route of the API Gateway websocket API.
package main

import (
	"context"
	"log"
	"time"

	"venturelink/infrastructure/config"
	"venturelink/infrastructure/di"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var container *di.Container

func init() {
	start := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	if container.Gateway == nil {
		log.Fatal("WEBSOCKET_API_ENDPOINT is not configured")
	}

	container.Logger.Info("ws-disconnect cold start completed", zap.Duration("duration", time.Since(start)))
}

func main() {
	lambda.Start(container.Gateway.HandleDisconnect)
}
