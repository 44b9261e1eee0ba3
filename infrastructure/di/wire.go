//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"venturelink/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideMetrics,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideAPIGatewayClient,
	ProvideRepositories,
	ProvideEventBus,
	ProvideSessionManager,
	ProvideErrorHandler,
	ProvideHub,
	ProvideGateway,
	ProvideBroadcaster,
	ProvideConversationService,
	ProvideCollaborationService,
	ProvideUserService,
	ProvideWebSocketServer,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
