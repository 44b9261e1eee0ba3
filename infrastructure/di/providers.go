package di

import (
	"context"
	"fmt"
	"net/http"

	"venturelink/application/ports"
	"venturelink/application/services"
	"venturelink/infrastructure/config"
	"venturelink/infrastructure/messaging"
	"venturelink/infrastructure/messaging/eventbridge"
	"venturelink/infrastructure/persistence"
	"venturelink/infrastructure/persistence/dynamodb"
	"venturelink/infrastructure/persistence/memory"
	"venturelink/interfaces/http/rest"
	"venturelink/interfaces/websocket"
	"venturelink/interfaces/websocket/apigateway"
	"venturelink/pkg/auth"
	"venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Repositories is the record store selected by configuration
type Repositories struct {
	Users    ports.UserRepository
	Profiles ports.ProfileRepository
	Requests ports.CollaborationRequestRepository
	Messages ports.MessageRepository
	// Connections is the external connection registry; nil for the memory store
	Connections ports.ConnectionRegistry
	// Ready reports whether the backing store is reachable
	Ready func(ctx context.Context) error
}

// ProvideLogLevel parses the configured level into an adjustable one
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("venturelink")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at DYNAMODB_ENDPOINT when set
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideAPIGatewayClient creates the management API client of the websocket API
func ProvideAPIGatewayClient(awsCfg aws.Config, cfg *config.Config) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		if cfg.WebSocketAPIEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.WebSocketAPIEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideRepositories selects the record store. The DynamoDB message repository
// sits behind a circuit breaker.
func ProvideRepositories(
	ctx context.Context,
	cfg *config.Config,
	client *awsdynamodb.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.StorageDynamoDB:
		if cfg.DynamoDBEndpoint != "" {
			if err := dynamodb.EnsureTable(ctx, client, cfg.DynamoDBTable, logger); err != nil {
				return nil, err
			}
		}

		store := dynamodb.NewStore(client, cfg.DynamoDBTable, metrics, logger)
		messages := persistence.NewMessageRepositoryBreaker(
			store.Messages,
			persistence.DefaultBreakerConfig("dynamodb-messages"),
			logger,
		)
		logger.Info("Using DynamoDB record store", zap.String("table", cfg.DynamoDBTable))
		return &Repositories{
			Users:       store.Users,
			Profiles:    store.Profiles,
			Requests:    store.Requests,
			Messages:    messages,
			Connections: store.Connections,
			Ready: func(ctx context.Context) error {
				if err := messages.Ready(); err != nil {
					return err
				}
				_, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(cfg.DynamoDBTable)})
				return err
			},
		}, nil

	default:
		store := memory.NewStore()
		logger.Info("Using in-memory record store")
		return &Repositories{
			Users:    store.Users,
			Profiles: store.Profiles,
			Requests: store.Requests,
			Messages: store.Messages,
		}, nil
	}
}

// ProvideEventBus publishes to EventBridge when a bus is configured and logs events otherwise
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.EventBusName == "" {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideSessionManager creates the session token manager
func ProvideSessionManager(cfg *config.Config) (*auth.SessionManager, error) {
	return auth.NewSessionManager(auth.SessionConfig{
		Secret:       cfg.SessionSecret,
		Issuer:       cfg.SessionIssuer,
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SessionCookieSecure,
	})
}

// ProvideErrorHandler creates the central HTTP error mapper
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideHub creates the live channel hub. Its event loop is started by the caller.
func ProvideHub(metrics *observability.Collector, logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(metrics, logger)
}

// ProvideGateway creates the API Gateway live channel, or nil when no
// websocket API is configured
func ProvideGateway(
	repos *Repositories,
	client *apigatewaymanagementapi.Client,
	sessions *auth.SessionManager,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*apigateway.Gateway, error) {
	if cfg.WebSocketAPIEndpoint == "" {
		return nil, nil
	}
	if repos.Connections == nil {
		return nil, fmt.Errorf("the API Gateway live channel needs a connection registry")
	}

	logger.Info("Using API Gateway live channel", zap.String("endpoint", cfg.WebSocketAPIEndpoint))
	return apigateway.NewGateway(
		repos.Connections,
		client,
		sessions,
		apigateway.Config{
			RequireSession:        cfg.WSRequireSession,
			MaxConnectionsPerUser: cfg.WSMaxConnectionsPerUser,
		},
		metrics,
		logger,
	), nil
}

// ProvideBroadcaster picks the live channel the conversation service pushes to:
// API Gateway when configured, the in-process hub otherwise
func ProvideBroadcaster(hub *websocket.Hub, gateway *apigateway.Gateway, logger *zap.Logger) ports.MessageBroadcaster {
	if gateway != nil {
		return gateway
	}
	return websocket.NewBroadcaster(hub, logger)
}

// ProvideConversationService creates the conversation log service
func ProvideConversationService(
	repos *Repositories,
	broadcaster ports.MessageBroadcaster,
	eventBus ports.EventBus,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.ConversationService {
	return services.NewConversationService(
		repos.Users,
		repos.Messages,
		repos.Requests,
		broadcaster,
		eventBus,
		services.ConversationConfig{RequireAcceptedRequest: cfg.MessagingRequireAcceptedRequest},
		metrics,
		logger,
	)
}

// ProvideCollaborationService creates the collaboration request service
func ProvideCollaborationService(
	repos *Repositories,
	eventBus ports.EventBus,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.CollaborationService {
	return services.NewCollaborationService(repos.Users, repos.Profiles, repos.Requests, eventBus, metrics, logger)
}

// ProvideUserService creates the account service
func ProvideUserService(repos *Repositories, logger *zap.Logger) *services.UserService {
	return services.NewUserService(repos.Users, repos.Profiles, logger)
}

// ProvideWebSocketServer creates the upgrade handler of the live channel
func ProvideWebSocketServer(
	hub *websocket.Hub,
	sessions *auth.SessionManager,
	cfg *config.Config,
	logger *zap.Logger,
) *websocket.Server {
	wsConfig := websocket.DefaultServerConfig()
	wsConfig.RequireSession = cfg.WSRequireSession
	wsConfig.MaxConnectionsPerUser = cfg.WSMaxConnectionsPerUser
	wsConfig.AllowedOrigins = cfg.WSAllowedOrigins
	return websocket.NewServer(hub, sessions, wsConfig, logger)
}

// ProvideRouter creates the HTTP router with the live channel mounted on /ws
func ProvideRouter(
	conversations *services.ConversationService,
	collaborations *services.CollaborationService,
	users *services.UserService,
	sessions *auth.SessionManager,
	wsServer *websocket.Server,
	repos *Repositories,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
	errorHandler *errors.ErrorHandler,
) *rest.Router {
	return rest.NewRouter(
		conversations,
		collaborations,
		users,
		sessions,
		routerConfig(cfg, metrics, repos, wsServer),
		logger,
		errorHandler,
	)
}

func routerConfig(cfg *config.Config, metrics *observability.Collector, repos *Repositories, wsServer *websocket.Server) rest.RouterConfig {
	routerCfg := rest.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        metrics,
		Readiness:      repos.Ready,
	}
	// With an API Gateway channel configured the hub receives no broadcasts
	if wsServer != nil && cfg.WebSocketAPIEndpoint == "" {
		routerCfg.LiveChannel = http.HandlerFunc(wsServer.HandleWebSocket)
	}
	return routerCfg
}
