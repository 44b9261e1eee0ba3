package di

import (
	"venturelink/application/ports"
	"venturelink/application/services"
	"venturelink/infrastructure/config"
	"venturelink/interfaces/http/rest"
	"venturelink/interfaces/websocket"
	"venturelink/interfaces/websocket/apigateway"
	"venturelink/pkg/auth"
	"venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	LogLevel       zap.AtomicLevel
	Metrics        *observability.Collector
	Repositories   *Repositories
	EventBus       ports.EventBus
	Sessions       *auth.SessionManager
	ErrorHandler   *errors.ErrorHandler
	Hub            *websocket.Hub
	Gateway        *apigateway.Gateway
	Conversations  *services.ConversationService
	Collaborations *services.CollaborationService
	Users          *services.UserService
	WebSocket      *websocket.Server
	Router         *rest.Router
}

// RESTRouter builds a router without the live channel, for transports that
// cannot hold a connection open
func (c *Container) RESTRouter() *rest.Router {
	return rest.NewRouter(
		c.Conversations,
		c.Collaborations,
		c.Users,
		c.Sessions,
		routerConfig(c.Config, c.Metrics, c.Repositories, nil),
		c.Logger,
		c.ErrorHandler,
	)
}
