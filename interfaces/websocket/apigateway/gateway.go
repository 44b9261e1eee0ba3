// Package apigateway runs the live channel on an API Gateway websocket API.
// Connections live in a ConnectionRegistry instead of process memory, and
// frames are pushed with the management API's PostToConnection.
package apigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"venturelink/application/ports"
	"venturelink/domain/core/entities"
	"venturelink/interfaces/websocket"
	"venturelink/pkg/auth"
	"venturelink/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// PostClient is the subset of the management API the gateway uses.
// *apigatewaymanagementapi.Client satisfies it.
type PostClient interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

var _ PostClient = (*apigatewaymanagementapi.Client)(nil)

// Config holds the connection policy of the gateway
type Config struct {
	RequireSession        bool
	MaxConnectionsPerUser int
}

// Gateway handles the $connect, $disconnect and $default routes and
// implements ports.MessageBroadcaster over the registered connections.
type Gateway struct {
	connections ports.ConnectionRegistry
	client      PostClient
	sessions    *auth.SessionManager
	config      Config
	metrics     *observability.Collector
	logger      *zap.Logger
	now         func() time.Time
}

var _ ports.MessageBroadcaster = (*Gateway)(nil)

// NewGateway creates a gateway. metrics may be nil.
func NewGateway(
	connections ports.ConnectionRegistry,
	client PostClient,
	sessions *auth.SessionManager,
	config Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		connections: connections,
		client:      client,
		sessions:    sessions,
		config:      config,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// HandleConnect authenticates the upgrade and registers the connection.
// Browsers cannot set headers on a websocket upgrade, so the session token
// may also arrive as the token query parameter.
func (g *Gateway) HandleConnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	userID, err := g.sessions.Validate(sessionToken(req))
	if err != nil {
		if g.config.RequireSession {
			g.logger.Debug("WebSocket authentication failed",
				zap.Error(err),
				zap.String("connectionID", connectionID),
			)
			return respond(http.StatusUnauthorized, "authentication required"), nil
		}
		userID = 0
	}

	if !userID.IsZero() {
		count, err := g.connections.CountByUser(ctx, userID)
		if err != nil {
			g.logger.Error("Failed to count user connections", zap.Error(err), zap.Int64("userID", userID.Int64()))
			return respond(http.StatusInternalServerError, "failed to register connection"), nil
		}
		if count >= g.config.MaxConnectionsPerUser {
			g.logger.Warn("Connection limit exceeded for user",
				zap.Int64("userID", userID.Int64()),
				zap.Int("limit", g.config.MaxConnectionsPerUser),
			)
			return respond(http.StatusTooManyRequests, "connection limit exceeded"), nil
		}
	}

	conn, err := entities.NewConnection(connectionID, userID, g.now().UTC(), g.sessions.TTL())
	if err != nil {
		return respond(http.StatusBadRequest, "missing connection id"), nil
	}
	if err := g.connections.Register(ctx, conn); err != nil {
		return respond(http.StatusInternalServerError, "failed to register connection"), nil
	}

	g.logger.Info("Client registered",
		zap.Int64("userID", userID.Int64()),
		zap.String("connectionID", connectionID),
	)
	return respond(http.StatusOK, "connected"), nil
}

// HandleDisconnect deregisters the connection. It always succeeds: the socket
// is already gone and a failed delete is reaped by the TTL.
func (g *Gateway) HandleDisconnect(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	if err := g.connections.Deregister(ctx, connectionID); err != nil {
		g.logger.Warn("Failed to deregister connection", zap.Error(err), zap.String("connectionID", connectionID))
	}

	g.logger.Info("Client unregistered", zap.String("connectionID", connectionID))
	return respond(http.StatusOK, "disconnected"), nil
}

// HandleMessage relays a client frame that is valid JSON to every other
// connection. Anything else is dropped.
func (g *Gateway) HandleMessage(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	frame := bytes.TrimSpace([]byte(req.Body))
	if !json.Valid(frame) {
		g.logger.Debug("Dropping frame that is not JSON",
			zap.String("connectionID", connectionID),
			zap.Int("size", len(frame)),
		)
		return respond(http.StatusOK, "dropped"), nil
	}

	delivered, dropped := g.Relay(ctx, connectionID, frame)
	g.logger.Debug("Relayed client frame",
		zap.String("connectionID", connectionID),
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped),
	)
	return respond(http.StatusOK, "relayed"), nil
}

// BroadcastMessage wraps msg in a message frame and posts it to every connection
func (g *Gateway) BroadcastMessage(ctx context.Context, msg *entities.Message) {
	frame, err := websocket.EncodeMessageFrame(msg)
	if err != nil {
		g.logger.Error("Failed to marshal message frame",
			zap.Int64("messageID", msg.ID.Int64()),
			zap.Error(err),
		)
		return
	}

	delivered, dropped := g.Broadcast(ctx, frame)
	g.logger.Debug("Message broadcast",
		zap.Int64("messageID", msg.ID.Int64()),
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped),
	)
}

// Broadcast posts frame to every registered connection
func (g *Gateway) Broadcast(ctx context.Context, frame []byte) (delivered, dropped int) {
	delivered, dropped = g.fanOut(ctx, "", frame)
	g.metrics.RecordBroadcast(delivered, dropped)
	return delivered, dropped
}

// Relay posts frame to every registered connection except from
func (g *Gateway) Relay(ctx context.Context, from string, frame []byte) (delivered, dropped int) {
	delivered, dropped = g.fanOut(ctx, from, frame)
	g.metrics.RecordRelay(delivered, dropped)
	return delivered, dropped
}

// fanOut posts to a snapshot of the registry. A connection API Gateway reports
// as gone is deregistered on the spot.
func (g *Gateway) fanOut(ctx context.Context, skip string, frame []byte) (delivered, dropped int) {
	conns, err := g.connections.List(ctx)
	if err != nil {
		g.logger.Error("Failed to list connections", zap.Error(err))
		return 0, 0
	}

	for _, conn := range conns {
		if conn.ID == skip {
			continue
		}

		_, err := g.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(conn.ID),
			Data:         frame,
		})
		if err == nil {
			delivered++
			continue
		}

		dropped++
		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			g.logger.Info("Deregistering stale connection",
				zap.Int64("userID", conn.UserID.Int64()),
				zap.String("connectionID", conn.ID),
			)
			if err := g.connections.Deregister(ctx, conn.ID); err != nil {
				g.logger.Warn("Failed to deregister stale connection", zap.Error(err), zap.String("connectionID", conn.ID))
			}
			continue
		}
		g.logger.Warn("Failed to post to connection", zap.Error(err), zap.String("connectionID", conn.ID))
	}
	return delivered, dropped
}

// sessionToken reads the token query parameter, then the Authorization
// header and the session cookie
func sessionToken(req events.APIGatewayWebsocketProxyRequest) string {
	if token := req.QueryStringParameters["token"]; token != "" {
		return token
	}

	header := http.Header{}
	for name, values := range req.MultiValueHeaders {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	for name, value := range req.Headers {
		if header.Get(name) == "" {
			header.Set(name, value)
		}
	}
	return auth.TokenFromHeader(header)
}

func respond(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"message": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
