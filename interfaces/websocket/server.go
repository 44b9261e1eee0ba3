package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"venturelink/pkg/auth"
	pkgerrors "venturelink/pkg/errors"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	// RequireSession rejects upgrades without a valid session with 401
	RequireSession bool
	// MaxConnectionsPerUser caps concurrent connections of one authenticated user
	MaxConnectionsPerUser int
	// AllowedOrigins lists accepted Origin values. Empty or "*" accepts any origin.
	AllowedOrigins []string
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:        1024,
		WriteBufferSize:       1024,
		RequireSession:        true,
		MaxConnectionsPerUser: 10,
	}
}

// Server upgrades HTTP requests onto the live channel
type Server struct {
	hub          *Hub
	sessions     *auth.SessionManager
	upgrader     websocket.Upgrader
	config       ServerConfig
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, sessions *auth.SessionManager, config ServerConfig, logger *zap.Logger) *Server {
	if config.MaxConnectionsPerUser < 1 {
		config.MaxConnectionsPerUser = DefaultServerConfig().MaxConnectionsPerUser
	}

	return &Server{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
		config:       config,
		errorHandler: pkgerrors.NewErrorHandler(logger, false),
		logger:       logger,
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.sessions.Authenticate(r)
	if err != nil {
		if s.config.RequireSession {
			s.logger.Debug("WebSocket authentication failed",
				zap.Error(err),
				zap.String("remoteAddr", r.RemoteAddr),
			)
			s.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("").WithCause(err))
			return
		}
		userID = 0
	}

	if !userID.IsZero() && s.hub.UserConnectionCount(userID) >= s.config.MaxConnectionsPerUser {
		s.logger.Warn("Connection limit exceeded for user",
			zap.Int64("userID", userID.Int64()),
			zap.Int("limit", s.config.MaxConnectionsPerUser),
		)
		s.errorHandler.HandleStatus(w, r, http.StatusTooManyRequests, "connection limit exceeded")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	client := NewClient(userID, s.hub, conn, s.logger)
	client.Start()

	s.logger.Info("New WebSocket connection established",
		zap.Int64("userID", userID.Int64()),
		zap.String("connectionID", client.ID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if origin != "" {
			set[strings.ToLower(origin)] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
