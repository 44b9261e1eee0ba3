package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"venturelink/interfaces/http/rest/handlers"
	"venturelink/interfaces/http/rest/middleware"
	"venturelink/pkg/auth"
	"venturelink/pkg/errors"
	"venturelink/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig holds the router's optional collaborators and CORS policy
type RouterConfig struct {
	// AllowedOrigins for CORS. Empty or "*" echoes any origin back.
	AllowedOrigins []string
	// Metrics is served on /metrics and fed by the metrics middleware when set
	Metrics *observability.Collector
	// LiveChannel serves /ws when set
	LiveChannel http.Handler
	// Readiness backs /ready. Nil means always ready.
	Readiness func(ctx context.Context) error
}

// Router creates and configures the HTTP router
type Router struct {
	conversations  handlers.ConversationService
	collaborations handlers.CollaborationService
	users          handlers.UserService
	sessions       *auth.SessionManager
	config         RouterConfig
	logger         *zap.Logger
	errorHandler   *errors.ErrorHandler
}

// NewRouter creates a new router instance
func NewRouter(
	conversations handlers.ConversationService,
	collaborations handlers.CollaborationService,
	users handlers.UserService,
	sessions *auth.SessionManager,
	config RouterConfig,
	logger *zap.Logger,
	errorHandler *errors.ErrorHandler,
) *Router {
	return &Router{
		conversations:  conversations,
		collaborations: collaborations,
		users:          users,
		sessions:       sessions,
		config:         config,
		logger:         logger,
		errorHandler:   errorHandler,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Tracing())
	if rt.config.Metrics != nil {
		router.Use(middleware.Metrics(rt.config.Metrics))
	}
	router.Use(cors.Handler(corsOptions(rt.config.AllowedOrigins)))

	// Health and metrics
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.config.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.config.Metrics.Handler())
	}

	if rt.config.LiveChannel != nil {
		router.Method(http.MethodGet, "/ws", rt.config.LiveChannel)
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := handlers.NewAuthHandler(rt.users, rt.sessions, rt.logger, rt.errorHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(middleware.Authenticate(rt.sessions, rt.errorHandler)).Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.sessions, rt.errorHandler))

			userHandler := handlers.NewUserHandler(rt.users, rt.logger, rt.errorHandler)
			r.Get("/users", userHandler.ListUsers)
			r.Get("/users/{userID}", userHandler.GetUser)
			r.Put("/profile", userHandler.UpdateProfile)

			r.Route("/conversations", func(r chi.Router) {
				conversationHandler := handlers.NewConversationHandler(rt.conversations, rt.logger, rt.errorHandler)
				r.Get("/{peerID}", conversationHandler.ListMessages)
				r.Post("/{peerID}/messages", conversationHandler.SendMessage)
			})

			r.Route("/collaboration-requests", func(r chi.Router) {
				collaborationHandler := handlers.NewCollaborationHandler(rt.collaborations, rt.logger, rt.errorHandler)
				r.Get("/", collaborationHandler.ListInbound)
				r.Post("/", collaborationHandler.Create)
				r.Put("/{requestID}", collaborationHandler.UpdateStatus)
			})
		})
	})

	return router
}

// healthCheck handles liveness requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports whether the record store can serve requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.config.Readiness != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := rt.config.Readiness(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			rt.errorHandler.HandleStatus(w, req, http.StatusServiceUnavailable, "not ready")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func corsOptions(allowed []string) cors.Options {
	options := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", handlers.SessionTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}

	for _, origin := range allowed {
		if strings.TrimSpace(origin) == "*" {
			allowed = nil
			break
		}
	}
	if len(allowed) == 0 {
		// Credentials rule out a literal "*", so the request origin is echoed instead
		options.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
		return options
	}
	options.AllowedOrigins = allowed
	return options
}
