package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/rag-chat/app"
	"github.com/upb/rag-chat/handlers"
	"github.com/upb/rag-chat/middleware"
	"github.com/upb/rag-chat/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	timeout := defaultRequestTimeout
	origins := []string{"*"}
	if deps.Config != nil {
		if deps.Config.Server.WriteTimeout > 0 {
			timeout = deps.Config.Server.WriteTimeout
		}
		if len(deps.Config.Server.CORSAllowedOrigins) > 0 {
			origins = deps.Config.Server.CORSAllowedOrigins
		}
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	chatHandler := handlers.NewChatHandler(deps.ChatService, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.Index, deps.GeneratorConfigured, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler.HandleChat)
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/ready", healthHandler.HandleReadiness)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteErrorMessage(w, http.StatusNotFound, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return r
}
