package rest

import (
	"examforge/internal/service"
	"examforge/internal/transport/rest/handler"
	"examforge/internal/transport/rest/middleware"
	"examforge/internal/transport/ws"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	QuestionService *service.QuestionService
	SessionService  *service.SessionService
	WSHub           *ws.Hub

	// AnswerLimiter throttles answer saves per taker; nil disables it.
	AnswerLimiter  *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	templateHandler := handler.NewTemplateHandler(c.QuestionService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.Logging)
	r.Use(corsMiddleware(c.AllowedOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/taker", authHandler.Taker).Methods("POST", "OPTIONS")

	// WebSocket (token in query param)
	v1.HandleFunc("/ws", wsHandler.Connect).Methods("GET")

	// Author routes
	authorRoutes := v1.NewRoute().Subrouter()
	authorRoutes.Use(authMW.RequireAuthor)

	authorRoutes.HandleFunc("/templates", templateHandler.Create).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/templates", templateHandler.List).Methods("GET", "OPTIONS")
	authorRoutes.HandleFunc("/templates/preview", templateHandler.Preview).Methods("POST", "OPTIONS")
	authorRoutes.HandleFunc("/templates/{id}", templateHandler.Get).Methods("GET", "OPTIONS")

	// Taker routes
	takerRoutes := v1.NewRoute().Subrouter()
	takerRoutes.Use(authMW.RequireTaker)

	takerRoutes.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	takerRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	takerRoutes.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")

	var saveAnswer http.Handler = http.HandlerFunc(sessionHandler.SaveAnswer)
	if c.AnswerLimiter != nil {
		saveAnswer = c.AnswerLimiter.Limit(saveAnswer)
	}
	takerRoutes.Handle("/sessions/{id}/questions/{index}", saveAnswer).Methods("PUT", "OPTIONS")

	return r
}

func corsMiddleware(allowed []string) mux.MiddlewareFunc {
	wildcard := len(allowed) == 0
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
