package http

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"sportsbuddy/internal/delivery/http/controllers"
	"sportsbuddy/internal/delivery/http/middleware"
	"sportsbuddy/internal/domain"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Logger             *slog.Logger
	EventService       domain.EventService
	AuthService        domain.AuthService
	Authenticator      domain.Authenticator
	CORSAllowedOrigins []string
	// TokenTTL and SecureCookie configure the session cookie set on login.
	TokenTTL     time.Duration
	SecureCookie bool
}

// NewRouter initializes the HTTP router with all application routes and wraps
// it in the request id, panic recovery, logging and CORS middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	events := controllers.NewEventController(cfg.Logger, cfg.EventService)
	users := controllers.NewUserController(cfg.Logger, cfg.AuthService)
	users.TokenTTL = cfg.TokenTTL
	users.SecureCookie = cfg.SecureCookie
	auth := middleware.RequireAuth(cfg.Authenticator, cfg.Logger)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", users.SignUp)
	mux.HandleFunc("POST /auth/login", users.Login)
	mux.HandleFunc("POST /auth/logout", users.Logout)
	mux.HandleFunc("GET /auth/me", auth(users.GetMe))

	// Events
	mux.HandleFunc("GET /events", events.ListEvents)
	mux.HandleFunc("POST /events", auth(events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", events.GetEventByID)
	mux.HandleFunc("PATCH /events/{eventID}", auth(events.UpdateEvent))
	mux.HandleFunc("PUT /events/{eventID}", auth(events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", auth(events.DeleteEvent))
	mux.HandleFunc("POST /events/{eventID}/participate", auth(events.Participate))
	mux.HandleFunc("POST /events/{eventID}/leave", auth(events.Leave))
	mux.HandleFunc("GET /users/me/events", auth(events.ListMyEvents))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORSAllowedOrigins)(handler)
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = chimw.Recoverer(handler)
	handler = chimw.RequestID(handler)
	return handler
}
