package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"github.com/swaggo/swag"

	appLogger "github.com/teachmeskills/todo-api/app/logger"
	appMiddleware "github.com/teachmeskills/todo-api/app/middleware"
	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/api/auth"
	"github.com/teachmeskills/todo-api/internal/api/todo"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger      *slog.Logger
	AppConfig   *config.Config
	AuthHandler *auth.HandlerImpl
	TodoHandler *todo.HandlerImpl
}

// SetupRouter composes the request pipeline in its fixed stage order:
// request id / real ip, request logging, CORS admission, HTTPS redirection,
// routing, documentation endpoints, authentication, authorization, and the
// error-translating wrapper around endpoint dispatch. Every stage may
// short-circuit; none retries.
func SetupRouter(cfg *Config) chi.Router {
	development := cfg.AppConfig.Mode == "development"

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	// After RequestID so every log line carries the request id
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(appMiddleware.CORS())
	if cfg.AppConfig.Server.RedirectHTTPS {
		r.Use(appMiddleware.RedirectHTTPS)
	}
	r.Use(middleware.StripSlashes)

	// Health check, public
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Documentation endpoints bypass authentication
	r.Get("/swagger/v1/swagger.json", serveSwaggerJSON)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/v1/swagger.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public Auth Routes ---
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.ErrorTranslator(cfg.Logger, development))
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)
		})

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.Logger, cfg.AppConfig.JWT))
			r.Use(appMiddleware.ErrorTranslator(cfg.Logger, development))

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Put("/auth/password", cfg.AuthHandler.UpdatePassword)

			r.Route("/todos", func(r chi.Router) {
				r.Post("/", cfg.TodoHandler.CreateTodoHandler)
				r.Get("/", cfg.TodoHandler.ListTodosHandler)
				r.Get("/{todoID}", cfg.TodoHandler.GetTodoHandler)
				r.Put("/{todoID}", cfg.TodoHandler.UpdateTodoHandler)
				r.Patch("/{todoID}/complete", cfg.TodoHandler.CompleteTodoHandler)
				r.Delete("/{todoID}", cfg.TodoHandler.DeleteTodoHandler)
			})
		})

		// --- Admin Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate(cfg.Logger, cfg.AppConfig.JWT))
			r.Use(auth.RequireRole(cfg.Logger, "admin"))
			r.Use(appMiddleware.ErrorTranslator(cfg.Logger, development))

			r.Get("/admin/todos", cfg.TodoHandler.AdminListTodosHandler)
		})
	})

	return r
}

// serveSwaggerJSON serves the generated OpenAPI schema registered by the
// docs package.
func serveSwaggerJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, "OpenAPI document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
