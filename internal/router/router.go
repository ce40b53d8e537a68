package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/senyabanana/sealed-tender/internal/auth"
	"github.com/senyabanana/sealed-tender/internal/handlers"
	"github.com/senyabanana/sealed-tender/internal/ratelimit"
	"github.com/senyabanana/sealed-tender/internal/utils"
)

// RouteRegistrar регистрирует маршруты компонента.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Options - общие middleware маршрутизатора.
type Options struct {
	Logger *slog.Logger
	// Validator проверяет bearer-токены; nil отключает аутентификацию.
	Validator *auth.JWTValidator
	// Limiter ограничивает частоту запросов к /api; nil отключает ограничение.
	Limiter        ratelimit.Store
	AllowedOrigins []string
}

const requestIDHeader = "X-Request-Id"

func InitRoutes(health *handlers.HealthHandler, opts Options, registrars ...RouteRegistrar) http.Handler {
	mux := chi.NewRouter()

	mux.Use(requestID)
	mux.Use(middleware.RealIP)
	mux.Use(accessLog(opts.Logger))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(opts.AllowedOrigins),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{"X-Total-Count", requestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/livez", health.Livez)
	mux.Get("/readyz", health.Readyz)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlers.PingHandler)

		r.Group(func(r chi.Router) {
			if opts.Validator != nil {
				r.Use(auth.Middleware(opts.Validator, func(w http.ResponseWriter, message string) {
					utils.SendErrorResponse(w, http.StatusUnauthorized, message)
				}))
			}
			if opts.Limiter != nil {
				r.Use(ratelimit.Middleware(opts.Limiter, opts.Logger, func(w http.ResponseWriter) {
					utils.SendErrorResponse(w, http.StatusTooManyRequests, "too many requests")
				}))
			}

			for _, registrar := range registrars {
				registrar.RegisterRoutes(r)
			}
		})
	})

	return mux
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// requestID берет X-Request-Id клиента или выдает новый UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog пишет по строке на запрос.
func accessLog(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"remote", r.RemoteAddr,
				"requestId", middleware.GetReqID(r.Context()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
