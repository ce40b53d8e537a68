// Package ratelimit ограничивает частоту запросов по клиенту.
package ratelimit

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/senyabanana/sealed-tender/internal/auth"
)

// Store решает, можно ли пропустить очередной запрос клиента key.
type Store interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Policy - допустимая частота запросов.
type Policy struct {
	RPS   float64
	Burst int
}

// ClientKey - аутентифицированный субъект, а для анонимных запросов - IP.
func ClientKey(r *http.Request) string {
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		return "sub:" + principal
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = strings.TrimSuffix(strings.TrimPrefix(r.RemoteAddr, "["), "]")
	}
	return "ip:" + ip
}

// Middleware отклоняет запросы сверх лимита с кодом 429.
// При недоступности хранилища лимитов запрос пропускается.
func Middleware(store Store, log *slog.Logger, onLimited func(w http.ResponseWriter)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKey(r)

			allowed, err := store.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(1))
				onLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
