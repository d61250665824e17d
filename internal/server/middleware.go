package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type contextKey string

const actorKey contextKey = "actor"

// IdentityResolver resolves a bearer token to an actor ID. An empty string
// means the token is unknown.
type IdentityResolver interface {
	Resolve(token string) (string, error)
}

// WithIdentity resolves the Authorization bearer token (when present) and
// stores the actor ID on the request context. Requests without a token
// proceed anonymously; handlers that need an identity reject them.
func WithIdentity(resolver IdentityResolver, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(header, "Bearer "); ok {
				actorID, err := resolver.Resolve(token)
				if err != nil {
					logger.Error("identity resolution failed", "error", err)
					WriteProblem(w, http.StatusInternalServerError, "internal error", "")
					return
				}
				if actorID != "" {
					r = r.WithContext(context.WithValue(r.Context(), actorKey, actorID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorID returns the authenticated actor for the request, or empty for
// anonymous callers.
func ActorID(r *http.Request) string {
	if id, ok := r.Context().Value(actorKey).(string); ok {
		return id
	}
	return ""
}

// WithLogging logs each request with method, path, and duration.
func WithLogging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}
