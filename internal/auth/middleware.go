package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hedoomy/backoffice/internal/platform/httpx"
	"github.com/hedoomy/backoffice/internal/shared"
)

// Middleware wires bearer-token authentication and role checks.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Authenticate resolves the bearer token into an actor on the context.
// Requests without a valid token are rejected.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		actor, err := m.Service.Resolve(r.Context(), token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token resolve failed", slog.Any("error", err))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := shared.ContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the current actor holds one of the given roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			if _, ok := allowed[strings.ToLower(actor.Role)]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
