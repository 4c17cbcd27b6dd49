package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tunebox/apiserver/internal/auth"
)

type contextKey string

const contextPrincipalKey contextKey = "principal"

// RequireAuth wraps the guard as chi middleware. The token is read from
// the Authorization header, falling back to the configured cookie.
func RequireAuth(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := guard.Authenticate(r.Context(), extractToken(r, guard.Config().CookieName))
			if err != nil {
				writeAppError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), contextPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, cookieName string) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

func principalFromContext(ctx context.Context) (auth.Principal, error) {
	principal, ok := ctx.Value(contextPrincipalKey).(auth.Principal)
	if !ok || principal.ID < 1 {
		return auth.Principal{}, errors.New("missing principal")
	}
	return principal, nil
}
