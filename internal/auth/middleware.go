package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clubforge/clubforge/internal/authz"
	"github.com/clubforge/clubforge/internal/directory"
	"github.com/clubforge/clubforge/internal/platform/httpx"
	"github.com/clubforge/clubforge/internal/shared"
)

// PrincipalResolver loads the caller's account for request-scoped authorization.
type PrincipalResolver interface {
	GetUser(ctx context.Context, id string) (directory.User, error)
}

// ResolvePrincipal attaches the caller's principal to the request context
// when a logged-in session exists. Requests without a session pass through.
func ResolvePrincipal(logger *slog.Logger, users PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.User() == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.GetUser(r.Context(), sess.User())
			if err != nil {
				if errors.Is(err, directory.ErrNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("resolve principal", slog.Any("error", err))
				httpx.RespondError(w, httpx.ErrUnavailable)
				return
			}
			ctx := authz.ContextWithPrincipal(r.Context(), authz.PrincipalFromUser(user))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal rejects requests lacking an authenticated principal.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authz.PrincipalFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
