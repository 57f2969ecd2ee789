package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"reverse_market/internal/lib/errors"
	"reverse_market/internal/lib/token"
	"reverse_market/internal/models/user"

	"github.com/go-chi/render"
)

type ctxKey struct{}

type Identity struct {
	User user.User
	Jti  string
}

type UserFetcher interface {
	FetchUser(id string) (user.User, error)
}

type SessionChecker interface {
	Exists(ctx context.Context, jti string) (bool, error)
}

// New builds the bearer-token middleware: parse the token, check the
// session is still alive, load the user and hang the identity on the
// request context.
func New(log *slog.Logger, tokens *token.Manager, sessions SessionChecker, users UserFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.auth.New"

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				render.Status(r, 401)
				render.JSON(w, r, errors.NewHttpError("Missing bearer token"))
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				log.Info("rejected token", slog.String("op", op), slog.String("error", err.Error()))
				render.Status(r, 401)
				render.JSON(w, r, errors.NewHttpError("Invalid authentication credentials"))
				return
			}

			alive, err := sessions.Exists(r.Context(), claims.ID)
			if err != nil || !alive {
				render.Status(r, 401)
				render.JSON(w, r, errors.NewHttpError("Session expired"))
				return
			}

			usr, err := users.FetchUser(claims.Sub)
			if err != nil {
				render.Status(r, 401)
				render.JSON(w, r, errors.NewHttpError("User not found"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, Identity{User: usr, Jti: claims.ID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the identity stored by the middleware. The bool is
// false on routes that never went through it.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// WithIdentity is for tests: it plants an identity the way the
// middleware would.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
