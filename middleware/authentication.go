package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/jrozner/roomboard/web/apperr"
	"github.com/jrozner/roomboard/web/auth"
)

type contextKey string

const userKey contextKey = "user"

// Verifier checks a session token.
type Verifier interface {
	Verify(raw string) (*auth.Claims, error)
}

type authenticate struct {
	tokens Verifier
	h      http.Handler
}

func (a *authenticate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		hlog.FromRequest(r).Debug().Msg("missing token")
		writeError(w, http.StatusUnauthorized, apperr.CodeUnauthenticated, "No token provided")
		return
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("token rejected")
		writeError(w, http.StatusUnauthorized, apperr.CodeUnauthenticated, "Invalid or expired token")
		return
	}

	ctx := context.WithValue(r.Context(), userKey, claims)
	a.h.ServeHTTP(w, r.WithContext(ctx))
}

// bearerToken takes the token from the Authorization header, falling back
// to the token query parameter used by dashboard redirects.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}

	return r.URL.Query().Get("token")
}

func Authenticate(tokens Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &authenticate{
			tokens: tokens,
			h:      next,
		}
	}
}

// Claims returns the authenticated session, if any.
func Claims(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(userKey).(*auth.Claims)
	return claims, ok
}

// UserID returns the authenticated user's id, or 0 outside an authenticated
// route.
func UserID(ctx context.Context) uint64 {
	claims, ok := Claims(ctx)
	if !ok {
		return 0
	}

	return claims.UserID
}

// WithClaims is for tests and internal callers that authenticate by other
// means.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, userKey, claims)
}
