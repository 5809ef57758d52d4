package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "sportsbuddy/internal/delivery/http/helpers"
	"sportsbuddy/internal/domain"
)

type contextKey string

const requesterKey contextKey = "requester"

// SetRequester returns a context carrying the authenticated requester.
func SetRequester(ctx context.Context, r domain.Requester) context.Context {
	return context.WithValue(ctx, requesterKey, r)
}

// RequesterFromContext returns the requester stored by RequireAuth, if any.
func RequesterFromContext(ctx context.Context) (domain.Requester, bool) {
	r, ok := ctx.Value(requesterKey).(domain.Requester)
	return r, ok && r.IsAuthenticated()
}

// TokenCookieName is the cookie that carries the session token for browser
// clients. The Authorization header wins when both are present.
const TokenCookieName = "SportsBuddyToken"

// RequireAuth returns a wrapper that resolves the Bearer token (or the
// TokenCookieName cookie) and stores the requester in the request context.
// A missing or invalid token, or one whose user no longer exists, gets a 401
// and next is not called.
func RequireAuth(authn domain.Authenticator, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, msg := requestToken(r)
			if msg != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
				return
			}
			requester, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
					h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
					return
				}
				logger.ErrorContext(r.Context(), "authentication failed", "path", r.URL.Path, "method", r.Method, "err", err)
				h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
				return
			}
			next(w, r.WithContext(SetRequester(r.Context(), requester)))
		}
	}
}

// requestToken returns the token and an empty message, or the reason the
// request carries none.
func requestToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
			return c.Value, ""
		}
		return "", "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", "invalid authorization format"
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", "missing token"
	}
	return token, ""
}
