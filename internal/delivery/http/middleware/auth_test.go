package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportsbuddy/internal/delivery/http/helpers"
	"sportsbuddy/internal/domain"
)

// fakeAuthenticator implements domain.Authenticator for tests.
type fakeAuthenticator struct {
	requester domain.Requester
	err       error
	gotToken  string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (domain.Requester, error) {
	f.gotToken = token
	if f.err != nil {
		return domain.Requester{}, f.err
	}
	return f.requester, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	member := domain.Requester{ID: "user-123", Role: domain.RoleUser}

	tests := []struct {
		name          string
		authHeader    string
		authn         *fakeAuthenticator
		cookie        string
		wantToken     string
		wantStatus    int
		wantBodyCode  string
		nextCalled    bool
		wantRequester domain.Requester
	}{
		{
			name:          "valid token sets context and calls next",
			authHeader:    "Bearer valid-token",
			authn:         &fakeAuthenticator{requester: member},
			wantToken:     "valid-token",
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantRequester: member,
		},
		{
			name:          "cookie is used when there is no header",
			cookie:        "cookie-token",
			authn:         &fakeAuthenticator{requester: member},
			wantToken:     "cookie-token",
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantRequester: member,
		},
		{
			name:          "header wins over cookie",
			authHeader:    "Bearer header-token",
			cookie:        "cookie-token",
			authn:         &fakeAuthenticator{requester: member},
			wantToken:     "header-token",
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantRequester: member,
		},
		{
			name:         "missing authorization header",
			authn:        &fakeAuthenticator{requester: member},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "invalid authorization format no Bearer prefix",
			authHeader:   "Basic abc",
			authn:        &fakeAuthenticator{requester: member},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "empty token after Bearer",
			authHeader:   "Bearer ",
			authn:        &fakeAuthenticator{requester: member},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "verifier returns error",
			authHeader:   "Bearer bad-token",
			authn:        &fakeAuthenticator{err: fmt.Errorf("%w: expired", domain.ErrUnauthenticated)},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "user lookup fails",
			authHeader:   "Bearer good-token",
			authn:        &fakeAuthenticator{err: errors.New("connection refused")},
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var captured domain.Requester
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				captured, _ = RequesterFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}
			handler := RequireAuth(tt.authn, logger)(next)

			req := httptest.NewRequest(http.MethodGet, "http://test/auth/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.nextCalled, nextCalled)
			if tt.nextCalled {
				assert.Equal(t, tt.wantRequester, captured)
				assert.Equal(t, tt.wantToken, tt.authn.gotToken)
			}
			if tt.wantBodyCode != "" {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
		})
	}
}

func TestRequesterFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := RequesterFromContext(req.Context())
	assert.False(t, ok)

	ctx := SetRequester(req.Context(), domain.Requester{})
	_, ok = RequesterFromContext(ctx)
	assert.False(t, ok, "a requester without an id is not authenticated")
}
