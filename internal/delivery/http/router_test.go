package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sportsbuddy/internal/adapters/auth"
	"sportsbuddy/internal/domain"
	"sportsbuddy/internal/repository/memory"
	"sportsbuddy/internal/services"
)

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	auth   domain.AuthService
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (c apiClient) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.server.URL+path, rdr)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (c apiClient) login(name, email string) string {
	c.t.Helper()
	status, _ := c.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"name": name, "username": name, "email": email, "password": "secret1",
	})
	require.Equal(c.t, http.StatusCreated, status)
	status, env := c.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(c.t, http.StatusOK, status)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func newTestAPI(t *testing.T) apiClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := auth.NewJWT("router-test-secret")
	eventSvc := services.NewEventService(memory.NewEventRepository(), services.EventServiceConfig{Timeout: 5 * time.Second})
	users := memory.NewUserRepository()
	authSvc := services.NewAuthService(users, auth.NewBcryptHasher(bcrypt.MinCost), jwt, time.Hour, nil, logger)

	server := httptest.NewServer(NewRouter(RouterConfig{
		Logger:             logger,
		EventService:       eventSvc,
		AuthService:        authSvc,
		Authenticator:      services.NewAuthenticator(jwt, users),
		CORSAllowedOrigins: []string{"*"},
		TokenTTL:           time.Hour,
	}))
	t.Cleanup(server.Close)
	return apiClient{t: t, server: server, auth: authSvc}
}

func TestRouter_EventLifecycle(t *testing.T) {
	api := newTestAPI(t)
	creatorToken := api.login("creator", "creator@example.com")
	aToken := api.login("alice", "alice@example.com")
	bToken := api.login("bobby", "bobby@example.com")

	status, _ := api.do(http.MethodPost, "/events", "", map[string]any{"name": "no token"})
	require.Equal(t, http.StatusUnauthorized, status)

	draft := map[string]any{
		"name":            "Tuesday doubles",
		"category":        "Tennis",
		"description":     "Doubles on the clay courts, bring a racket",
		"date":            time.Now().UTC().AddDate(0, 0, 3).Format(domain.DateLayout),
		"time":            "18:30",
		"location":        map[string]string{"address": "3 Court Row", "city": "York"},
		"maxParticipants": 1,
	}
	status, env := api.do(http.MethodPost, "/events", creatorToken, draft)
	require.Equal(t, http.StatusCreated, status)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Empty(t, event.Participants)
	assert.Equal(t, 1, event.MaxParticipants)

	path := "/events/" + event.ID
	status, _ = api.do(http.MethodPost, path+"/participate", aToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = api.do(http.MethodPost, path+"/participate", bToken, nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", env.Error.Code)

	status, _ = api.do(http.MethodPost, path+"/leave", aToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, env = api.do(http.MethodPost, path+"/participate", bToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &event))

	status, _ = api.do(http.MethodPatch, path, aToken, map[string]any{"name": "Hijacked"})
	require.Equal(t, http.StatusForbidden, status)

	status, env = api.do(http.MethodPut, path, creatorToken, event)
	require.Equal(t, http.StatusOK, status, "a fetched event can be sent back whole")
	var updated domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, event.CreatedBy, updated.CreatedBy)
	assert.Len(t, updated.Participants, 1)

	status, env = api.do(http.MethodGet, "/events?q=doubles", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), event.ID)

	status, env = api.do(http.MethodGet, "/users/me/events", creatorToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), event.ID)

	status, _ = api.do(http.MethodDelete, path, creatorToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestRouter_Me(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("carol", "carol@example.com")

	status, env := api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "carol@example.com")
	assert.NotContains(t, string(env.Data), "password")

	status, _ = api.do(http.MethodGet, "/auth/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_DemotionTakesEffectImmediately(t *testing.T) {
	api := newTestAPI(t)
	ownerToken := api.login("owner", "owner@example.com")
	_ = api.login("modder", "modder@example.com")
	_, err := api.auth.Promote(context.Background(), "modder@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	// Log in again so the token carries the admin role claim.
	status, env := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "modder@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	adminToken := login.Token

	draft := map[string]any{
		"name":        "Sunday long run",
		"category":    "Running",
		"description": "Twenty kilometres along the river path",
		"date":        time.Now().UTC().AddDate(0, 0, 5).Format(domain.DateLayout),
		"time":        "7:00",
		"location":    map[string]string{"address": "1 River Walk", "city": "Leeds"},
	}
	status, env = api.do(http.MethodPost, "/events", ownerToken, draft)
	require.Equal(t, http.StatusCreated, status)
	var event domain.Event
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, "07:00", event.Time)
	path := "/events/" + event.ID

	status, _ = api.do(http.MethodPatch, path, adminToken, map[string]any{"name": "Admin rename"})
	require.Equal(t, http.StatusOK, status)

	_, err = api.auth.Promote(context.Background(), "modder@example.com", domain.RoleUser)
	require.NoError(t, err)

	status, env = api.do(http.MethodPatch, path, adminToken, map[string]any{"name": "Second rename"})
	require.Equal(t, http.StatusForbidden, status, "the old admin token no longer grants admin rights")
	assert.Equal(t, "forbidden", env.Error.Code)
}

func TestRouter_CookieSession(t *testing.T) {
	api := newTestAPI(t)
	_ = api.login("dana", "dana@example.com")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := api.server.Client()
	client.Jar = jar

	body := strings.NewReader(`{"email":"dana@example.com","password":"secret1"}`)
	resp, err := client.Post(api.server.URL+"/auth/login", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(api.server.URL + "/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the login cookie authenticates")

	resp, err = client.Post(api.server.URL+"/auth/logout", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(api.server.URL + "/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "logout clears the cookie")
}

func TestRouter_CORS(t *testing.T) {
	api := newTestAPI(t)
	req, err := http.NewRequest(http.MethodGet, api.server.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
