package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/takopi/backend/internal/auth"
	"github.com/takopi/backend/internal/middleware"
	"github.com/takopi/backend/internal/models"
	"github.com/takopi/backend/validators"
)

type testEnv struct {
	e        *echo.Echo
	store    *memStore
	meshy    *fakeMeshy
	mailer   *fakeMailer
	tokens   *auth.TokenService
	firebase FirebaseTokenVerifier
}

type envOption func(*testEnv)

func withFirebase(v FirebaseTokenVerifier) envOption {
	return func(env *testEnv) { env.firebase = v }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	log, _ := test.NewNullLogger()

	env := &testEnv{
		e:      echo.New(),
		store:  newMemStore(),
		meshy:  newFakeMeshy(),
		mailer: &fakeMailer{},
		tokens: auth.NewTokenService("handler-test-secret", time.Hour),
	}
	for _, opt := range opts {
		opt(env)
	}

	users := fakeUserRepo{env.store}
	follows := fakeFollowRepo{env.store}
	likes := fakeLikeRepo{env.store}
	purchases := fakePurchaseRepo{env.store}
	notifications := fakeNotificationRepo{env.store}
	contents := fakeContentRepo{env.store}
	generations := fakeGenerationRepo{env.store}

	e := env.e
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = HTTPErrorHandler(log)

	api := e.Group("/api")
	public := api.Group("", middleware.OptionalJWTAuth(env.tokens, "token"))
	protected := api.Group("", middleware.JWTAuth(env.tokens, "token"))

	authHandler := NewAuthHandler(users, env.tokens, env.firebase, env.mailer, CookieConfig{Name: "token"})
	authHandler.RegisterAuthRoutes(api.Group("/auth"))
	authHandler.RegisterSessionRoutes(protected.Group("/auth"))

	userHandler := NewUserHandler(users, follows, contents, generations, purchases, likes)
	userHandler.RegisterPublicRoutes(public)
	userHandler.RegisterProfileRoutes(protected)

	followHandler := NewFollowHandler(follows, users, notifications, env.mailer, log)
	followHandler.RegisterPublicRoutes(public)
	followHandler.RegisterFollowRoutes(protected)

	contentHandler := NewContentHandler(contents, generations, users, likes, purchases, log)
	contentHandler.RegisterPublicRoutes(public)
	contentHandler.RegisterContentRoutes(protected)

	NewLikeHandler(likes, contents, users, notifications, log).RegisterLikeRoutes(protected)
	NewPurchaseHandler(purchases, contents, generations, users, notifications, env.mailer, log).RegisterPurchaseRoutes(protected)
	NewFeedHandler(contents, users, follows, likes, purchases).RegisterFeedRoutes(protected)

	aiHandler := NewAIHandler(env.meshy, generations, users, notifications, env.mailer, log)
	aiGroup := protected.Group("/ai")
	aiHandler.RegisterReadRoutes(aiGroup)
	aiHandler.RegisterTaskRoutes(aiGroup)

	NewNotificationHandler(notifications, users).RegisterNotificationRoutes(protected)

	return env
}

// createUser stores a user directly and returns it.
func (env *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{Username: username, Email: username + "@example.com", Password: hash}
	require.NoError(t, fakeUserRepo{env.store}.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) createContent(t *testing.T, ownerID uint, price int64, published bool) *models.Content {
	t.Helper()
	c := &models.Content{
		OwnerID:      ownerID,
		Title:        "Octopus",
		ModelURL:     "https://cdn.example.com/octopus.glb",
		ThumbnailURL: "https://cdn.example.com/octopus.png",
		Price:        price,
		Currency:     models.DefaultCurrency,
		Status:       models.ContentStatusDraft,
	}
	require.NoError(t, fakeContentRepo{env.store}.CreateContent(context.Background(), c))
	if published {
		now := env.store.clock
		require.NoError(t, fakeContentRepo{env.store}.PublishContent(context.Background(), c.ID.Hex(), now))
		c.Status = models.ContentStatusPublished
		c.PublishedAt = &now
	}
	return c
}

// createGeneration stores a generation in the given status. Succeeded ones get model files.
func (env *testEnv) createGeneration(t *testing.T, userID uint, mode, status string) *models.Generation {
	t.Helper()
	g := &models.Generation{
		UserID: userID,
		TaskID: "seed-task",
		Mode:   mode,
		Prompt: "a small octopus",
		Status: status,
	}
	if status == models.GenerationSucceeded {
		g.Progress = 100
		g.ModelURLs = models.ModelURLs{GLB: "https://assets.meshy.ai/seed/model.glb"}
		g.ThumbnailURL = "https://assets.meshy.ai/seed/preview.png"
	}
	require.NoError(t, fakeGenerationRepo{env.store}.CreateGeneration(context.Background(), g))
	return g
}

func (env *testEnv) content(id string) models.Content {
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	return env.store.contents[id]
}

func (env *testEnv) user(id uint) models.User {
	env.store.mu.Lock()
	defer env.store.mu.Unlock()
	return env.store.users[id]
}

func newJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// do performs a request, authenticated as user when it is non-nil.
func (env *testEnv) do(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(t, method, path, body)
	if user != nil {
		token, _, err := env.tokens.Issue(user)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return serve(env, req)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	env := decode(t, rec)
	require.False(t, env.Success)
	if msg != "" {
		require.Equal(t, msg, env.Error)
	}
}
