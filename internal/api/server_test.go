package api

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/simmerapp/simmer-server/internal/auth"
	"github.com/simmerapp/simmer-server/internal/media/images"
	"github.com/simmerapp/simmer-server/internal/search"
	"github.com/simmerapp/simmer-server/internal/service"
	"github.com/simmerapp/simmer-server/internal/store/sqlite"
	"github.com/simmerapp/simmer-server/internal/validation"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer wires a full server against temporary storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(key),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	searchIndex, err := search.NewRecipeIndex(search.Options{
		DataPath: tmpDir,
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = searchIndex.Close() })

	imageStorage, err := images.NewStorage(tmpDir)
	require.NoError(t, err)
	processor := images.NewProcessor(imageStorage, logger)

	validator := validation.New()

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, validator, logger)
	services := &Services{
		Auth:       authService,
		Session:    sessionService,
		User:       service.NewUserService(st, validator, logger),
		Recipe:     service.NewRecipeService(st, searchIndex, processor, validator, logger),
		Tag:        service.NewTagService(st, logger),
		Ingredient: service.NewIngredientService(st, logger),
	}

	router := chi.NewRouter()
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("Simmer API Test", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:           st,
		services:        services,
		search:          searchIndex,
		images:          imageStorage,
		router:          router,
		api:             humaAPI,
		logger:          logger,
		authRateLimiter: NewRateLimiter(100, time.Minute, 50),
	}

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	s.registerTagRoutes()
	s.registerIngredientRoutes()

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, humaAPI),
	}
}

// createTestUser registers a user, logs in, and returns the access token and user ID.
func (ts *testServer) createTestUser(t *testing.T, email string) (token string, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/users", map[string]any{
		"email":    email,
		"password": "correct-horse-battery",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "registration failed: %s", resp.Body.String())

	var user UserResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &user))

	resp = ts.api.Post("/api/v1/users/token", map[string]any{
		"email":    email,
		"password": "correct-horse-battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var authResp AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &authResp))

	return authResp.AccessToken, user.ID
}

// bearer formats an Authorization header argument for humatest calls.
func bearer(token string) string {
	return "Authorization: Bearer " + token
}
