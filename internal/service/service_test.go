package service

import (
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simmerapp/simmer-server/internal/auth"
	"github.com/simmerapp/simmer-server/internal/store"
	"github.com/simmerapp/simmer-server/internal/store/sqlite"
	"github.com/simmerapp/simmer-server/internal/validation"
	"github.com/stretchr/testify/require"
)

// testServices bundles the services wired against a temporary sqlite store.
type testServices struct {
	store      store.Store
	auth       *AuthService
	session    *SessionService
	user       *UserService
	recipe     *RecipeService
	tag        *TagService
	ingredient *IngredientService
	token      *auth.TokenService
}

// setupServices wires all services against a fresh temporary store.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(key),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	validator := validation.New()

	sessionService := NewSessionService(s, tokenService, logger)
	authService := NewAuthService(s, tokenService, sessionService, validator, logger)
	userService := NewUserService(s, validator, logger)
	recipeService := NewRecipeService(s, nil, nil, validator, logger)
	tagService := NewTagService(s, logger)
	ingredientService := NewIngredientService(s, logger)

	return &testServices{
		store:      s,
		auth:       authService,
		session:    sessionService,
		user:       userService,
		recipe:     recipeService,
		tag:        tagService,
		ingredient: ingredientService,
		token:      tokenService,
	}
}

// registerUser registers a test user and returns its ID.
func registerUser(t *testing.T, svc *testServices, email string) string {
	t.Helper()

	user, err := svc.auth.Register(t.Context(), RegisterRequest{
		Email:    email,
		Password: "correct-horse-battery",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return user.ID
}
