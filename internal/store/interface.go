// Package store defines the persistence interface for the Simmer server.
package store

import (
	"context"

	"github.com/simmerapp/simmer-server/internal/domain"
)

// RecipeFilter narrows recipe listings. Empty slices mean no filtering on
// that relation.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Auth Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, userID, tagID string) error
	FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error)

	// Ingredients
	CreateIngredient(ctx context.Context, ing *domain.Ingredient) error
	GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error)
	GetIngredientByName(ctx context.Context, userID, name string) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error
	DeleteIngredient(ctx context.Context, userID, ingredientID string) error
	FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error)

	// Recipes. Tag and ingredient names passed to Create/UpdateRecipe must
	// already be in canonical form; a nil slice on update leaves that
	// relation untouched while an empty slice clears it.
	CreateRecipe(ctx context.Context, recipe *domain.Recipe, tagNames, ingredientNames []string) error
	GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe, tagNames, ingredientNames []string) error
	DeleteRecipe(ctx context.Context, userID, recipeID string) error
	SetRecipeImage(ctx context.Context, userID, recipeID, imageFile, blurHash string) error
}
