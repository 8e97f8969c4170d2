package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/simmerapp/simmer-server/internal/domain"
	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/simmerapp/simmer-server/internal/normalize"
	"github.com/simmerapp/simmer-server/internal/store"
)

// IngredientService orchestrates ingredient operations, mirroring the tag
// surface.
type IngredientService struct {
	store  store.Store
	logger *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store store.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		logger: logger,
	}
}

// ListIngredients returns the user's ingredients ordered by name descending.
// With assignedOnly, only ingredients attached to at least one of the
// user's recipes are returned.
func (s *IngredientService) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	ingredients, err := s.store.ListIngredients(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns an ingredient owned by the user.
func (s *IngredientService) GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	ingredient, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ingredient, nil
}

// UpdateIngredient renames an ingredient, with the same normalization and
// collision rules as tags.
func (s *IngredientService) UpdateIngredient(ctx context.Context, userID, ingredientID, rawName string) (*domain.Ingredient, error) {
	name := normalize.Name(rawName)
	if name == "" {
		return nil, domainerrors.Validation("name must not be empty")
	}

	ingredient, err := s.store.GetIngredient(ctx, userID, ingredientID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}

	ingredient.Name = name
	ingredient.Touch()

	if err := s.store.UpdateIngredient(ctx, ingredient); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("an ingredient with this name already exists")
		}
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("update ingredient: %w", err)
	}

	s.logger.Info("ingredient renamed", "ingredient_id", ingredientID, "user_id", userID, "name", name)

	return ingredient, nil
}

// DeleteIngredient removes an ingredient. Join rows cascade.
func (s *IngredientService) DeleteIngredient(ctx context.Context, userID, ingredientID string) error {
	if err := s.store.DeleteIngredient(ctx, userID, ingredientID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("ingredient not found")
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}

	s.logger.Info("ingredient deleted", "ingredient_id", ingredientID, "user_id", userID)

	return nil
}
