package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simmerapp/simmer-server/internal/domain"
	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/simmerapp/simmer-server/internal/id"
	"github.com/simmerapp/simmer-server/internal/media/images"
	"github.com/simmerapp/simmer-server/internal/normalize"
	"github.com/simmerapp/simmer-server/internal/search"
	"github.com/simmerapp/simmer-server/internal/store"
	"github.com/simmerapp/simmer-server/internal/validation"
)

// RecipeService orchestrates recipe CRUD with nested tag/ingredient
// reconciliation. All operations are scoped to the calling user; a recipe
// owned by someone else is indistinguishable from one that doesn't exist.
type RecipeService struct {
	store     store.Store
	search    *search.RecipeIndex
	processor *images.Processor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecipeService creates a new recipe service.
// The search index and image processor are optional; when nil the
// corresponding features are disabled.
func NewRecipeService(
	store store.Store,
	searchIndex *search.RecipeIndex,
	processor *images.Processor,
	validator *validation.Validator,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:     store,
		search:    searchIndex,
		processor: processor,
		validator: validator,
		logger:    logger,
	}
}

// NameInput is a nested tag or ingredient descriptor.
type NameInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateRecipeRequest contains the data for a new recipe.
type CreateRecipeRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description,omitempty"`
	TimeMinutes int             `json:"time_minutes" validate:"gte=0"`
	Price       decimal.Decimal `json:"price"`
	Link        string          `json:"link,omitempty" validate:"omitempty,max=255"`
	Tags        []NameInput     `json:"tags,omitempty"`
	Ingredients []NameInput     `json:"ingredients,omitempty"`
}

// UpdateRecipeRequest contains a partial recipe update.
// Nil scalar fields are left untouched. Nil relation lists leave the
// relation untouched; present lists, including empty ones, replace it.
type UpdateRecipeRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description,omitempty"`
	TimeMinutes *int             `json:"time_minutes,omitempty" validate:"omitempty,gte=0"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Link        *string          `json:"link,omitempty" validate:"omitempty,max=255"`
	Tags        []NameInput      `json:"tags,omitempty"`
	Ingredients []NameInput      `json:"ingredients,omitempty"`
}

// ListRecipesRequest narrows a recipe listing.
type ListRecipesRequest struct {
	TagIDs        []string
	IngredientIDs []string
}

// CreateRecipe creates a recipe with its nested relations reconciled in a
// single transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, domainerrors.Validation("price must not be negative")
	}

	// required passes for whitespace, so check the trimmed value
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domainerrors.Validation("title must not be empty")
	}

	tagNames, err := normalizeNames(req.Tags)
	if err != nil {
		return nil, err
	}
	ingredientNames, err := normalizeNames(req.Ingredients)
	if err != nil {
		return nil, err
	}

	recipeID, err := id.Generate("recipe")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	now := time.Now()
	recipe := &domain.Recipe{
		ID:          recipeID,
		UserID:      userID,
		Title:       title,
		Description: normalize.Text(req.Description),
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        strings.TrimSpace(req.Link),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.indexRecipe(ctx, recipe)

	s.logger.Info("recipe created",
		"recipe_id", recipe.ID,
		"user_id", userID,
		"tags", len(recipe.Tags),
		"ingredients", len(recipe.Ingredients),
	)

	return recipe, nil
}

// GetRecipe returns a recipe owned by the user.
func (s *RecipeService) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// ListRecipes returns the user's recipes, newest first, optionally filtered
// by tag and ingredient IDs. A recipe matches when it has at least one
// relation from each supplied set.
func (s *RecipeService) ListRecipes(ctx context.Context, userID string, req ListRecipesRequest) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, store.RecipeFilter{
		TagIDs:        req.TagIDs,
		IngredientIDs: req.IngredientIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// UpdateRecipe applies a partial update to a recipe the user owns.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, domainerrors.Validation("price must not be negative")
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, domainerrors.Validation("title must not be empty")
	}

	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if req.Title != nil {
		recipe.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		recipe.Description = normalize.Text(*req.Description)
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = strings.TrimSpace(*req.Link)
	}
	recipe.Touch()

	// nil keeps the relation untouched, a non-nil (possibly empty) list
	// replaces it
	var tagNames, ingredientNames []string
	if req.Tags != nil {
		tagNames, err = normalizeNames(req.Tags)
		if err != nil {
			return nil, err
		}
		if tagNames == nil {
			tagNames = []string{}
		}
	}
	if req.Ingredients != nil {
		ingredientNames, err = normalizeNames(req.Ingredients)
		if err != nil {
			return nil, err
		}
		if ingredientNames == nil {
			ingredientNames = []string{}
		}
	}

	if err := s.store.UpdateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.indexRecipe(ctx, recipe)

	return recipe, nil
}

// DeleteRecipe removes a recipe and its join rows. The stored image, if any,
// is removed best-effort; orphaned tags and ingredients persist.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("get recipe: %w", err)
	}

	if err := s.store.DeleteRecipe(ctx, userID, recipeID); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if recipe.HasImage() && s.processor != nil {
		if err := s.processor.Delete(recipe.ImageFile); err != nil {
			s.logger.Warn("failed to delete recipe image",
				"recipe_id", recipeID,
				"file", recipe.ImageFile,
				"error", err,
			)
		}
	}

	if s.search != nil {
		if err := s.search.DeleteRecipe(recipeID); err != nil {
			s.logger.Warn("failed to remove recipe from search index",
				"recipe_id", recipeID,
				"error", err,
			)
		}
	}

	s.logger.Info("recipe deleted", "recipe_id", recipeID, "user_id", userID)

	return nil
}

// UploadImage processes and stores an image for a recipe, replacing any
// previous one. Returns the updated recipe.
func (s *RecipeService) UploadImage(ctx context.Context, userID, recipeID string, data []byte) (*domain.Recipe, error) {
	if s.processor == nil {
		return nil, domainerrors.Internal("image uploads are not configured")
	}

	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	fileName, blurHash, err := s.processor.Process(data)
	if err != nil {
		return nil, domainerrors.Validation("unsupported or corrupt image").WithCause(err)
	}

	oldFile := recipe.ImageFile

	if err := s.store.SetRecipeImage(ctx, userID, recipeID, fileName, blurHash); err != nil {
		// Persisting failed, don't leave the new file behind
		_ = s.processor.Delete(fileName)
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("set recipe image: %w", err)
	}

	if oldFile != "" && oldFile != fileName {
		if err := s.processor.Delete(oldFile); err != nil {
			s.logger.Warn("failed to delete replaced recipe image",
				"recipe_id", recipeID,
				"file", oldFile,
				"error", err,
			)
		}
	}

	recipe.ImageFile = fileName
	recipe.ImageBlurHash = blurHash
	recipe.Touch()

	s.logger.Info("recipe image uploaded",
		"recipe_id", recipeID,
		"user_id", userID,
		"file", fileName,
	)

	return recipe, nil
}

// GetImage returns the stored image bytes for a recipe the user owns.
func (s *RecipeService) GetImage(ctx context.Context, userID, recipeID string) ([]byte, error) {
	if s.processor == nil {
		return nil, domainerrors.Internal("image uploads are not configured")
	}

	recipe, err := s.store.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if !recipe.HasImage() {
		return nil, domainerrors.NotFound("recipe has no image")
	}

	data, err := s.processor.Get(recipe.ImageFile)
	if err != nil {
		return nil, domainerrors.NotFound("recipe image not found").WithCause(err)
	}

	return data, nil
}

// Search runs a full-text query over the user's recipes.
func (s *RecipeService) Search(ctx context.Context, userID, query string, limit, offset int) (*search.SearchResult, error) {
	if s.search == nil {
		return nil, domainerrors.Internal("search is not configured")
	}

	params := search.DefaultSearchParams()
	params.UserID = userID
	params.Query = query
	if limit > 0 {
		params.Limit = limit
	}
	if offset > 0 {
		params.Offset = offset
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}

	return result, nil
}

// ReindexAll rebuilds the search index from the store.
// Called on startup so the index survives crashes and mapping changes.
func (s *RecipeService) ReindexAll(ctx context.Context) error {
	if s.search == nil {
		return nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var docs []*search.RecipeDocument
	for _, user := range users {
		recipes, err := s.store.ListRecipes(ctx, user.ID, store.RecipeFilter{})
		if err != nil {
			return fmt.Errorf("list recipes for %s: %w", user.ID, err)
		}
		for _, recipe := range recipes {
			docs = append(docs, search.RecipeToDocument(recipe))
		}
	}

	if err := s.search.IndexRecipes(docs); err != nil {
		return fmt.Errorf("index recipes: %w", err)
	}

	s.logger.Info("search index populated", "documents", len(docs))

	return nil
}

// indexRecipe updates the search index for one recipe, best effort.
func (s *RecipeService) indexRecipe(ctx context.Context, recipe *domain.Recipe) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexRecipe(search.RecipeToDocument(recipe)); err != nil {
		s.logger.Warn("failed to index recipe",
			"recipe_id", recipe.ID,
			"error", err,
		)
	}
}

// normalizeNames converts nested name descriptors to canonical names.
// Names that normalize to the empty string are rejected; duplicates within
// one request collapse to a single entry, preserving first-seen order.
func normalizeNames(inputs []NameInput) ([]string, error) {
	if inputs == nil {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(inputs))
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		name := normalize.Name(in.Name)
		if name == "" {
			return nil, domainerrors.Validation("name must not be empty")
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names, nil
}
