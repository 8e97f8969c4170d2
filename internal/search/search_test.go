package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*RecipeIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewRecipeIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewRecipeIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRecipeIndex_IndexRecipe(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &RecipeDocument{
		ID:     "rec-123",
		UserID: "user-1",
		Title:  "Thai Green Curry",
		Tags:   []string{"Thai", "Curry"},
	}

	err := index.IndexRecipe(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestRecipeIndex_IndexRecipes_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*RecipeDocument{
		{ID: "rec-1", UserID: "user-1", Title: "Pad Thai"},
		{ID: "rec-2", UserID: "user-1", Title: "Ramen"},
		{ID: "rec-3", UserID: "user-1", Title: "Pho"},
	}

	err := index.IndexRecipes(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestRecipeIndex_DeleteRecipe(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &RecipeDocument{
		ID:     "rec-123",
		UserID: "user-1",
		Title:  "Test Recipe",
	}

	err := index.IndexRecipe(doc)
	require.NoError(t, err)

	err = index.DeleteRecipe("rec-123")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRecipeIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*RecipeDocument{
		{ID: "rec-1", UserID: "user-1", Title: "Thai Green Curry", Tags: []string{"Thai"}},
		{ID: "rec-2", UserID: "user-1", Title: "Thai Red Curry", Tags: []string{"Thai"}},
		{ID: "rec-3", UserID: "user-1", Title: "Spaghetti Carbonara", Tags: []string{"Italian"}},
	}

	err := index.IndexRecipes(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		UserID: "user-1",
		Query:  "curry",
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestRecipeIndex_Search_OwnerScoped(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*RecipeDocument{
		{ID: "rec-1", UserID: "user-1", Title: "Thai Curry"},
		{ID: "rec-2", UserID: "user-2", Title: "Thai Curry Supreme"},
	}

	err := index.IndexRecipes(docs)
	require.NoError(t, err)

	ctx := context.Background()

	// Each owner only sees their own recipes
	result, err := index.Search(ctx, SearchParams{
		UserID: "user-1",
		Query:  "curry",
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "rec-1", result.Hits[0].ID)

	result, err = index.Search(ctx, SearchParams{
		UserID: "user-2",
		Query:  "curry",
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "rec-2", result.Hits[0].ID)
}

func TestRecipeIndex_Search_RequiresUserID(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	_, err := index.Search(context.Background(), SearchParams{
		Query: "curry",
		Limit: 10,
	})
	require.Error(t, err)
}

func TestRecipeIndex_Search_ByIngredient(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*RecipeDocument{
		{ID: "rec-1", UserID: "user-1", Title: "Omelette", Ingredients: []string{"Eggs", "Butter"}},
		{ID: "rec-2", UserID: "user-1", Title: "Toast", Ingredients: []string{"Bread", "Butter"}},
		{ID: "rec-3", UserID: "user-1", Title: "Salad", Ingredients: []string{"Lettuce"}},
	}

	err := index.IndexRecipes(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		UserID: "user-1",
		Query:  "butter",
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestRecipeIndex_Search_Prefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &RecipeDocument{
		ID:     "rec-1",
		UserID: "user-1",
		Title:  "Carbonara",
	}

	err := index.IndexRecipe(doc)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		UserID: "user-1",
		Query:  "Carb", // Prefix of Carbonara
		Limit:  10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestRecipeIndex_Search_MaxTime(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*RecipeDocument{
		{ID: "rec-1", UserID: "user-1", Title: "Quick Snack", TimeMinutes: 10},
		{ID: "rec-2", UserID: "user-1", Title: "Weeknight Dinner", TimeMinutes: 45},
		{ID: "rec-3", UserID: "user-1", Title: "Sunday Roast", TimeMinutes: 180},
	}

	err := index.IndexRecipes(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		UserID:         "user-1",
		MaxTimeMinutes: 60,
		Limit:          10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
}

func TestRecipeIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &RecipeDocument{ID: "rec-1", UserID: "user-1", Title: "Test"}
	err := index.IndexRecipe(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	err = index.Rebuild()
	require.NoError(t, err)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRecipeIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	index1, err := NewRecipeIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	doc := &RecipeDocument{ID: "rec-1", UserID: "user-1", Title: "Test Recipe"}
	err = index1.IndexRecipe(doc)
	require.NoError(t, err)

	err = index1.Close()
	require.NoError(t, err)

	// Reopen index and verify the document survived
	index2, err := NewRecipeIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ctx := context.Background()
	result, err := index2.Search(ctx, SearchParams{UserID: "user-1", Query: "Test", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestRecipeToDocument(t *testing.T) {
	now := time.Now().UTC()
	recipe := &domain.Recipe{
		ID:          "rec-123",
		UserID:      "user-1",
		Title:       "Thai Green Curry",
		Description: "Fragrant coconut curry",
		TimeMinutes: 35,
		Price:       decimal.RequireFromString("7.50"),
		Tags: []domain.Tag{
			{ID: "tag-1", Name: "Thai"},
			{ID: "tag-2", Name: "Dinner"},
		},
		Ingredients: []domain.Ingredient{
			{ID: "ing-1", Name: "Coconut Milk"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := RecipeToDocument(recipe)

	assert.Equal(t, "rec-123", doc.ID)
	assert.Equal(t, "user-1", doc.UserID)
	assert.Equal(t, "Thai Green Curry", doc.Title)
	assert.Equal(t, "Fragrant coconut curry", doc.Description)
	assert.Equal(t, 35, doc.TimeMinutes)
	assert.Equal(t, 7.5, doc.Price)
	assert.Equal(t, []string{"Thai", "Dinner"}, doc.Tags)
	assert.Equal(t, []string{"Coconut Milk"}, doc.Ingredients)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}
