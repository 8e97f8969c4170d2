package service

import (
	"testing"

	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_Rename(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	recipe, err := svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title: "Curry",
		Tags:  []NameInput{{Name: "Thai"}},
	})
	require.NoError(t, err)
	tagID := recipe.Tags[0].ID

	renamed, err := svc.tag.UpdateTag(ctx, userID, tagID, "  south east   asian ")
	require.NoError(t, err)
	assert.Equal(t, "South East Asian", renamed.Name)

	// The rename is visible through the recipe
	got, err := svc.recipe.GetRecipe(ctx, userID, recipe.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "South East Asian", got.Tags[0].Name)
}

func TestTagService_Rename_Collision(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	recipe, err := svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title: "Curry",
		Tags:  []NameInput{{Name: "Thai"}, {Name: "Dinner"}},
	})
	require.NoError(t, err)

	var thaiID string
	for _, tag := range recipe.Tags {
		if tag.Name == "Thai" {
			thaiID = tag.ID
		}
	}
	require.NotEmpty(t, thaiID)

	_, err = svc.tag.UpdateTag(ctx, userID, thaiID, "dinner")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestTagService_Rename_EmptyName(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	_, err := svc.tag.UpdateTag(ctx, userID, "tag-whatever", " \x00 ")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestTagService_Delete_RecipesKeepOtherRelations(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	recipe, err := svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title:       "Curry",
		Tags:        []NameInput{{Name: "Thai"}, {Name: "Dinner"}},
		Ingredients: []NameInput{{Name: "Rice"}},
	})
	require.NoError(t, err)

	var thaiID string
	for _, tag := range recipe.Tags {
		if tag.Name == "Thai" {
			thaiID = tag.ID
		}
	}

	require.NoError(t, svc.tag.DeleteTag(ctx, userID, thaiID))

	got, err := svc.recipe.GetRecipe(ctx, userID, recipe.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Dinner", got.Tags[0].Name)
	assert.Len(t, got.Ingredients, 1)
}

func TestTagService_CrossUserIsolation(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	alice := registerUser(t, svc, "alice@example.com")
	bob := registerUser(t, svc, "bob@example.com")

	recipe, err := svc.recipe.CreateRecipe(ctx, alice, CreateRecipeRequest{
		Title: "Curry",
		Tags:  []NameInput{{Name: "Thai"}},
	})
	require.NoError(t, err)
	tagID := recipe.Tags[0].ID

	_, err = svc.tag.GetTag(ctx, bob, tagID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, err = svc.tag.UpdateTag(ctx, bob, tagID, "Stolen")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	err = svc.tag.DeleteTag(ctx, bob, tagID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestIngredientService_AssignedOnlyDeduplicates(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	// Two recipes share one ingredient
	_, err := svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title:       "Omelette",
		Ingredients: []NameInput{{Name: "Eggs"}},
	})
	require.NoError(t, err)

	_, err = svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title:       "Pancakes",
		Ingredients: []NameInput{{Name: "Eggs"}, {Name: "Flour"}},
	})
	require.NoError(t, err)

	assigned, err := svc.ingredient.ListIngredients(ctx, userID, true)
	require.NoError(t, err)
	require.Len(t, assigned, 2)

	seen := map[string]int{}
	for _, ing := range assigned {
		seen[ing.Name]++
	}
	assert.Equal(t, 1, seen["Eggs"])
	assert.Equal(t, 1, seen["Flour"])
}

func TestIngredientService_Rename(t *testing.T) {
	svc := setupServices(t)
	ctx := t.Context()
	userID := registerUser(t, svc, "cook@example.com")

	recipe, err := svc.recipe.CreateRecipe(ctx, userID, CreateRecipeRequest{
		Title:       "Omelette",
		Ingredients: []NameInput{{Name: "eggs"}},
	})
	require.NoError(t, err)

	renamed, err := svc.ingredient.UpdateIngredient(ctx, userID, recipe.Ingredients[0].ID, "free range eggs")
	require.NoError(t, err)
	assert.Equal(t, "Free Range Eggs", renamed.Name)
}
