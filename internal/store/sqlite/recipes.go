package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/simmerapp/simmer-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, title, description, time_minutes, price, link,
	image_file, image_blur_hash, created_at, updated_at`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Recipe. Tags and Ingredients are left empty; callers resolve them.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		price     string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.TimeMinutes,
		&price,
		&r.Link,
		&r.ImageFile,
		&r.ImageBlurHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateRecipe inserts a new recipe and attaches its tags and ingredients
// in a single transaction. Names must already be canonical; missing tags
// and ingredients are created for the recipe's owner. On success the
// recipe's Tags and Ingredients fields hold the resolved relations.
func (s *Store) CreateRecipe(ctx context.Context, recipe *domain.Recipe, tagNames, ingredientNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, user_id, title, description, time_minutes, price, link,
			image_file, image_blur_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.String(),
		recipe.Link,
		recipe.ImageFile,
		recipe.ImageBlurHash,
		formatTime(recipe.CreatedAt),
		formatTime(recipe.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	tags, err := setRecipeTagsTx(ctx, tx, recipe.UserID, recipe.ID, tagNames)
	if err != nil {
		return err
	}
	ingredients, err := setRecipeIngredientsTx(ctx, tx, recipe.UserID, recipe.ID, ingredientNames)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	recipe.Tags = tags
	recipe.Ingredients = ingredients
	return nil
}

// GetRecipe retrieves a recipe owned by the given user with its tags and
// ingredients resolved. Returns store.ErrNotFound if the recipe does not
// exist or belongs to another user.
func (s *Store) GetRecipe(ctx context.Context, userID, recipeID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRecipeRelations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the user's recipes, newest first, with relations
// resolved. The filter narrows results to recipes carrying any of the
// given tag or ingredient IDs.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter store.RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_tags
			WHERE recipe_tags.recipe_id = recipes.id
			AND recipe_tags.tag_id IN (` + placeholders(len(filter.TagIDs)) + `))`
		for _, tagID := range filter.TagIDs {
			args = append(args, tagID)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_ingredients
			WHERE recipe_ingredients.recipe_id = recipes.id
			AND recipe_ingredients.ingredient_id IN (` + placeholders(len(filter.IngredientIDs)) + `))`
		for _, ingredientID := range filter.IngredientIDs {
			args = append(args, ingredientID)
		}
	}

	// Newest first; id breaks ties for recipes created in the same instant.
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := s.loadRecipeRelations(ctx, r); err != nil {
			return nil, err
		}
	}

	if recipes == nil {
		recipes = []*domain.Recipe{}
	}

	return recipes, nil
}

// UpdateRecipe performs a full row update and reconciles relations in a
// single transaction. A nil tagNames or ingredientNames leaves that
// relation untouched; an empty slice clears it. On success the recipe's
// Tags and Ingredients fields hold the resolved relations.
func (s *Store) UpdateRecipe(ctx context.Context, recipe *domain.Recipe, tagNames, ingredientNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			title = ?,
			description = ?,
			time_minutes = ?,
			price = ?,
			link = ?,
			image_file = ?,
			image_blur_hash = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		recipe.Title,
		recipe.Description,
		recipe.TimeMinutes,
		recipe.Price.String(),
		recipe.Link,
		recipe.ImageFile,
		recipe.ImageBlurHash,
		formatTime(recipe.UpdatedAt),
		recipe.ID,
		recipe.UserID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	var tags []domain.Tag
	if tagNames != nil {
		tags, err = setRecipeTagsTx(ctx, tx, recipe.UserID, recipe.ID, tagNames)
		if err != nil {
			return err
		}
	}

	var ingredients []domain.Ingredient
	if ingredientNames != nil {
		ingredients, err = setRecipeIngredientsTx(ctx, tx, recipe.UserID, recipe.ID, ingredientNames)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if tagNames != nil {
		recipe.Tags = tags
	} else if err := s.loadRecipeTags(ctx, recipe); err != nil {
		return err
	}
	if ingredientNames != nil {
		recipe.Ingredients = ingredients
	} else if err := s.loadRecipeIngredients(ctx, recipe); err != nil {
		return err
	}

	return nil
}

// DeleteRecipe removes a recipe owned by the given user. Join rows cascade;
// tags and ingredients themselves are left in place.
// Returns store.ErrNotFound if the recipe does not exist.
func (s *Store) DeleteRecipe(ctx context.Context, userID, recipeID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetRecipeImage updates the stored image file name and blur hash for a
// recipe. Returns store.ErrNotFound if the recipe does not exist for the
// given user.
func (s *Store) SetRecipeImage(ctx context.Context, userID, recipeID, imageFile, blurHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET image_file = ?, image_blur_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		imageFile,
		blurHash,
		formatTime(timeNow()),
		recipeID,
		userID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// setRecipeTagsTx replaces all tag joins for a recipe inside tx, creating
// missing tags for the owner, and returns the resolved tag set.
func setRecipeTagsTx(ctx context.Context, tx *sql.Tx, userID, recipeID string, names []string) ([]domain.Tag, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("delete recipe_tags: %w", err)
	}

	tags := make([]domain.Tag, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	now := formatTime(timeNow())
	for _, name := range names {
		// Repeated names resolve to one tag and one join row.
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		t, err := findOrCreateTagTx(ctx, tx, userID, name)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			recipeID, t.ID, now)
		if err != nil {
			return nil, fmt.Errorf("insert recipe_tag: %w", err)
		}

		tags = append(tags, *t)
	}

	return tags, nil
}

// setRecipeIngredientsTx replaces all ingredient joins for a recipe inside
// tx, creating missing ingredients for the owner, and returns the resolved
// ingredient set.
func setRecipeIngredientsTx(ctx context.Context, tx *sql.Tx, userID, recipeID string, names []string) ([]domain.Ingredient, error) {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("delete recipe_ingredients: %w", err)
	}

	ingredients := make([]domain.Ingredient, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	now := formatTime(timeNow())
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		ing, err := findOrCreateIngredientTx(ctx, tx, userID, name)
		if err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_ingredients (recipe_id, ingredient_id, created_at)
			VALUES (?, ?, ?)`,
			recipeID, ing.ID, now)
		if err != nil {
			return nil, fmt.Errorf("insert recipe_ingredient: %w", err)
		}

		ingredients = append(ingredients, *ing)
	}

	return ingredients, nil
}

// loadRecipeRelations populates a recipe's Tags and Ingredients.
func (s *Store) loadRecipeRelations(ctx context.Context, r *domain.Recipe) error {
	if err := s.loadRecipeTags(ctx, r); err != nil {
		return err
	}
	return s.loadRecipeIngredients(ctx, r)
}

func (s *Store) loadRecipeTags(ctx context.Context, r *domain.Recipe) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.name, t.created_at, t.updated_at
		FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = ?
		ORDER BY t.name DESC`, r.ID)
	if err != nil {
		return fmt.Errorf("query recipe tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return err
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.Tags = tags
	return nil
}

func (s *Store) loadRecipeIngredients(ctx context.Context, r *domain.Recipe) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.user_id, i.name, i.created_at, i.updated_at
		FROM ingredients i
		JOIN recipe_ingredients ri ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = ?
		ORDER BY i.name DESC`, r.ID)
	if err != nil {
		return fmt.Errorf("query recipe ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []domain.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return err
		}
		ingredients = append(ingredients, *ing)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	r.Ingredients = ingredients
	return nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
