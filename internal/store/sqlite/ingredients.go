package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/simmerapp/simmer-server/internal/domain"
	"github.com/simmerapp/simmer-server/internal/id"
	"github.com/simmerapp/simmer-server/internal/store"
)

// ingredientColumns is the ordered list of columns selected in ingredient queries.
// Must match the scan order in scanIngredient.
const ingredientColumns = `id, user_id, name, created_at, updated_at`

// scanIngredient scans a sql.Row (or sql.Rows via its Scan method) into a domain.Ingredient.
func scanIngredient(scanner interface{ Scan(dest ...any) error }) (*domain.Ingredient, error) {
	var ing domain.Ingredient

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&ing.ID,
		&ing.UserID,
		&ing.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ing.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	ing.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &ing, nil
}

// CreateIngredient inserts a new ingredient into the database.
// Returns store.ErrAlreadyExists on a duplicate name for the same user.
func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ing.ID,
		ing.UserID,
		ing.Name,
		formatTime(ing.CreatedAt),
		formatTime(ing.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetIngredient retrieves an ingredient owned by the given user.
// Returns store.ErrNotFound if the ingredient does not exist or belongs
// to another user.
func (s *Store) GetIngredient(ctx context.Context, userID, ingredientID string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ? AND user_id = ?`,
		ingredientID, userID)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// GetIngredientByName retrieves an ingredient by its canonical name for the
// given user. Returns store.ErrNotFound if the ingredient does not exist.
func (s *Store) GetIngredientByName(ctx context.Context, userID, name string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? AND name = ?`,
		userID, name)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// ListIngredients returns the user's ingredients ordered by name descending.
// When assignedOnly is true, only ingredients attached to at least one
// recipe are returned.
func (s *Store) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM recipe_ingredients WHERE recipe_ingredients.ingredient_id = ingredients.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*domain.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if ingredients == nil {
		ingredients = []*domain.Ingredient{}
	}

	return ingredients, nil
}

// UpdateIngredient performs a full row update on an existing ingredient.
// Returns store.ErrNotFound if the ingredient does not exist for its owner,
// or store.ErrAlreadyExists if the new name collides with another ingredient.
func (s *Store) UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ingredients SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		ing.Name,
		formatTime(ing.UpdatedAt),
		ing.ID,
		ing.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
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

// DeleteIngredient removes an ingredient owned by the given user.
// Join rows cascade. Returns store.ErrNotFound if it does not exist.
func (s *Store) DeleteIngredient(ctx context.Context, userID, ingredientID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = ? AND user_id = ?`, ingredientID, userID)
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

// FindOrCreateIngredient finds an existing ingredient by canonical name or
// creates a new one. Returns (ingredient, created, error) where created is
// true if a new ingredient was made.
func (s *Store) FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error) {
	existing, err := s.GetIngredientByName(ctx, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	ingredientID, err := id.Generate("ing")
	if err != nil {
		return nil, false, fmt.Errorf("generate ingredient id: %w", err)
	}

	now := time.Now().UTC()
	ing := &domain.Ingredient{
		ID:        ingredientID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.CreateIngredient(ctx, ing); err != nil {
		if err == store.ErrAlreadyExists {
			// Race: another request created it between lookup and insert.
			existing, err := s.GetIngredientByName(ctx, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return ing, true, nil
}

// findOrCreateIngredientTx is the in-transaction variant of
// FindOrCreateIngredient used during recipe writes.
func findOrCreateIngredientTx(ctx context.Context, tx *sql.Tx, userID, name string) (*domain.Ingredient, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? AND name = ?`,
		userID, name)

	ing, err := scanIngredient(row)
	if err == nil {
		return ing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	ingredientID, err := id.Generate("ing")
	if err != nil {
		return nil, fmt.Errorf("generate ingredient id: %w", err)
	}

	now := time.Now().UTC()
	ing = &domain.Ingredient{
		ID:        ingredientID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingredients (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ing.ID, ing.UserID, ing.Name, formatTime(ing.CreatedAt), formatTime(ing.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert ingredient: %w", err)
	}

	return ing, nil
}
