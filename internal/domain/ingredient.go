package domain

import "time"

// Ingredient represents a user-owned ingredient that can appear in recipes.
// Like tags, ingredients are scoped to their owner and stored in canonical
// title-cased form, so "thai " and "Thai" resolve to the same row.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Ingredient) Touch() {
	i.UpdatedAt = time.Now()
}

// RecipeIngredient represents the many-to-many relationship between recipes
// and ingredients.
type RecipeIngredient struct {
	RecipeID     string    `json:"recipe_id"`
	IngredientID string    `json:"ingredient_id"`
	CreatedAt    time.Time `json:"created_at"`
}
