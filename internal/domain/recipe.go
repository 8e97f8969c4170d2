package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe represents a recipe owned by a single user.
// Tags and Ingredients are the resolved relations, populated on reads.
type Recipe struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	TimeMinutes int             `json:"time_minutes"`
	Price       decimal.Decimal `json:"price"`
	Link        string          `json:"link,omitempty"`

	// Image metadata. ImageFile is the stored file name under the image
	// storage root, empty when no image has been uploaded.
	ImageFile     string `json:"-"`
	ImageBlurHash string `json:"image_blur_hash,omitempty"`

	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}

// HasImage reports whether an image has been uploaded for the recipe.
func (r *Recipe) HasImage() bool {
	return r.ImageFile != ""
}

// TagIDs returns the IDs of the recipe's resolved tags.
func (r *Recipe) TagIDs() []string {
	ids := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		ids[i] = t.ID
	}
	return ids
}

// IngredientIDs returns the IDs of the recipe's resolved ingredients.
func (r *Recipe) IngredientIDs() []string {
	ids := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ids[i] = ing.ID
	}
	return ids
}
