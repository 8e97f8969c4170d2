// Package search provides full-text recipe search using Bleve.
// Recipes are indexed per owner with denormalized tag and ingredient names
// so a single query can match across titles, descriptions, and relations.
package search

import (
	"github.com/simmerapp/simmer-server/internal/domain"
)

// RecipeDocument is the document structure for the Bleve index.
//
// Design note: Tag and ingredient names are denormalized into the recipe
// document so matching "thai" finds recipes tagged Thai without a second
// query. The index is rebuilt cheaply from SQLite, so staleness on crash
// is recoverable.
type RecipeDocument struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"` // Owner scoping - every query filters on this

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Denormalized relation names
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`

	// Numeric fields for range queries and sorting
	TimeMinutes int     `json:"time_minutes,omitempty"`
	Price       float64 `json:"price,omitempty"` // Approximate, for range filters only

	// Timestamps for sorting, Unix millis
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but the
// mapping uses lowercase names, so we convert explicitly.
func (d *RecipeDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	if d.TimeMinutes > 0 {
		m["time_minutes"] = d.TimeMinutes
	}
	if d.Price > 0 {
		m["price"] = d.Price
	}

	return m
}

// RecipeToDocument converts a domain Recipe to a RecipeDocument.
// The recipe's Tags and Ingredients slices must be populated by the caller;
// the search package doesn't reach into the store.
func RecipeToDocument(recipe *domain.Recipe) *RecipeDocument {
	doc := &RecipeDocument{
		ID:          recipe.ID,
		UserID:      recipe.UserID,
		Title:       recipe.Title,
		Description: recipe.Description,
		TimeMinutes: recipe.TimeMinutes,
		CreatedAt:   recipe.CreatedAt.UnixMilli(),
		UpdatedAt:   recipe.UpdatedAt.UnixMilli(),
	}

	if price, _ := recipe.Price.Float64(); price > 0 {
		doc.Price = price
	}

	for _, tag := range recipe.Tags {
		doc.Tags = append(doc.Tags, tag.Name)
	}
	for _, ingredient := range recipe.Ingredients {
		doc.Ingredients = append(doc.Ingredients, ingredient.Name)
	}

	return doc
}
