package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerIngredientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns all ingredients for the current user",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIngredients)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIngredient",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Get ingredient",
		Description: "Returns an ingredient by ID",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIngredient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Rename ingredient",
		Description: "Renames an ingredient. The change is visible on every recipe that uses it.",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteIngredient",
		Method:      http.MethodDelete,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Delete ingredient",
		Description: "Deletes an ingredient and removes it from all recipes",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteIngredient)
}

// === DTOs ===

// ListIngredientsInput contains parameters for listing ingredients.
type ListIngredientsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  bool   `query:"assigned_only" doc:"Only return ingredients used by at least one recipe"`
}

// ListIngredientsResponse contains a list of ingredients.
type ListIngredientsResponse struct {
	Ingredients []IngredientResponse `json:"ingredients" doc:"List of ingredients"`
}

// ListIngredientsOutput wraps the list ingredients response for Huma.
type ListIngredientsOutput struct {
	Body ListIngredientsResponse
}

// IngredientOutput wraps the ingredient response for Huma.
type IngredientOutput struct {
	Body IngredientResponse
}

// GetIngredientInput contains parameters for getting an ingredient.
type GetIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
}

// UpdateIngredientRequest is the request body for renaming an ingredient.
type UpdateIngredientRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" doc:"New ingredient name"`
}

// UpdateIngredientInput wraps the update ingredient request for Huma.
type UpdateIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
	Body          UpdateIngredientRequest
}

// DeleteIngredientInput contains parameters for deleting an ingredient.
type DeleteIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
}

// === Handlers ===

func (s *Server) handleListIngredients(ctx context.Context, input *ListIngredientsInput) (*ListIngredientsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.services.Ingredient.ListIngredients(ctx, userID, input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		resp[i] = IngredientResponse{
			ID:        ing.ID,
			Name:      ing.Name,
			CreatedAt: ing.CreatedAt,
			UpdatedAt: ing.UpdatedAt,
		}
	}

	return &ListIngredientsOutput{Body: ListIngredientsResponse{Ingredients: resp}}, nil
}

func (s *Server) handleGetIngredient(ctx context.Context, input *GetIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.GetIngredient(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{
		Body: IngredientResponse{
			ID:        ing.ID,
			Name:      ing.Name,
			CreatedAt: ing.CreatedAt,
			UpdatedAt: ing.UpdatedAt,
		},
	}, nil
}

func (s *Server) handleUpdateIngredient(ctx context.Context, input *UpdateIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.UpdateIngredient(ctx, userID, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{
		Body: IngredientResponse{
			ID:        ing.ID,
			Name:      ing.Name,
			CreatedAt: ing.CreatedAt,
			UpdatedAt: ing.UpdatedAt,
		},
	}, nil
}

func (s *Server) handleDeleteIngredient(ctx context.Context, input *DeleteIngredientInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ingredient.DeleteIngredient(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Ingredient deleted"}}, nil
}
