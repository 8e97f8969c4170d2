package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simmerapp/simmer-server/internal/domain"
	domainerrors "github.com/simmerapp/simmer-server/internal/errors"
	"github.com/simmerapp/simmer-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, optionally filtered by tag or ingredient IDs",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a new recipe with optional nested tags and ingredients",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the current user's recipes",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Fully replaces a recipe. Omitted tags and ingredients are cleared.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Partially updates a recipe. Omitted fields are left untouched.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe and its stored image",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadRecipeImage",
		Method:       http.MethodPost,
		Path:         "/api/v1/recipes/{id}/image",
		Summary:      "Upload recipe image",
		Description:  "Uploads an image for a recipe. The raw request body is the image data.",
		Tags:         []string{"Recipes"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize,
	}, s.handleUploadRecipeImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipeImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}/image",
		Summary:     "Get recipe image",
		Description: "Redirects to the stored image for a recipe",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipeImage)

	// Direct chi route for image streaming
	s.router.Get("/images/recipes/{name}", s.handleServeImage)
}

// === DTOs ===

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" doc:"Comma-separated tag IDs to filter by"`
	Ingredients   string `query:"ingredients" doc:"Comma-separated ingredient IDs to filter by"`
}

// NameRequest is a nested name descriptor in recipe payloads.
type NameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" doc:"Display name"`
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        string    `json:"id" doc:"Tag ID"`
	Name      string    `json:"name" doc:"Tag name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// IngredientResponse contains ingredient data in API responses.
type IngredientResponse struct {
	ID        string    `json:"id" doc:"Ingredient ID"`
	Name      string    `json:"name" doc:"Ingredient name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// RecipeResponse contains recipe data in API responses.
type RecipeResponse struct {
	ID            string               `json:"id" doc:"Recipe ID"`
	Title         string               `json:"title" doc:"Recipe title"`
	Description   string               `json:"description,omitempty" doc:"Recipe description"`
	TimeMinutes   int                  `json:"time_minutes" doc:"Cooking time in minutes"`
	Price         string               `json:"price" doc:"Decimal price, e.g. 12.50"`
	Link          string               `json:"link,omitempty" doc:"External link"`
	ImageURL      string               `json:"image_url,omitempty" doc:"Stored image URL"`
	ImageBlurHash string               `json:"image_blur_hash,omitempty" doc:"BlurHash placeholder"`
	Tags          []TagResponse        `json:"tags" doc:"Assigned tags"`
	Ingredients   []IngredientResponse `json:"ingredients" doc:"Assigned ingredients"`
	CreatedAt     time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time            `json:"updated_at" doc:"Last update time"`
}

// RecipeOutput wraps the recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// ListRecipesResponse contains a list of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"List of recipes"`
}

// ListRecipesOutput wraps the list recipes response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// CreateRecipeRequest is the request body for creating or replacing a recipe.
type CreateRecipeRequest struct {
	Title       string        `json:"title" validate:"required,min=1,max=255" doc:"Recipe title"`
	Description string        `json:"description,omitempty" doc:"Recipe description"`
	TimeMinutes int           `json:"time_minutes" validate:"gte=0" doc:"Cooking time in minutes"`
	Price       string        `json:"price" validate:"required" doc:"Decimal price, e.g. 12.50"`
	Link        string        `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Tags        []NameRequest `json:"tags,omitempty" doc:"Tags to assign, created on demand"`
	Ingredients []NameRequest `json:"ingredients,omitempty" doc:"Ingredients to assign, created on demand"`
}

// CreateRecipeInput wraps the create recipe request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateRecipeRequest
}

// ReplaceRecipeInput wraps the replace recipe request for Huma.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          CreateRecipeRequest
}

// UpdateRecipeRequest is the request body for partially updating a recipe.
// Omitted relation lists are left untouched; empty lists clear the relation.
type UpdateRecipeRequest struct {
	Title       *string       `json:"title,omitempty" validate:"omitempty,min=1,max=255" doc:"Recipe title"`
	Description *string       `json:"description,omitempty" doc:"Recipe description"`
	TimeMinutes *int          `json:"time_minutes,omitempty" validate:"omitempty,gte=0" doc:"Cooking time in minutes"`
	Price       *string       `json:"price,omitempty" doc:"Decimal price, e.g. 12.50"`
	Link        *string       `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Tags        []NameRequest `json:"tags,omitempty" doc:"Replacement tag list"`
	Ingredients []NameRequest `json:"ingredients,omitempty" doc:"Replacement ingredient list"`
}

// UpdateRecipeInput wraps the update recipe request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// GetRecipeInput contains parameters for getting a recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// DeleteRecipeInput contains parameters for deleting a recipe.
type DeleteRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UploadRecipeImageInput wraps an image upload for Huma.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	RawBody       []byte
}

// GetRecipeImageInput contains parameters for fetching a recipe image.
type GetRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// ImageRedirectOutput redirects to the stored image location.
type ImageRedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

func (o *ImageRedirectOutput) StatusCode() int {
	return o.Status
}

// SearchRecipesInput contains parameters for searching recipes.
type SearchRecipesInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" doc:"Search query"`
	Limit         int    `query:"limit" doc:"Maximum number of hits (default 20)"`
	Offset        int    `query:"offset" doc:"Number of hits to skip"`
}

// SearchHitResponse contains a single search hit.
type SearchHitResponse struct {
	ID          string            `json:"id" doc:"Recipe ID"`
	Score       float64           `json:"score" doc:"Relevance score"`
	Title       string            `json:"title" doc:"Recipe title"`
	Tags        []string          `json:"tags,omitempty" doc:"Tag names"`
	Ingredients []string          `json:"ingredients,omitempty" doc:"Ingredient names"`
	TimeMinutes int               `json:"time_minutes,omitempty" doc:"Cooking time in minutes"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted fragments by field"`
}

// SearchRecipesResponse contains search results.
type SearchRecipesResponse struct {
	Query  string              `json:"query" doc:"Executed query"`
	Total  uint64              `json:"total" doc:"Total matching recipes"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching recipes"`
}

// SearchRecipesOutput wraps the search response for Huma.
type SearchRecipesOutput struct {
	Body SearchRecipesResponse
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.ListRecipes(ctx, userID, service.ListRecipesRequest{
		TagIDs:        splitIDs(input.Tags),
		IngredientIDs: splitIDs(input.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = mapRecipeResponse(r)
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: resp}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req, err := mapCreateRecipeRequest(input.Body)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.CreateRecipe(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.GetRecipe(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	price, err := parsePrice(input.Body.Price)
	if err != nil {
		return nil, err
	}

	// A full replace clears relations that are omitted from the payload.
	tags := mapNameInputs(input.Body.Tags)
	if tags == nil {
		tags = []service.NameInput{}
	}
	ingredients := mapNameInputs(input.Body.Ingredients)
	if ingredients == nil {
		ingredients = []service.NameInput{}
	}

	recipe, err := s.services.Recipe.UpdateRecipe(ctx, userID, input.ID, service.UpdateRecipeRequest{
		Title:       &input.Body.Title,
		Description: &input.Body.Description,
		TimeMinutes: &input.Body.TimeMinutes,
		Price:       &price,
		Link:        &input.Body.Link,
		Tags:        tags,
		Ingredients: ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req := service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		TimeMinutes: input.Body.TimeMinutes,
		Link:        input.Body.Link,
		Tags:        mapNameInputs(input.Body.Tags),
		Ingredients: mapNameInputs(input.Body.Ingredients),
	}

	if input.Body.Price != nil {
		price, err := parsePrice(*input.Body.Price)
		if err != nil {
			return nil, err
		}
		req.Price = &price
	}

	recipe, err := s.services.Recipe.UpdateRecipe(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *DeleteRecipeInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.DeleteRecipe(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("Image data is required")
	}

	recipe, err := s.services.Recipe.UploadImage(ctx, userID, input.ID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipeImage(ctx context.Context, input *GetRecipeImageInput) (*ImageRedirectOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.GetRecipe(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	if recipe.ImageFile == "" {
		return nil, huma.Error404NotFound("Recipe has no image")
	}

	return &ImageRedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: "/images/recipes/" + recipe.ImageFile,
	}, nil
}

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	// Remove .jpg extension if present
	if len(name) > 4 && name[len(name)-4:] == ".jpg" {
		name = name[:len(name)-4]
	}

	if s.images == nil {
		http.Error(w, "image storage not configured", http.StatusNotFound)
		return
	}

	data, err := s.images.Get(name)
	if err != nil {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneDay)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

func (s *Server) handleSearchRecipes(ctx context.Context, input *SearchRecipesInput) (*SearchRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Recipe.Search(ctx, userID, input.Query, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:          h.ID,
			Score:       h.Score,
			Title:       h.Title,
			Tags:        h.Tags,
			Ingredients: h.Ingredients,
			TimeMinutes: h.TimeMinutes,
			Highlights:  h.Highlights,
		}
	}

	return &SearchRecipesOutput{
		Body: SearchRecipesResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}

// === Helpers ===

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	tags := make([]TagResponse, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = TagResponse{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
	}

	ingredients := make([]IngredientResponse, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = IngredientResponse{
			ID:        ing.ID,
			Name:      ing.Name,
			CreatedAt: ing.CreatedAt,
			UpdatedAt: ing.UpdatedAt,
		}
	}

	imageURL := ""
	if r.ImageFile != "" {
		imageURL = "/images/recipes/" + r.ImageFile
	}

	return RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price.String(),
		Link:          r.Link,
		ImageURL:      imageURL,
		ImageBlurHash: r.ImageBlurHash,
		Tags:          tags,
		Ingredients:   ingredients,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func mapCreateRecipeRequest(body CreateRecipeRequest) (service.CreateRecipeRequest, error) {
	price, err := parsePrice(body.Price)
	if err != nil {
		return service.CreateRecipeRequest{}, err
	}

	return service.CreateRecipeRequest{
		Title:       body.Title,
		Description: body.Description,
		TimeMinutes: body.TimeMinutes,
		Price:       price,
		Link:        body.Link,
		Tags:        mapNameInputs(body.Tags),
		Ingredients: mapNameInputs(body.Ingredients),
	}, nil
}

func mapNameInputs(names []NameRequest) []service.NameInput {
	if names == nil {
		return nil
	}
	inputs := make([]service.NameInput, len(names))
	for i, n := range names {
		inputs[i] = service.NameInput{Name: n.Name}
	}
	return inputs
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, domainerrors.Validationf("invalid price %q", raw)
	}
	return price, nil
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
