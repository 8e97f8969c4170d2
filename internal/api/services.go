package api

import "github.com/simmerapp/simmer-server/internal/service"

// Services bundles the service layer dependencies for the API server.
type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	User       *service.UserService
	Recipe     *service.RecipeService
	Tag        *service.TagService
	Ingredient *service.IngredientService
}
