package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, req *types.LoginRequest) (*types.TokenResponse, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
}

// IUserService defines the interface for account and subscription operations
type IUserService interface {
	List(ctx context.Context, viewer types.Viewer, page types.PageRequest) ([]types.UserView, int64, error)
	Get(ctx context.Context, viewer types.Viewer, id uint) (*types.UserView, error)
	Me(ctx context.Context, viewer types.Viewer) (*types.UserView, error)
	Create(ctx context.Context, req *types.CreateUserRequest) (*types.CreatedUserView, error)
	SetPassword(ctx context.Context, viewer types.Viewer, req *types.SetPasswordRequest) error
	Subscriptions(ctx context.Context, viewer types.Viewer, page types.PageRequest, recipesLimit int) ([]types.SubscriptionView, int64, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	List(ctx context.Context, viewer types.Viewer, filter types.RecipeFilter, page types.PageRequest) ([]types.RecipeView, int64, error)
	Get(ctx context.Context, viewer types.Viewer, id uint) (*types.RecipeView, error)
	Create(ctx context.Context, viewer types.Viewer, req *types.RecipeRequest) (*types.RecipeView, error)
	Update(ctx context.Context, viewer types.Viewer, id uint, req *types.RecipeRequest) (*types.RecipeView, error)
	Delete(ctx context.Context, viewer types.Viewer, id uint) error
}

// ICatalogService defines the interface for tag and ingredient lookups
type ICatalogService interface {
	ListTags(ctx context.Context) ([]types.TagView, error)
	GetTag(ctx context.Context, id uint) (*types.TagView, error)
	ListIngredients(ctx context.Context, prefix string) ([]types.IngredientView, error)
	GetIngredient(ctx context.Context, id uint) (*types.IngredientView, error)
}

// IShoppingService defines the interface for the shopping list download
type IShoppingService interface {
	List(ctx context.Context, viewer types.Viewer) (*ShoppingList, error)
}
