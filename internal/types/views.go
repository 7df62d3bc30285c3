package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// AmountView is an ingredient as it appears inside a recipe.
type AmountView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type UserView struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// CreatedUserView is the registration response; it has no subscription flag.
type CreatedUserView struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RecipeView struct {
	ID               uint         `json:"id"`
	Tags             []TagView    `json:"tags"`
	Author           UserView     `json:"author"`
	Ingredients      []AmountView `json:"ingredients"`
	IsFavorited      bool         `json:"is_favorited"`
	IsInShoppingCart bool         `json:"is_in_shopping_cart"`
	Name             string       `json:"name"`
	Image            string       `json:"image"`
	Text             string       `json:"text"`
	CookingTime      int          `json:"cooking_time"`
}

// RecipeShortView is the summary used by toggles and subscriptions.
type RecipeShortView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type SubscriptionView struct {
	UserView
	Recipes      []RecipeShortView `json:"recipes"`
	RecipesCount int64             `json:"recipes_count"`
}

// Page is the paginated envelope of list endpoints.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func NewTagView(t *models.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func NewIngredientView(i *models.Ingredient) IngredientView {
	return IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func NewUserView(u *models.User, subscribed bool) UserView {
	return UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func NewCreatedUserView(u *models.User) CreatedUserView {
	return CreatedUserView{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
