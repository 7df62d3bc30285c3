package types

import (
	"github.com/pageza/foodgram/backend/internal/models"
)

// Action names the recipe operation a response is rendered for.
type Action int

const (
	ActionList Action = iota
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionFavorite
	ActionShoppingCart
	ActionSubscriptions
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionRetrieve:
		return "retrieve"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionFavorite:
		return "favorite"
	case ActionShoppingCart:
		return "shopping_cart"
	case ActionSubscriptions:
		return "subscriptions"
	default:
		return "unknown"
	}
}

// ViewKind is the shape of a rendered recipe.
type ViewKind int

const (
	ViewFull ViewKind = iota
	ViewShort
)

var recipeViews = map[Action]ViewKind{
	ActionList:          ViewFull,
	ActionRetrieve:      ViewFull,
	ActionCreate:        ViewFull,
	ActionUpdate:        ViewFull,
	ActionFavorite:      ViewShort,
	ActionShoppingCart:  ViewShort,
	ActionSubscriptions: ViewShort,
}

// ViewKindFor returns the view shape for an action; unknown actions get the short view.
func ViewKindFor(a Action) ViewKind {
	if kind, ok := recipeViews[a]; ok {
		return kind
	}
	return ViewShort
}

// RecipeFlags are the per-viewer annotations of a recipe.
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeViewInput is everything needed to render a recipe.
// Recipe must have Author, Tags and Amounts.Ingredient loaded for the full view.
type RecipeViewInput struct {
	Recipe           *models.Recipe
	Flags            RecipeFlags
	AuthorSubscribed bool
	ImageURL         string
}

// RecipeViewFor renders a recipe in the shape registered for the action.
// The result is a RecipeView or a RecipeShortView.
func RecipeViewFor(a Action, in RecipeViewInput) any {
	if ViewKindFor(a) == ViewFull {
		return NewRecipeView(in)
	}
	return NewRecipeShortView(in.Recipe, in.ImageURL)
}

func NewRecipeView(in RecipeViewInput) RecipeView {
	r := in.Recipe
	tags := make([]TagView, 0, len(r.Tags))
	for i := range r.Tags {
		tags = append(tags, NewTagView(&r.Tags[i]))
	}
	ingredients := make([]AmountView, 0, len(r.Amounts))
	for _, a := range r.Amounts {
		ingredients = append(ingredients, AmountView{
			ID:              a.IngredientID,
			Name:            a.Ingredient.Name,
			MeasurementUnit: a.Ingredient.MeasurementUnit,
			Amount:          a.Amount,
		})
	}
	return RecipeView{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserView(&r.Author, in.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      in.Flags.IsFavorited,
		IsInShoppingCart: in.Flags.IsInShoppingCart,
		Name:             r.Name,
		Image:            in.ImageURL,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func NewRecipeShortView(r *models.Recipe, imageURL string) RecipeShortView {
	return RecipeShortView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL,
		CookingTime: r.CookingTime,
	}
}
