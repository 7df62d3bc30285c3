package testhelpers

import (
	"fmt"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TestPassword = "S3cret-pass!"

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: "Tag " + slug, Color: "#E26C2D", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ing
}

// IngredientAmount pairs an ingredient with a quantity for CreateRecipe.
type IngredientAmount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe with the given tags and amounts directly.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, items ...IngredientAmount) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       fmt.Sprintf("recipes/images/%s.png", name),
		Text:        "Text for " + name,
		CookingTime: 10,
	}
	if err := db.Omit("Author", "Tags", "Amounts").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	if len(tags) > 0 {
		linked := make([]models.Tag, 0, len(tags))
		for _, tag := range tags {
			linked = append(linked, *tag)
		}
		if err := db.Model(recipe).Association("Tags").Append(linked); err != nil {
			t.Fatalf("failed to link tags: %v", err)
		}
	}
	for _, item := range items {
		amount := &models.Amount{RecipeID: recipe.ID, IngredientID: item.Ingredient.ID, Amount: item.Amount}
		if err := db.Omit("Ingredient").Create(amount).Error; err != nil {
			t.Fatalf("failed to create amount: %v", err)
		}
	}
	return recipe
}

func AddFavorite(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	if err := db.Omit("User", "Recipe").Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add favorite: %v", err)
	}
}

func AddToCart(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()
	if err := db.Omit("User", "Recipe").Create(&models.ShoppingCart{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}
}

func AddFollow(t *testing.T, db *gorm.DB, user, author *models.User) {
	t.Helper()
	if err := db.Omit("User", "Author").Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error; err != nil {
		t.Fatalf("failed to add follow: %v", err)
	}
}
