package models

import (
	"time"
)

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index" json:"recipe_id"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCart is one recipe in a user's cart.
type ShoppingCart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index" json:"recipe_id"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCart) TableName() string {
	return "shopping_cart"
}

// Follow is a subscription of User (follower) to Author.
type Follow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;check:chk_follows_not_self,user_id <> author_id" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_user_author;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Follow) TableName() string {
	return "follows"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&Amount{},
		&Favorite{},
		&ShoppingCart{},
		&Follow{},
	}
}
