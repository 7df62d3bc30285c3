package models

import (
	"time"
)

type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:200;not null" json:"name"`
	Color string `gorm:"size:7;not null" json:"color"`
	Slug  string `gorm:"size:200;not null;uniqueIndex" json:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}

type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:200;not null;index" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// Recipe owns its Amounts and tag links; both go away with the recipe.
type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Image       string    `gorm:"size:255;not null" json:"image"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;default:1;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	Tags        []Tag     `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Amounts     []Amount  `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// Amount is the quantity of one ingredient in one recipe.
type Amount struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	RecipeID     uint       `gorm:"not null;index" json:"recipe_id"`
	IngredientID uint       `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredient"`
	Amount       int        `gorm:"not null;check:chk_amounts_amount,amount >= 1" json:"amount"`
}

func (Amount) TableName() string {
	return "amounts"
}
