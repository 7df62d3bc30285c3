package types

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
)

// Integer decodes from a JSON number or a string holding an integer.
type Integer int

func (n *Integer) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	value := "number"
	if strings.HasPrefix(raw, `"`) {
		value = "string"
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return &json.UnmarshalTypeError{Value: value, Type: reflect.TypeOf(*n)}
	}
	*n = Integer(v)
	return nil
}

// IngredientAmountInput is one ingredient line of a recipe request.
type IngredientAmountInput struct {
	ID     uint    `json:"id"`
	Amount Integer `json:"amount"`
}

// ImageUpload is a raw image received as a multipart file.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// RecipeRequest is the body of recipe create and update.
// On update a nil field is left unchanged; a non-nil slice replaces the set.
type RecipeRequest struct {
	Ingredients []IngredientAmountInput `json:"ingredients"`
	Tags        []uint                  `json:"tags"`
	Image       *string                 `json:"image"`
	Name        *string                 `json:"name"`
	Text        *string                 `json:"text"`
	CookingTime *Integer                `json:"cooking_time"`

	ImageUpload *ImageUpload `json:"-"`
}

// CreateUserRequest represents the registration body
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=150"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// TagSeed is one entry of the tag fixture file.
type TagSeed struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,tagcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// IngredientSeed is one entry of the ingredient fixture file.
type IngredientSeed struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}
