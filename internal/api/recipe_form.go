package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	msgMalformedBody   = "Неверный формат данных."
	msgInvalidNumber   = "Введите правильное число."
	msgInvalidList     = "Ожидался список значений."
	maxUploadReadBytes = 10<<20 + 1
)

// bindRecipeRequest reads a recipe body sent as JSON or multipart form.
func bindRecipeRequest(c *gin.Context) (*types.RecipeRequest, error) {
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		return bindRecipeForm(c)
	}
	var req types.RecipeRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	return &req, nil
}

// decodeError reports a mistyped value under its top-level field; any other
// decode failure is a malformed body.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return service.ValidationError("non_field_errors", msgMalformedBody)
	}
	path := strings.Split(typeErr.Field, ".")
	msg := msgMalformedBody
	switch path[len(path)-1] {
	case "cooking_time", "amount", "id":
		msg = msgInvalidNumber
	case "tags", "ingredients":
		msg = msgInvalidList
	}
	return service.ValidationError(path[0], msg)
}

// bindRecipeForm maps multipart fields onto a request. Ingredients arrive
// as a JSON string; tags as repeated values or a JSON array.
func bindRecipeForm(c *gin.Context) (*types.RecipeRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, service.ValidationError("non_field_errors", msgMalformedBody)
	}

	req := &types.RecipeRequest{}
	fields := service.FieldErrors{}

	if v, ok := formValue(form, "name"); ok {
		req.Name = &v
	}
	if v, ok := formValue(form, "text"); ok {
		req.Text = &v
	}
	if v, ok := formValue(form, "cooking_time"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fields.Add("cooking_time", msgInvalidNumber)
		} else {
			cookingTime := types.Integer(n)
			req.CookingTime = &cookingTime
		}
	}
	if v, ok := formValue(form, "ingredients"); ok {
		items := []types.IngredientAmountInput{}
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			fields.Add("ingredients", msgInvalidList)
		} else {
			req.Ingredients = items
		}
	}
	if values, ok := form.Value["tags"]; ok {
		tags, err := parseTagValues(values)
		if err != nil {
			fields.Add("tags", msgInvalidList)
		} else {
			req.Tags = tags
		}
	}

	if files := form.File["image"]; len(files) > 0 {
		upload, err := readUpload(files[0])
		if err != nil {
			fields.Add("image", err.Error())
		} else {
			req.ImageUpload = upload
		}
	} else if v, ok := formValue(form, "image"); ok {
		req.Image = &v
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func parseTagValues(values []string) ([]uint, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		tags := []uint{}
		if err := json.Unmarshal([]byte(values[0]), &tags); err != nil {
			return nil, err
		}
		return tags, nil
	}
	tags := make([]uint, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, err
		}
		tags = append(tags, uint(id))
	}
	return tags, nil
}

func readUpload(fh *multipart.FileHeader) (*types.ImageUpload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadReadBytes))
	if err != nil {
		return nil, err
	}
	return &types.ImageUpload{Filename: fh.Filename, Data: data}, nil
}
