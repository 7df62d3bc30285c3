package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

const (
	shoppingTimeLayout = "15:04  01.02.2006"
	shoppingTrailer    = "Посчитано в Foodgram"
)

// ShoppingItem is one summed ingredient of the shopping list.
type ShoppingItem struct {
	Name  string
	Unit  string
	Total int64
}

// ShoppingList is the viewer's cart summed per ingredient and unit.
type ShoppingList struct {
	FirstName   string
	Username    string
	GeneratedAt time.Time
	Items       []ShoppingItem
}

// Render formats the list as the downloadable text document.
func (l *ShoppingList) Render() string {
	var b strings.Builder
	b.WriteString("Список покупок для пользователя: ")
	b.WriteString(l.FirstName)
	b.WriteString("\n")
	b.WriteString(l.GeneratedAt.Format(shoppingTimeLayout))
	b.WriteString("\n\n")
	for _, item := range l.Items {
		b.WriteString(item.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatInt(item.Total, 10))
		b.WriteString(" ")
		b.WriteString(item.Unit)
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
	b.WriteString(shoppingTrailer)
	return b.String()
}

// Filename is the attachment name of the rendered list.
func (l *ShoppingList) Filename() string {
	return l.Username + "_shopping_list.txt"
}

type ShoppingService struct {
	db  *gorm.DB
	now func() time.Time
}

var _ IShoppingService = (*ShoppingService)(nil)

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db, now: time.Now}
}

// WithClock replaces the timestamp source.
func (s *ShoppingService) WithClock(now func() time.Time) *ShoppingService {
	s.now = now
	return s
}

// List sums the ingredients of every recipe in the viewer's cart.
// An empty cart is ErrCartEmpty.
func (s *ShoppingService) List(ctx context.Context, viewer types.Viewer) (*ShoppingList, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthorized
	}
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, viewer.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var inCart int64
	if err := db.Model(&models.ShoppingCart{}).Where("user_id = ?", viewer.UserID).Count(&inCart).Error; err != nil {
		return nil, fmt.Errorf("failed to count cart: %w", err)
	}
	if inCart == 0 {
		return nil, ErrCartEmpty
	}

	var items []ShoppingItem
	err := db.Table("shopping_cart AS sc").
		Select("i.name AS name, i.measurement_unit AS unit, SUM(a.amount) AS total").
		Joins("JOIN amounts a ON a.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients i ON i.id = a.ingredient_id").
		Where("sc.user_id = ?", viewer.UserID).
		Group("i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum shopping list: %w", err)
	}

	metrics.RecordShoppingListDownload()
	return &ShoppingList{
		FirstName:   user.FirstName,
		Username:    user.Username,
		GeneratedAt: s.now(),
		Items:       items,
	}, nil
}
