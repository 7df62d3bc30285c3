package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgEmailTaken    = "Пользователь с таким email уже существует."
	msgUsernameTaken = "Пользователь с таким именем уже существует."
	msgWrongPassword = "Неверный текущий пароль."
	msgSamePassword  = "Новый пароль совпадает с текущим."
)

// UserService handles accounts, profiles and subscriptions.
type UserService struct {
	db         *gorm.DB
	images     *ImageService
	validator  *validation.Validator
	bcryptCost int
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB, images *ImageService, v *validation.Validator) *UserService {
	return &UserService{db: db, images: images, validator: v, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost sets the hashing cost for new passwords.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// List returns one page of users ordered by id.
func (s *UserService) List(ctx context.Context, viewer types.Viewer, page types.PageRequest) ([]types.UserView, int64, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	page = page.Normalize()
	var users []models.User
	if err := db.Order("id").Limit(page.Limit).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	views, err := s.userViews(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// Get returns one user with the viewer's subscription flag.
func (s *UserService) Get(ctx context.Context, viewer types.Viewer, id uint) (*types.UserView, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.userViews(ctx, viewer, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Me returns the viewer's own profile.
func (s *UserService) Me(ctx context.Context, viewer types.Viewer) (*types.UserView, error) {
	if !viewer.Authenticated() {
		return nil, ErrUnauthorized
	}
	return s.Get(ctx, viewer, viewer.UserID)
}

// Create registers a user. Taken email or username is a field error.
func (s *UserService) Create(ctx context.Context, req *types.CreateUserRequest) (*types.CreatedUserView, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	fields, err := s.takenFields(ctx, req.Email, req.Username)
	if err != nil {
		return nil, err
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// lost a race with a concurrent registration
			if fields, ferr := s.takenFields(ctx, req.Email, req.Username); ferr == nil && len(fields) > 0 {
				return nil, fields.Err()
			}
			return nil, ValidationError("username", msgUsernameTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	view := types.NewCreatedUserView(user)
	return &view, nil
}

// SetPassword replaces the viewer's password after checking the current one.
func (s *UserService) SetPassword(ctx context.Context, viewer types.Viewer, req *types.SetPasswordRequest) error {
	if !viewer.Authenticated() {
		return ErrUnauthorized
	}
	if err := s.validate(req); err != nil {
		return err
	}

	user, err := s.find(ctx, viewer.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ValidationError("current_password", msgWrongPassword)
	}
	if req.NewPassword == req.CurrentPassword {
		return ValidationError("new_password", msgSamePassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Subscriptions returns one page of the authors the viewer follows, each
// with up to recipesLimit recipes. A negative limit means all.
func (s *UserService) Subscriptions(ctx context.Context, viewer types.Viewer, page types.PageRequest, recipesLimit int) ([]types.SubscriptionView, int64, error) {
	if !viewer.Authenticated() {
		return nil, 0, ErrUnauthorized
	}

	followed := s.db.WithContext(ctx).Model(&models.User{}).
		Where("users.id IN (SELECT author_id FROM follows WHERE user_id = ?)", viewer.UserID)

	var count int64
	if err := followed.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	if count == 0 {
		return []types.SubscriptionView{}, 0, nil
	}

	page = page.Normalize()
	var authors []models.User
	err := followed.Session(&gorm.Session{}).
		Order("users.id").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views, err := s.subscriptionViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

// subscriptionViews renders followed authors with their recipe counts and
// newest recipes.
func (s *UserService) subscriptionViews(ctx context.Context, authors []models.User, recipesLimit int) ([]types.SubscriptionView, error) {
	db := s.db.WithContext(ctx)
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}

	var counts []struct {
		AuthorID uint
		Total    int64
	}
	err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", ids).
		Group("author_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count author recipes: %w", err)
	}
	countByAuthor := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByAuthor[c.AuthorID] = c.Total
	}

	var recipes []models.Recipe
	if recipesLimit != 0 {
		if err := db.Where("author_id IN ?", ids).Order("id DESC").Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load author recipes: %w", err)
		}
	}
	byAuthor := make(map[uint][]types.RecipeShortView, len(authors))
	for i := range recipes {
		r := &recipes[i]
		if recipesLimit > 0 && len(byAuthor[r.AuthorID]) >= recipesLimit {
			continue
		}
		view := types.RecipeViewFor(types.ActionSubscriptions, types.RecipeViewInput{
			Recipe:   r,
			ImageURL: s.images.URL(r.Image),
		}).(types.RecipeShortView)
		byAuthor[r.AuthorID] = append(byAuthor[r.AuthorID], view)
	}

	views := make([]types.SubscriptionView, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		short := byAuthor[a.ID]
		if short == nil {
			short = []types.RecipeShortView{}
		}
		views = append(views, types.SubscriptionView{
			UserView:     types.NewUserView(a, true),
			Recipes:      short,
			RecipesCount: countByAuthor[a.ID],
		})
	}
	return views, nil
}

func (s *UserService) userViews(ctx context.Context, viewer types.Viewer, users []models.User) ([]types.UserView, error) {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := followedAmong(s.db.WithContext(ctx), viewer, ids)
	if err != nil {
		return nil, err
	}
	views := make([]types.UserView, 0, len(users))
	for i := range users {
		views = append(views, types.NewUserView(&users[i], followed[users[i].ID]))
	}
	return views, nil
}

func (s *UserService) find(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) takenFields(ctx context.Context, email, username string) (FieldErrors, error) {
	fields := FieldErrors{}
	db := s.db.WithContext(ctx).Model(&models.User{})

	var n int64
	if err := db.Session(&gorm.Session{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if n > 0 {
		fields.Add("email", msgEmailTaken)
	}
	if err := db.Session(&gorm.Session{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		fields.Add("username", msgUsernameTaken)
	}
	return fields, nil
}

// validate runs struct validation and converts failures to a domain error.
func (s *UserService) validate(v any) error {
	return fromValidation(s.validator.Validate(v))
}

func fromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := FieldErrors{}
		for field, msgs := range verrs {
			for _, m := range msgs {
				fields.Add(field, m)
			}
		}
		return fields.Err()
	}
	return fmt.Errorf("failed to validate: %w", err)
}
