package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenIssuer = "foodgram"

// AuthService issues and validates HS256 bearer tokens.
type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
	ttl       time.Duration
	store     TokenStore
	validator *validation.Validator
	now       func() time.Time
}

var _ IAuthService = (*AuthService)(nil)

// NewAuthService creates an auth service. A nil store disables revocation.
func NewAuthService(db *gorm.DB, jwtSecret string, ttl time.Duration, store TokenStore, v *validation.Validator) *AuthService {
	return &AuthService{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		store:     store,
		validator: v,
		now:       time.Now,
	}
}

// Login exchanges email and password for a token.
func (s *AuthService) Login(ctx context.Context, req *types.LoginRequest) (*types.TokenResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := fromValidation(s.validator.Validate(req)); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("token issued")
	return &types.TokenResponse{AuthToken: token}, nil
}

// GenerateToken signs a token for user with a fresh jti.
func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and rejects expired or revoked ones.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken.WithCause(err)
	}

	if s.store != nil {
		revoked, err := s.store.IsRevoked(ctx, claims.ID)
		if err != nil {
			// revocation is advisory when the store is down
			logging.Ctx(ctx).Warn().Err(err).Msg("token revocation check failed")
		} else if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Logout revokes the token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *types.TokenClaims) error {
	if claims == nil {
		return ErrUnauthorized
	}
	if s.store == nil {
		logging.Ctx(ctx).Warn().Uint("user_id", claims.UserID).Msg("token store unavailable, logout not persisted")
		return nil
	}
	expiresAt := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.store.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Uint("user_id", claims.UserID).Msg("token revoked")
	return nil
}
