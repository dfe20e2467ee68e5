package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pabloERSH/nutrition-service/models"
	"github.com/pabloERSH/nutrition-service/utils"
)

type AuthService struct {
	users  *UserService
	tokens *utils.TokenIssuer
}

func NewAuthService(users *UserService, tokens *utils.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginResult struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	db := s.users.db.WithContext(ctx)
	email := normalizeEmail(in.Email)

	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, storageError("create user", err, ErrEmailTaken)
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return &user, nil
}

// AuthenticateUser checks credentials and issues a token. Logging in revokes
// tokens from earlier sessions.
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	version, err := s.users.bumpTokenVersion(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.GenerateJWT(user.ID, version)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{ID: user.ID, Name: user.Name, Email: user.Email, Token: token}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	_, err := s.users.bumpTokenVersion(ctx, userID)
	return err
}

// Authenticate resolves a bearer token to its user. Tokens whose version is
// behind the user's current one are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ParseJWT(token)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, utils.ErrInvalidToken
		}
		return nil, err
	}
	if user.TokenVersion != claims.Version {
		return nil, utils.ErrInvalidToken
	}
	return user, nil
}
