package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"zalama/config"
	"zalama/internal/auth"
	"zalama/internal/models"
	"zalama/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}

type AuthService struct {
	jwt   *config.JWTConfig
	users UserStore
}

func NewAuthService(jwt *config.JWTConfig, users UserStore) *AuthService {
	return &AuthService{jwt: jwt, users: users}
}

// Login checks the password and returns an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCreds
	}
	if !u.Actif {
		return nil, "", ErrAccountDisabled
	}
	token, err := auth.GenerateAccessToken(s.jwt, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	_ = s.users.TouchLogin(ctx, u.ID, time.Now())
	return u, token, nil
}

func (s *AuthService) Me(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
