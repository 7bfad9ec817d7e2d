package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/merchshop/api/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("wrong password")
)

type AuthUserRepository interface {
	GetOrCreate(ctx context.Context, user domain.User) (domain.User, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

// Authenticate signs the user in, creating the account on first use.
// A fresh account starts with the default coin balance; an existing
// account must present the original password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.GetOrCreate(ctx, domain.User{
		Username: username,
		Password: string(hash),
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.GetOrCreate -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}
