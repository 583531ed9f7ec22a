package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	Repo Repo
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo Repo, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{Repo: repo, Cost: cost}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, username, password, confirmPassword string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if password != confirmPassword {
		return User{}, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, fmt.Errorf("%w: password is too long", ErrValidation)
		}
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.Repo.Create(ctx, User{Username: username, PasswordHash: string(hash)})
}

// Authenticate verifies a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	user, err := s.Repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		// Burn one comparison so unknown names cost the same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetWithDocuments(ctx context.Context, username string) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("users service not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return Profile{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	return s.Repo.GetWithDocuments(ctx, username)
}

func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	if s == nil || s.Repo == nil {
		return false, errors.New("users service not configured")
	}
	return s.Repo.Exists(ctx, strings.TrimSpace(username))
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.Cost)
	})
	return s.dummyHash
}
