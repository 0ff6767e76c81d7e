package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"payapi/internal/model"
	"payapi/internal/storage"
)

type AuthService struct {
	store storage.UserStore
	log   *zap.Logger
}

func NewAuthService(store storage.UserStore, log *zap.Logger) *AuthService {
	return &AuthService{store: store, log: log}
}

type RegisterInput struct {
	UserID   string
	Email    string
	FullName string
	Phone    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           in.UserID,
		Email:        in.Email,
		FullName:     in.FullName,
		Phone:        in.Phone,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			s.log.Warn("registration rejected, user exists", zap.String("user_id", in.UserID))
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, userID, password string) (*model.User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.GetByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, error) {
	return s.store.List(ctx, offset, limit)
}
