package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cineplex/internal/shared/apperror"
	"cineplex/internal/shared/config"
	"cineplex/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrUserAlreadyExists  = apperror.New(apperror.KindConflict, "USER_EXISTS", "user with this email already exists")
	ErrInvalidToken       = apperror.New(apperror.KindUnauthorized, "INVALID_TOKEN", "invalid or expired token")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error
	Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
}

type service struct {
	repo   users.Repository
	config config.JWTConfig
	now    func() time.Time
}

func NewService(repo users.Repository, cfg config.JWTConfig) Service {
	return &service{repo: repo, config: cfg, now: time.Now}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &users.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Phone:     req.Phone,
		Password:  string(hashedPassword),
		Role:      users.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.authResponse(user)
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := parseToken([]byte(s.config.Secret), refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.generateTokenPair(user)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hashedPassword))
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *service) authResponse(user *users.User) (*AuthResponse, error) {
	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *service) generateTokenPair(user *users.User) (*TokenPair, error) {
	now := s.now()
	secret := []byte(s.config.Secret)
	id, role := user.ID.String(), user.Role.String()

	access, err := signToken(secret, id, user.Email, role, tokenTypeAccess, now, s.config.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := signToken(secret, id, user.Email, role, tokenTypeRefresh, now, s.config.RefreshExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.config.JWTExpiresIn.Seconds()),
	}, nil
}
