package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"LinkHub_Backend/internal/apperr"
	"LinkHub_Backend/internal/models"
	"LinkHub_Backend/internal/storage"
)

const minUsernameLength = 3

// AccountService registers users and exchanges credentials for tokens.
// It is the only place that hashes passwords.
type AccountService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
}

func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AccountService {
	return &AccountService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
}

type LoginInput struct {
	Username string `json:"username,omitempty" binding:"required_without=Email" example:"alice"`
	Email    string `json:"email,omitempty" binding:"required_without=Username" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type changePasswordInput struct {
	Password string `json:"newPassword" binding:"required,min=6"`
}

// AuthResult is returned by every operation that hands out a token.
type AuthResult struct {
	Token string                `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User  models.PrivateProfile `json:"user"`
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return AuthResult{}, err
	}
	// 길이는 공백 제거 후 기준
	if utf8.RuneCountInString(in.Username) < minUsernameLength {
		return AuthResult{}, apperr.NewValidation("username must be at least 3 characters")
	}
	username, email := in.Username, in.Email

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:                uuid.New().String(),
		Username:          username,
		Email:             email,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		Theme:             models.DefaultTheme,
		Links:             []models.Link{},
		CreatedAt:         now,
	}
	if err := s.users.Save(ctx, user); err != nil {
		return AuthResult{}, storeError(err)
	}
	log.Info("user registered", "user_id", user.ID, "username", user.Username)

	return s.result(user)
}

func (s *AccountService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return AuthResult{}, err
	}

	var (
		user *models.User
		err  error
	)
	if in.Email != "" {
		user, err = s.users.FindByEmail(ctx, in.Email)
	} else {
		user, err = s.users.FindByUsername(ctx, in.Username)
	}
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return AuthResult{}, apperr.NewAuthentication("Invalid credentials", nil)
		}
		return AuthResult{}, storeError(err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return AuthResult{}, apperr.NewAuthentication("Invalid credentials", nil)
	}
	return s.result(user)
}

// ChangePassword replaces the password. Tokens issued before the change stop working.
func (s *AccountService) ChangePassword(ctx context.Context, user *models.User, current, next string) (AuthResult, error) {
	if !s.hasher.Verify(current, user.PasswordHash) {
		return AuthResult{}, apperr.NewAuthentication("Current password is incorrect", nil)
	}
	if err := validate(changePasswordInput{Password: next}); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return AuthResult{}, err
	}

	updated := *user
	updated.PasswordHash = hash
	updated.PasswordChangedAt = s.now().UTC()
	if err := s.users.Save(ctx, &updated); err != nil {
		return AuthResult{}, storeError(err)
	}
	*user = updated
	log.Info("password changed", "user_id", user.ID)

	return s.result(user)
}

func (s *AccountService) result(user *models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user.Private()}, nil
}
