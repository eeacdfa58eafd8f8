package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	authpkg "github.com/fastygo/taskdeck/internal/auth"
	"github.com/fastygo/taskdeck/repository"
)

// TokenIssuer is the write side of the token codec.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// Session is the outcome of a successful login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type UseCase struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
}

func New(users repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a user with a bcrypt password hash. A taken email is a conflict.
func (uc *UseCase) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)

	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := authpkg.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := uc.users.Create(ctx, &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login checks credentials and issues a token. Unknown email and wrong password are indistinguishable.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := authpkg.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := uc.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Me reloads the principal so responses reflect the stored row.
func (uc *UseCase) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	return user, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
