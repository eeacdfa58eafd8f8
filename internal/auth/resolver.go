package auth

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

// Verifier is the read side of TokenCodec.
type Verifier interface {
	Verify(token string) (string, bool)
}

// Resolver turns a request into the authenticated user, or nobody.
type Resolver struct {
	verifier   Verifier
	users      repository.UserRepository
	extractors []TokenExtractor
	logger     *zap.Logger
}

func NewResolver(verifier Verifier, users repository.UserRepository, logger *zap.Logger, extractors ...TokenExtractor) *Resolver {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		verifier:   verifier,
		users:      users,
		extractors: extractors,
		logger:     logger,
	}
}

// Resolve returns the authenticated user. A missing, invalid or stale token and a
// token whose subject was deleted all yield domain.ErrUnauthorized. Any other
// lookup failure is returned wrapped so the caller can answer 500, not 401.
func (r *Resolver) Resolve(ctx context.Context, reqCtx *fasthttp.RequestCtx) (*domain.User, error) {
	token := ExtractToken(reqCtx, r.extractors...)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	userID, ok := r.verifier.Verify(token)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		r.logger.Error("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("load principal: %w", err)
	}
	return user, nil
}
