package usecase

import (
	"context"

	"github.com/fastygo/taskdeck/domain"
)

// Owned is a resource scoped to exactly one user.
type Owned interface {
	OwnerID() string
}

// Loader fetches a resource by id and returns a NotFound domain error when it is absent.
type Loader[T Owned] func(ctx context.Context, id string) (T, error)

// Authorize loads the resource and confirms principalID owns it.
// Existence is checked first: an unknown id is NotFound, another user's resource is Forbidden.
func Authorize[T Owned](ctx context.Context, load Loader[T], id, principalID string) (T, error) {
	var zero T
	if principalID == "" {
		return zero, domain.ErrUnauthorized
	}
	if id == "" {
		return zero, domain.ErrInvalidPayload
	}

	resource, err := load(ctx, id)
	if err != nil {
		return zero, err
	}
	if resource.OwnerID() != principalID {
		return zero, domain.ErrForbidden
	}
	return resource, nil
}
