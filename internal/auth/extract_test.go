package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
	"github.com/fastygo/taskdeck/repository/memory"
)

func requestWith(header, cookie string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, header)
	}
	if cookie != "" {
		ctx.Request.Header.SetCookie(CookieName, cookie)
	}
	return ctx
}

func TestBearerHeader(t *testing.T) {
	t.Parallel()

	extract := BearerHeader(fasthttp.HeaderAuthorization)
	assert.Equal(t, "abc", extract(requestWith("Bearer abc", "")))
	assert.Equal(t, "abc", extract(requestWith("bearer  abc ", "")))
	assert.Empty(t, extract(requestWith("Basic abc", "")))
	assert.Empty(t, extract(requestWith("", "")))
}

func TestCookie(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "from-cookie", Cookie(CookieName)(requestWith("", "from-cookie")))
	assert.Empty(t, Cookie("other")(requestWith("", "from-cookie")))
}

func TestExtractToken_HeaderWins(t *testing.T) {
	t.Parallel()

	ctx := requestWith("Bearer from-header", "from-cookie")
	assert.Equal(t, "from-header", ExtractToken(ctx, DefaultExtractors()...))

	ctx = requestWith("", "from-cookie")
	assert.Equal(t, "from-cookie", ExtractToken(ctx, DefaultExtractors()...))

	assert.Empty(t, ExtractToken(requestWith("", ""), DefaultExtractors()...))
}

func TestResolver(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	users := store.Users()
	user, err := users.Create(context.Background(), &domain.User{Email: "a@b.com", Name: "A"})
	require.NoError(t, err)

	codec := newCodec(t, time.Now())
	token, _, err := codec.Issue(user)
	require.NoError(t, err)

	resolver := NewResolver(codec, users, nil)

	t.Run("bearer token", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), requestWith("Bearer "+token, ""))
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), requestWith("", token))
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("invalid header does not fall back to cookie", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), requestWith("Bearer garbage", token))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("anonymous", func(t *testing.T) {
		got, err := resolver.Resolve(context.Background(), requestWith("", ""))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Nil(t, got)
	})

	t.Run("deleted user", func(t *testing.T) {
		ghost, err := users.Create(context.Background(), &domain.User{Email: "ghost@b.com", Name: "G"})
		require.NoError(t, err)
		ghostToken, _, err := codec.Issue(ghost)
		require.NoError(t, err)
		require.NoError(t, users.Delete(context.Background(), ghost.ID))

		got, err := resolver.Resolve(context.Background(), requestWith("Bearer "+ghostToken, ""))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Nil(t, got)
	})
}

type brokenUsers struct {
	repository.UserRepository
	err error
}

func (b brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, b.err
}

func TestResolver_LookupFailureIsNotUnauthorized(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, time.Now())
	token, _, err := codec.Issue(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	down := errors.New("connection refused")
	resolver := NewResolver(codec, brokenUsers{err: down}, nil)

	got, err := resolver.Resolve(context.Background(), requestWith("Bearer "+token, ""))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, down)
	assert.False(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	ok, err := CheckPassword(hash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
