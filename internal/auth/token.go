package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fastygo/taskdeck/domain"
)

// DefaultTokenTTL is the lifetime of an issued token and of the auth cookie.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenConfig is everything the codec needs; nothing is read from the environment.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenCodec mints and verifies HS256 identity tokens.
type TokenCodec struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenCodec{cfg: cfg, now: time.Now}, nil
}

// WithClock swaps the time source; verification uses the same clock.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	c.now = now
	return c
}

func (c *TokenCodec) TTL() time.Duration {
	return c.cfg.TTL
}

// Issue signs a token whose subject is the user id. It returns the expiry instant too.
func (c *TokenCodec) Issue(user *domain.User) (string, time.Time, error) {
	if user == nil || user.ID == "" {
		return "", time.Time{}, domain.ErrInvalidPayload
	}
	issuedAt := c.now()
	expiresAt := issuedAt.Add(c.cfg.TTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		Issuer:    c.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	if c.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.cfg.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify returns the subject of a valid token. Every failure looks the same to the caller.
func (c *TokenCodec) Verify(tokenString string) (string, bool) {
	if tokenString == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return c.cfg.Secret, nil },
		c.parserOptions()...,
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// parserOptions checks iss and aud only when the codec was configured with them.
func (c *TokenCodec) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.cfg.Issuer))
	}
	if c.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.cfg.Audience))
	}
	return opts
}
