package auth

import (
	"strings"

	"github.com/valyala/fasthttp"
)

// CookieName carries the token when no Authorization header is sent.
const CookieName = "auth-token"

// TokenExtractor pulls a raw token out of a request; "" means not present.
type TokenExtractor func(ctx *fasthttp.RequestCtx) string

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader(name string) TokenExtractor {
	return func(ctx *fasthttp.RequestCtx) string {
		header := strings.TrimSpace(string(ctx.Request.Header.Peek(name)))
		if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
			return ""
		}
		return strings.TrimSpace(header[len("Bearer "):])
	}
}

// Cookie reads a named request cookie.
func Cookie(name string) TokenExtractor {
	return func(ctx *fasthttp.RequestCtx) string {
		return strings.TrimSpace(string(ctx.Request.Header.Cookie(name)))
	}
}

// DefaultExtractors is the header-then-cookie chain.
func DefaultExtractors() []TokenExtractor {
	return []TokenExtractor{BearerHeader(fasthttp.HeaderAuthorization), Cookie(CookieName)}
}

// ExtractToken returns the first non-empty result; later extractors are not consulted.
func ExtractToken(ctx *fasthttp.RequestCtx, extractors ...TokenExtractor) string {
	for _, extract := range extractors {
		if token := extract(ctx); token != "" {
			return token
		}
	}
	return ""
}
