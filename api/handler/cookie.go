package handler

import (
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdeck/internal/auth"
)

// SessionCookie describes the cookie carrying the auth token for browser clients.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c SessionCookie) name() string {
	if c.Name == "" {
		return auth.CookieName
	}
	return c.Name
}

func (c SessionCookie) set(ctx *fasthttp.RequestCtx, token string) {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	cookie.SetKey(c.name())
	cookie.SetValue(token)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(c.Secure)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetMaxAge(int(ttl / time.Second))
	ctx.Response.Header.SetCookie(cookie)
}

// clear expires the cookie. fasthttp treats MaxAge 0 as "not set", so the
// deletion is expressed through the expiry instead.
func (c SessionCookie) clear(ctx *fasthttp.RequestCtx) {
	cookie := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(cookie)

	cookie.SetKey(c.name())
	cookie.SetValue("")
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSecure(c.Secure)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	cookie.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(cookie)
}
