package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/internal/auth"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
)

// RequireUser resolves the caller and stores it under httpcontext.UserKey.
// Requests without a valid principal get a 401 envelope and never reach next;
// a failed user lookup gets a 500 envelope instead.
func RequireUser(resolver *auth.Resolver, adapter *httpcontext.Adapter) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			stdCtx, cancel := adapter.Attach(ctx)
			user, err := resolver.Resolve(stdCtx, ctx)
			cancel()
			switch {
			case err == nil:
			case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
				writeError(ctx, http.StatusUnauthorized, domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Message)
				return
			default:
				writeError(ctx, http.StatusInternalServerError, domain.ErrCodeInternal, "Internal server error")
				return
			}

			ctx.SetUserValue(httpcontext.UserKey, user)
			next(ctx)
		}
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	body, _ := json.Marshal(transport.NewError(status, string(code), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
