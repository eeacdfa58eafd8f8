package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
)

// Recover turns a panic anywhere below it into a logged 500 envelope.
func Recover(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						zap.String("method", string(ctx.Method())),
						zap.String("path", string(ctx.Path())),
						zap.String("panic", fmt.Sprint(rec)),
						zap.Stack("stack"),
					)
					body, _ := json.Marshal(transport.NewError(
						http.StatusInternalServerError,
						string(domain.ErrCodeInternal),
						"Internal server error",
						nil,
					))
					ctx.Response.Reset()
					ctx.Response.Header.SetContentType("application/json")
					ctx.SetStatusCode(http.StatusInternalServerError)
					ctx.SetBody(body)
				}
			}()
			next(ctx)
		}
	}
}

// AccessLog writes one line per request.
func AccessLog(logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			next(ctx)
			logger.Debug("request",
				zap.String("method", string(ctx.Method())),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", ctx.Response.StatusCode()),
				zap.String("request_id", string(ctx.Response.Header.Peek("X-Request-ID"))),
			)
		}
	}
}
