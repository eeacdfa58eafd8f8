package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/internal/validate"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	appLogger "github.com/fastygo/taskdeck/pkg/logger"
)

const internalErrorMessage = "Internal server error"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(transport.NewError(status, string(domain.ErrCodeInternal), internalErrorMessage, nil))
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data any) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, ""))
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, status int, data any, message string) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, message))
}

// respondError converts err into the failure envelope. Internal failures are logged
// with the request id and reach the client only as a generic message.
func (h baseHandler) respondError(reqCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		appLogger.FromContext(reqCtx, h.logger).Error("request failed",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
	}
	h.respondJSON(ctx, status, transport.NewError(status, code, message, details))
}

// decode parses and validates the body, responding with 400 on failure.
func (h baseHandler) decode(reqCtx context.Context, ctx *fasthttp.RequestCtx, dst any) bool {
	if err := validate.Decode(ctx.PostBody(), dst); err != nil {
		h.respondError(reqCtx, ctx, err)
		return false
	}
	return true
}

// principal returns the user stored by the auth middleware.
func (h baseHandler) principal(reqCtx context.Context, ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	user, ok := ctx.UserValue(httpcontext.UserKey).(*domain.User)
	if !ok || user == nil {
		h.respondError(reqCtx, ctx, domain.ErrUnauthorized)
		return nil, false
	}
	return user, true
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return value
}

func mapError(err error) (status int, code, message string, details []domain.FieldIssue) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, string(domain.ErrCodeInvalid), "Validation failed", vErr.Issues
	}

	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, string(domain.ErrCodeInternal), internalErrorMessage, nil
	}

	switch dErr.Code {
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(dErr.Code), dErr.Message, nil
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, string(dErr.Code), dErr.Message, nil
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(dErr.Code), dErr.Message, nil
	case domain.ErrCodeInvalid, domain.ErrCodeConflict:
		return http.StatusBadRequest, string(dErr.Code), dErr.Message, nil
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal), internalErrorMessage, nil
	}
}
