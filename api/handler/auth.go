package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	authUC "github.com/fastygo/taskdeck/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc     *authUC.UseCase
	cookie SessionCookie
}

func NewAuthHandler(uc *authUC.UseCase, cookie SessionCookie, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		cookie:      cookie,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.RegisterRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	user, err := h.uc.Register(stdCtx, req.Email, req.Password, req.Name)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, transport.AuthResponse{User: user}, "Account created")
}

// @Summary Log in and receive a token
// @Tags auth
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.LoginRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	session, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	h.cookie.set(ctx, session.Token)
	expiresAt := session.ExpiresAt
	h.respondSuccess(ctx, http.StatusOK, transport.AuthResponse{
		User:      session.User,
		Token:     session.Token,
		ExpiresAt: &expiresAt,
	})
}

// @Summary Log out
// @Tags auth
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	h.cookie.clear(ctx)
	h.respondMessage(ctx, http.StatusOK, nil, "Logged out")
}

// @Summary Current user
// @Tags auth
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	user, err := h.uc.Me(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.AuthResponse{User: user})
}
