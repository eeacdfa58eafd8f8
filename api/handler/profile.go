package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	profileUC "github.com/fastygo/taskdeck/usecase/profile"
)

var errAccountDeletion = errors.New("account deletion incomplete")

type ProfileHandler struct {
	baseHandler
	uc     *profileUC.UseCase
	cookie SessionCookie
}

func NewProfileHandler(uc *profileUC.UseCase, cookie SessionCookie, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		cookie:      cookie,
	}
}

// @Summary Get profile
// @Tags profile
// @Success 200 {object} transport.Envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	user, err := h.uc.GetProfile(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.UpdateProfileRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	updated, err := h.uc.UpdateProfile(stdCtx, principal.ID, req.Patch())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, updated, "Profile updated")
}

// @Summary Delete account
// @Tags profile
// @Router /api/v1/profile [delete]
func (h *ProfileHandler) DeleteAccount(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	if !h.uc.DeleteAccount(stdCtx, principal.ID) {
		h.respondError(stdCtx, ctx, errAccountDeletion)
		return
	}
	h.cookie.clear(ctx)
	h.respondMessage(ctx, http.StatusOK, transport.DeletedResponse{ID: principal.ID}, "Account deleted")
}
