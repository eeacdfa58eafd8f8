package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	preferenceUC "github.com/fastygo/taskdeck/usecase/preference"
)

type PreferenceHandler struct {
	baseHandler
	uc *preferenceUC.UseCase
}

func NewPreferenceHandler(uc *preferenceUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get preferences, creating defaults on first access
// @Tags preferences
// @Router /api/v1/preferences [get]
func (h *PreferenceHandler) GetPreferences(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	prefs, err := h.uc.Get(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, prefs)
}

// @Summary Update preferences
// @Tags preferences
// @Router /api/v1/preferences [put]
func (h *PreferenceHandler) UpdatePreferences(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.UpdatePreferencesRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	prefs, err := h.uc.Update(stdCtx, principal.ID, req.Patch())
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, prefs, "Preferences updated")
}
