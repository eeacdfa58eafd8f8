package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	billingUC "github.com/fastygo/taskdeck/usecase/billing"
)

type BillingHandler struct {
	baseHandler
	uc *billingUC.UseCase
}

func NewBillingHandler(uc *billingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current plan and subscription
// @Tags billing
// @Router /api/v1/subscription [get]
func (h *BillingHandler) GetSubscription(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	view, err := h.uc.GetSubscription(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Cancel subscription at period end
// @Tags billing
// @Router /api/v1/subscription/cancel [post]
func (h *BillingHandler) CancelSubscription(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	sub, err := h.uc.CancelSubscription(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, sub, "Subscription will be canceled at the end of the billing period")
}

// @Summary Start a checkout session
// @Tags billing
// @Router /api/v1/billing/checkout [post]
func (h *BillingHandler) CreateCheckoutSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.CheckoutRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	session, err := h.uc.CreateCheckoutSession(stdCtx, principal.ID, req.PriceID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.URLResponse{URL: session.URL, SessionID: session.ID})
}

// @Summary Open the billing portal
// @Tags billing
// @Router /api/v1/billing/portal [post]
func (h *BillingHandler) CreatePortalSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	url, err := h.uc.CreatePortalSession(stdCtx, principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.URLResponse{URL: url})
}
