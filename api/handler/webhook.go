package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	appLogger "github.com/fastygo/taskdeck/pkg/logger"
	billingUC "github.com/fastygo/taskdeck/usecase/billing"
)

// StripeSignatureHeader carries the provider's payload signature.
const StripeSignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	baseHandler
	uc *billingUC.UseCase
}

func NewWebhookHandler(uc *billingUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Receive billing provider events
// @Tags webhooks
// @Router /api/v1/webhooks/stripe [post]
func (h *WebhookHandler) Stripe(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	signature := string(ctx.Request.Header.Peek(StripeSignatureHeader))
	if signature == "" {
		h.reject(ctx, "Missing signature")
		return
	}

	// The signature covers the exact bytes received, so the body is passed through untouched.
	payload := append([]byte(nil), ctx.PostBody()...)

	if err := h.uc.HandleWebhook(stdCtx, payload, signature); err != nil {
		log := appLogger.FromContext(stdCtx, h.logger)
		if errors.Is(err, billingUC.ErrInvalidSignature) {
			log.Warn("webhook rejected", zap.Error(err))
			h.reject(ctx, "Invalid signature")
			return
		}
		log.Error("webhook processing failed", zap.Error(err))
		h.reject(ctx, "Webhook handler failed")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.WebhookAck{Received: true})
}

func (h *WebhookHandler) reject(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(http.StatusBadRequest, string(domain.ErrCodeInvalid), message, nil))
}
