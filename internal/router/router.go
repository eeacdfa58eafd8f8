package router

import (
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskdeck/api/handler"
	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Profile    *apiHandler.ProfileHandler
	Preference *apiHandler.PreferenceHandler
	Task       *apiHandler.TaskHandler
	Billing    *apiHandler.BillingHandler
	Webhook    *apiHandler.WebhookHandler
	Health     *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	r := router.New()
	r.NotFound = notFound
	r.MethodNotAllowed = methodNotAllowed

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	// Auth routes
	api.POST("/auth/register", handlers.Auth.Register)
	api.POST("/auth/login", handlers.Auth.Login)
	api.POST("/auth/logout", handlers.Auth.Logout)
	api.GET("/auth/me", authMiddleware(handlers.Auth.Me))

	// Provider callbacks authenticate by signature, not by user token
	api.POST("/webhooks/stripe", handlers.Webhook.Stripe)

	// Protected routes
	api.GET("/profile", authMiddleware(handlers.Profile.GetProfile))
	api.PUT("/profile", authMiddleware(handlers.Profile.UpdateProfile))
	api.DELETE("/profile", authMiddleware(handlers.Profile.DeleteAccount))

	api.GET("/preferences", authMiddleware(handlers.Preference.GetPreferences))
	api.PUT("/preferences", authMiddleware(handlers.Preference.UpdatePreferences))

	api.GET("/tasks", authMiddleware(handlers.Task.GetTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", authMiddleware(handlers.Task.ReplaceTask))
	api.PATCH("/tasks/{id}", authMiddleware(handlers.Task.PatchTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	api.GET("/subscription", authMiddleware(handlers.Billing.GetSubscription))
	api.POST("/subscription/cancel", authMiddleware(handlers.Billing.CancelSubscription))
	api.POST("/billing/checkout", authMiddleware(handlers.Billing.CreateCheckoutSession))
	api.POST("/billing/portal", authMiddleware(handlers.Billing.CreatePortalSession))

	return r
}

// Chain wraps h so the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func notFound(ctx *fasthttp.RequestCtx) {
	writeError(ctx, http.StatusNotFound, domain.ErrCodeNotFound, "Route not found")
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeError(ctx, http.StatusMethodNotAllowed, domain.ErrCodeInvalid, "Method not allowed")
}

func writeError(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBodyString(transport.NewError(status, string(code), message, nil).String())
}
