// Package app wires repositories, use cases and handlers into one request handler.
package app

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskdeck/api/handler"
	"github.com/fastygo/taskdeck/internal/auth"
	"github.com/fastygo/taskdeck/internal/infrastructure/monitor"
	"github.com/fastygo/taskdeck/internal/middleware"
	"github.com/fastygo/taskdeck/internal/router"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	"github.com/fastygo/taskdeck/repository"
	authUC "github.com/fastygo/taskdeck/usecase/auth"
	billingUC "github.com/fastygo/taskdeck/usecase/billing"
	preferenceUC "github.com/fastygo/taskdeck/usecase/preference"
	profileUC "github.com/fastygo/taskdeck/usecase/profile"
	taskUC "github.com/fastygo/taskdeck/usecase/task"
)

// Repositories groups the storage backends selected at startup.
type Repositories struct {
	Users         repository.UserRepository
	Tasks         repository.TaskRepository
	Preferences   repository.PreferenceRepository
	Subscriptions repository.SubscriptionCache
}

// Options carries everything that is not a repository.
type Options struct {
	Tokens         *auth.TokenCodec
	Gateway        billingUC.Gateway
	Monitor        *monitor.Monitor
	AppURL         string
	StorageDriver  string
	SecureCookies  bool
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// App exposes the assembled HTTP handler and the billing use case for background jobs.
type App struct {
	Handler fasthttp.RequestHandler
	Billing *billingUC.UseCase
}

func New(repos Repositories, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mon := opts.Monitor
	if mon == nil {
		mon = monitor.New(0, logger)
	}

	adapter := httpcontext.NewAdapter(opts.RequestTimeout)
	cookie := apiHandler.SessionCookie{
		Name:   auth.CookieName,
		Secure: opts.SecureCookies,
		TTL:    opts.Tokens.TTL(),
	}

	authUseCase := authUC.New(repos.Users, opts.Tokens, logger)
	preferenceUseCase := preferenceUC.New(repos.Preferences, logger)
	profileUseCase := profileUC.New(repos.Users, repos.Tasks, repos.Preferences, repos.Subscriptions, logger)
	taskUseCase := taskUC.New(repos.Tasks, preferenceUseCase, logger)
	billingUseCase := billingUC.New(opts.Gateway, repos.Users, repos.Preferences, repos.Subscriptions, opts.AppURL, logger)

	handlers := router.Handlers{
		Auth:       apiHandler.NewAuthHandler(authUseCase, cookie, adapter, logger),
		Profile:    apiHandler.NewProfileHandler(profileUseCase, cookie, adapter, logger),
		Preference: apiHandler.NewPreferenceHandler(preferenceUseCase, adapter, logger),
		Task:       apiHandler.NewTaskHandler(taskUseCase, adapter, logger),
		Billing:    apiHandler.NewBillingHandler(billingUseCase, adapter, logger),
		Webhook:    apiHandler.NewWebhookHandler(billingUseCase, adapter, logger),
		Health:     apiHandler.NewHealthHandler(mon, opts.StorageDriver, adapter, logger),
	}

	resolver := auth.NewResolver(opts.Tokens, repos.Users, logger)
	r := router.New(handlers, middleware.RequireUser(resolver, adapter))

	return &App{
		Handler: router.Chain(r.Handler, middleware.Recover(logger), middleware.AccessLog(logger)),
		Billing: billingUseCase,
	}
}
