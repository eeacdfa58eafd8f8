package client_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/internal/app"
	"github.com/fastygo/taskdeck/internal/auth"
	"github.com/fastygo/taskdeck/internal/billing"
	"github.com/fastygo/taskdeck/pkg/client"
	"github.com/fastygo/taskdeck/repository/memory"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "https://taskdeck.test",
		Audience: "https://taskdeck.test",
	})
	require.NoError(t, err)
	store := memory.NewStore()
	a := app.New(app.Repositories{
		Users:         store.Users(),
		Tasks:         store.Tasks(),
		Preferences:   store.Preferences(),
		Subscriptions: store.Subscriptions(),
	}, app.Options{
		Tokens:  tokens,
		Gateway: billing.NewStripeGateway("", "", billing.PlanCatalog{}),
	})

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: a.Handler}
	go func() { _ = server.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })

	return client.New("http://taskdeck.test", client.WithDialer(func(string) (net.Conn, error) {
		return ln.Dial()
	}))
}

func TestClient_AuthAndTasks(t *testing.T) {
	t.Parallel()
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Me(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	user, err := c.Register(ctx, transport.RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	session, err := c.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.Token, c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	status := string(domain.TaskStatusInProgress)
	task, err := c.CreateTask(ctx, transport.CreateTaskRequest{Title: "Ship SDK", Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)

	_, err = c.CreateTask(ctx, transport.CreateTaskRequest{Title: "Write docs"})
	require.NoError(t, err)

	list, err := c.ListTasks(ctx, client.TaskQuery{Status: domain.TaskStatusInProgress})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, 2, list.Total)

	title := "Ship SDK v2"
	updated, err := c.UpdateTask(ctx, task.ID, transport.UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

	deleted, err := c.DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, deleted)

	_, err = c.GetTask(ctx, task.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Task not found", apiErr.Message)
}

func TestClient_ValidationDetails(t *testing.T) {
	t.Parallel()
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Register(ctx, transport.RegisterRequest{Email: "not-an-email", Password: "123"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Len(t, apiErr.Details, 3)
}

func TestClient_Preferences(t *testing.T) {
	t.Parallel()
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Register(ctx, transport.RegisterRequest{Email: "a@b.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	_, err = c.Login(ctx, "a@b.com", "secret1")
	require.NoError(t, err)

	prefs, err := c.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeSystem, prefs.Theme)

	theme := domain.ThemeDark
	prefs, err = c.UpdatePreferences(ctx, transport.UpdatePreferencesRequest{Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, prefs.Theme)

	require.NoError(t, c.Logout(ctx))
}
