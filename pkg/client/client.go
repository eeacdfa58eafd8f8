// Package client is a Go SDK for the taskdeck API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
)

const defaultTimeout = 10 * time.Second

// APIError is a failure envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    []domain.FieldIssue
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []domain.FieldIssue `json:"details"`
}

// Client talks to one API base URL. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	timeout time.Duration

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithTimeout bounds requests whose context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer replaces the network dialer, e.g. with an in-memory listener in tests.
func WithDialer(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

// WithToken starts the client with an existing token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{Name: "taskdeck-go"},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Register(ctx context.Context, req transport.RegisterRequest) (*domain.User, error) {
	var out transport.AuthResponse
	if err := c.do(ctx, fasthttp.MethodPost, "/api/v1/auth/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login stores the returned token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*transport.AuthResponse, error) {
	var out transport.AuthResponse
	req := transport.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, fasthttp.MethodPost, "/api/v1/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, fasthttp.MethodPost, "/api/v1/auth/logout", nil, nil)
	c.setToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out transport.AuthResponse
	if err := c.do(ctx, fasthttp.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// TaskQuery narrows a task listing. Counts always cover every task.
type TaskQuery struct {
	Status domain.TaskStatus
	Limit  int
	Offset int
}

func (q TaskQuery) encode() string {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", string(q.Status))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (c *Client) ListTasks(ctx context.Context, query TaskQuery) (*domain.TaskList, error) {
	var out domain.TaskList
	if err := c.do(ctx, fasthttp.MethodGet, "/api/v1/tasks"+query.encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fasthttp.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, req transport.CreateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fasthttp.MethodPost, "/api/v1/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask sends a partial update.
func (c *Client) UpdateTask(ctx context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, fasthttp.MethodPatch, "/api/v1/tasks/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) (string, error) {
	var out transport.DeletedResponse
	if err := c.do(ctx, fasthttp.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Preferences(ctx context.Context) (*domain.Preferences, error) {
	var out domain.Preferences
	if err := c.do(ctx, fasthttp.MethodGet, "/api/v1/preferences", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, req transport.UpdatePreferencesRequest) (*domain.Preferences, error) {
	var out domain.Preferences
	if err := c.do(ctx, fasthttp.MethodPut, "/api/v1/preferences", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode(), Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if !env.Success {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Code:       env.Code,
			Message:    env.Error,
			Details:    env.Details,
		}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
