package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/internal/infrastructure/monitor"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	storage string
}

func NewHealthHandler(mon *monitor.Monitor, storage string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		storage:     storage,
	}
}

type healthReport struct {
	Timestamp time.Time       `json:"timestamp"`
	Storage   string          `json:"storage"`
	Services  map[string]bool `json:"services"`
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	report := healthReport{
		Timestamp: time.Now().UTC(),
		Storage:   h.storage,
		Services:  status.Services,
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, report)
		return
	}
	down := make([]string, 0, len(status.Services))
	for name, ok := range status.Services {
		if !ok {
			down = append(down, name)
		}
	}
	sort.Strings(down)

	env := transport.NewError(http.StatusServiceUnavailable, "DEGRADED", "dependencies unhealthy", nil)
	env.Message = strings.Join(down, ",")
	h.respondJSON(ctx, http.StatusServiceUnavailable, env)
}
