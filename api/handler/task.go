package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/pkg/httpcontext"
	"github.com/fastygo/taskdeck/repository"
	taskUC "github.com/fastygo/taskdeck/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks with status counts
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	args := ctx.QueryArgs()
	filter := repository.TaskFilter{
		UserID: principal.ID,
		Status: domain.TaskStatus(args.Peek("status")),
		Limit:  parseInt(string(args.Peek("limit")), 0),
		Offset: parseInt(string(args.Peek("offset")), 0),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.respondError(stdCtx, ctx, domain.NewValidationError([]domain.FieldIssue{{Path: "status", Message: "Invalid enum value"}}))
		return
	}

	list, err := h.uc.ListTasks(stdCtx, filter)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, list)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	task, err := h.uc.GetTask(stdCtx, pathParam(ctx, "id"), principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}

	created, err := h.uc.CreateTask(stdCtx, req.Task(principal.ID))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, created, "Task created")
}

// @Summary Replace task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) ReplaceTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}
	h.update(stdCtx, ctx, principal.ID, req.Replacement())
}

// @Summary Patch task
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) PatchTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	var req transport.UpdateTaskRequest
	if !h.decode(stdCtx, ctx, &req) {
		return
	}
	h.update(stdCtx, ctx, principal.ID, req.Patch())
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	principal, ok := h.principal(stdCtx, ctx)
	if !ok {
		return
	}

	id, err := h.uc.DeleteTask(stdCtx, pathParam(ctx, "id"), principal.ID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, transport.DeletedResponse{ID: id}, "Task deleted")
}

func (h *TaskHandler) update(stdCtx context.Context, ctx *fasthttp.RequestCtx, ownerID string, patch domain.TaskPatch) {
	updated, err := h.uc.UpdateTask(stdCtx, pathParam(ctx, "id"), ownerID, patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, updated, "Task updated")
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil && v >= 0 {
		return v
	}
	return fallback
}
