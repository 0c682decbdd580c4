package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskService interface {
	ListForUser(ctx context.Context, userID string) ([]task.Task, error)
	GetForUser(ctx context.Context, userID string, id int64) (task.Task, error)
	Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error)
	Update(ctx context.Context, userID string, id int64, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
}

// TasksHandler serves /api/TaskItem; every call is scoped to the bearer's user.
type TasksHandler struct {
	tasks TaskService
}

func NewTasksHandler(tasks TaskService) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

func (h *TasksHandler) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.tasks.ListForUser(cctx, userID)
	if err != nil {
		RespondInternal(ctx, "Could not list tasks", err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tasks.GetForUser(cctx, userID, id)
	if err != nil {
		respondTaskErr(ctx, err, "Could not fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Create(cctx, userID, req)
	if err != nil {
		respondTaskErr(ctx, err, "Could not create task")
		return
	}

	ctx.Header("Location", "/api/TaskItem/"+strconv.FormatInt(t.ID, 10))
	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.tasks.Update(cctx, userID, id, req); err != nil {
		respondTaskErr(ctx, err, "Could not update task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	id, ok := taskIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	deleted, err := h.tasks.Delete(cctx, userID, id)
	if err != nil {
		RespondInternal(ctx, "Could not delete task", err)
		return
	}
	if !deleted {
		RespondNotFound(ctx, "Task not found")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
	}
	return userID, ok
}

func taskIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Task id must be a positive integer", gin.H{"id": ctx.Param("id")})
		return 0, false
	}
	return id, true
}

func respondTaskErr(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, "Task not found")
	case errors.Is(err, task.ErrOwnerNotFound):
		RespondUnauthorized(ctx, "unauthorized", "Account no longer exists")
	default:
		RespondInternal(ctx, message, err)
	}
}
