package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskPages struct {
	base
	tasks handlers.TaskService
	now   func() time.Time
}

func NewTaskPages(tasks handlers.TaskService, opts Options) *TaskPages {
	return &TaskPages{base: newBase(opts), tasks: tasks, now: time.Now}
}

// taskForm is the create/edit form model; DueDate stays a string so a
// rejected value is echoed back as typed.
type taskForm struct {
	ID          int64
	Title       string
	Description string
	DueDate     string
	IsActive    bool
}

func formFromTask(t task.Task) taskForm {
	return taskForm{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Format(task.DateLayout),
		IsActive:    t.IsActive,
	}
}

func formFromPost(c *gin.Context, id int64) taskForm {
	return taskForm{
		ID:          id,
		Title:       c.PostForm("Title"),
		Description: c.PostForm("Description"),
		DueDate:     c.PostForm("DueDate"),
		IsActive:    c.PostForm("IsActive") == "true",
	}
}

type taskListView struct {
	Tasks []task.Task
	Total int
}

func (h *TaskPages) Index(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	items, err := h.tasks.ListForUser(cctx, userID)
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.render(c, http.StatusOK, "tasks/index", page{
		Title: "My Tasks",
		Data:  taskListView{Tasks: items, Total: len(items)},
	})
}

func (h *TaskPages) CreateForm(c *gin.Context) {
	h.render(c, http.StatusOK, "tasks/create", page{
		Title: "Create Task",
		Form:  taskForm{DueDate: h.now().Format(task.DateLayout), IsActive: true},
	})
}

func (h *TaskPages) Create(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	var req task.CreateTaskRequest

	if err := c.ShouldBind(&req); err != nil {
		p := formPage("Create Task", err, &req)
		p.Form = formFromPost(c, 0)
		h.render(c, http.StatusOK, "tasks/create", p)
		return
	}

	if err := task.ValidateDueDate(req.DueDate, h.now()); err != nil {
		h.render(c, http.StatusOK, "tasks/create", page{
			Title:  "Create Task",
			Form:   formFromPost(c, 0),
			Fields: map[string]string{"DueDate": "The due date cannot be in the past."},
		})
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.tasks.Create(cctx, userID, req); err != nil {
		h.internalError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/Tasks/Index")
}

func (h *TaskPages) EditForm(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}

	h.render(c, http.StatusOK, "tasks/edit", page{Title: "Edit Task", Form: formFromTask(t)})
}

func (h *TaskPages) Edit(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	id, ok := h.idParam(c)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if err := c.ShouldBind(&req); err != nil {
		p := formPage("Edit Task", err, &req)
		p.Form = formFromPost(c, id)
		h.render(c, http.StatusOK, "tasks/edit", p)
		return
	}

	if err := task.ValidateDueDate(req.DueDate, h.now()); err != nil {
		h.render(c, http.StatusOK, "tasks/edit", page{
			Title:  "Edit Task",
			Form:   formFromPost(c, id),
			Fields: map[string]string{"DueDate": "The due date cannot be in the past."},
		})
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.tasks.Update(cctx, userID, id, req); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			h.renderError(c, http.StatusNotFound)
			return
		}
		h.internalError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/Tasks/Index")
}

func (h *TaskPages) Delete(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	id, ok := h.idParam(c)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deleted, err := h.tasks.Delete(cctx, userID, id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !deleted {
		h.renderError(c, http.StatusNotFound)
		return
	}

	c.Redirect(http.StatusFound, "/Tasks/Index")
}

func (h *TaskPages) Details(c *gin.Context) {
	t, ok := h.load(c)
	if !ok {
		return
	}

	h.render(c, http.StatusOK, "tasks/details", page{Title: t.Title, Data: t})
}

// load fetches the :id task of the signed-in user, rendering 404 otherwise.
func (h *TaskPages) load(c *gin.Context) (task.Task, bool) {
	userID, _ := middlewares.UserIDFromContext(c)

	id, ok := h.idParam(c)
	if !ok {
		return task.Task{}, false
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tasks.GetForUser(cctx, userID, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			h.renderError(c, http.StatusNotFound)
			return task.Task{}, false
		}
		h.internalError(c, err)
		return task.Task{}, false
	}

	return t, true
}

func (h *TaskPages) idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, http.StatusNotFound)
		return 0, false
	}
	return id, true
}
