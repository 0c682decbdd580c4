package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/gin-gonic/gin"
)

type AdminService interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	UserTasks(ctx context.Context, userID string) ([]task.Task, error)
	DeleteTasks(ctx context.Context, userID string, ids []int64) (int64, error)
	WriteUserTasksSummaryCSV(ctx context.Context, w io.Writer) (int, error)
	WriteTasksWithOwnersCSV(ctx context.Context, w io.Writer) (int, error)
}

type UserManager interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	CreateUser(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	DeleteUsers(ctx context.Context, ids []string) (int, error)
}

type AdminPages struct {
	base
	admin AdminService
	users UserManager
}

func NewAdminPages(admin AdminService, users UserManager, opts Options) *AdminPages {
	return &AdminPages{base: newBase(opts), admin: admin, users: users}
}

func (h *AdminPages) UserList(c *gin.Context) {
	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.admin.ListUsers(cctx)
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.render(c, http.StatusOK, "admin/user_list", page{Title: "Users", Data: users})
}

type userTasksView struct {
	User  user.User
	Tasks []task.Task
}

func (h *AdminPages) UserTasks(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		h.renderError(c, http.StatusNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		h.userErr(c, err)
		return
	}

	items, err := h.admin.UserTasks(cctx, userID)
	if err != nil {
		h.userErr(c, err)
		return
	}

	h.render(c, http.StatusOK, "admin/user_tasks", page{
		Title: "Tasks of " + u.FullName(),
		Data:  userTasksView{User: u, Tasks: items},
	})
}

// DeleteSelectedTasks removes the checked tasks of one user; ids that do
// not parse or belong to someone else are ignored.
func (h *AdminPages) DeleteSelectedTasks(c *gin.Context) {
	userID := c.PostForm("userId")
	if userID == "" {
		h.renderError(c, http.StatusNotFound)
		return
	}

	ids := make([]int64, 0)
	for _, raw := range c.PostFormArray("taskIds") {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if _, err := h.admin.DeleteTasks(cctx, userID, ids); err != nil {
			h.userErr(c, err)
			return
		}
	}

	c.Redirect(http.StatusFound, "/Admin/UserTasks?userId="+url.QueryEscape(userID))
}

func (h *AdminPages) AddUserForm(c *gin.Context) {
	h.render(c, http.StatusOK, "admin/add_user", page{
		Title: "Add User",
		Form:  user.CreateUserRequest{Role: user.RoleUser},
		Data:  user.Roles,
	})
}

func (h *AdminPages) AddUser(c *gin.Context) {
	var req user.CreateUserRequest

	if err := c.ShouldBind(&req); err != nil {
		p := formPage("Add User", err, &req)
		p.Data = user.Roles
		h.render(c, http.StatusOK, "admin/add_user", p)
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.users.CreateUser(cctx, req); err != nil {
		p := page{Title: "Add User", Form: req, Data: user.Roles}

		var policy *accounts.PasswordPolicyError
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			p.Errors = []string{fmt.Sprintf("Email '%s' is already taken.", req.Email)}
		case errors.As(err, &policy):
			p.Errors = policy.Problems
		default:
			h.log.ErrorContext(c.Request.Context(), "admin user creation failed", "err", err)
			p.Errors = []string{genericFailure}
		}

		h.render(c, http.StatusOK, "admin/add_user", p)
		return
	}

	c.Redirect(http.StatusFound, "/Admin/UserList")
}

// DeleteUsers deletes the checked accounts. The signed-in admin's own id is
// skipped so a session can't delete itself.
func (h *AdminPages) DeleteUsers(c *gin.Context) {
	self, _ := middlewares.UserIDFromContext(c)

	ids := make([]string, 0)
	for _, id := range c.PostFormArray("userIds") {
		if id != "" && id != self {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		cctx, cancel := config.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		n, err := h.users.DeleteUsers(cctx, ids)
		if err != nil {
			h.internalError(c, err)
			return
		}

		h.log.InfoContext(c.Request.Context(), "users deleted", "admin_id", self, "count", n)
	}

	c.Redirect(http.StatusFound, "/Admin/UserList")
}

func (h *AdminPages) DownloadUserTasksSummary(c *gin.Context) {
	handlers.SendCSV(c, handlers.UserTasksSummaryFile, h.admin.WriteUserTasksSummaryCSV)
}

func (h *AdminPages) DownloadAllTasksWithOwners(c *gin.Context) {
	handlers.SendCSV(c, handlers.TasksWithOwnersFile, h.admin.WriteTasksWithOwnersCSV)
}

func (h *AdminPages) userErr(c *gin.Context, err error) {
	if errors.Is(err, user.ErrNotFound) {
		h.renderError(c, http.StatusNotFound)
		return
	}
	h.internalError(c, err)
}
