package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/geocoder89/todolist/internal/service/admin"
	"github.com/gin-gonic/gin"
)

type UserDirectory interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	SetPassword(ctx context.Context, userID, password string) error
	DeleteUser(ctx context.Context, id string) error
}

type AdminService interface {
	UserDetails(ctx context.Context, userID string) (admin.UserDetails, error)
	DeleteTasks(ctx context.Context, userID string, ids []int64) (int64, error)
	WriteUserTasksSummaryCSV(ctx context.Context, w io.Writer) (int, error)
	WriteTasksWithOwnersCSV(ctx context.Context, w io.Writer) (int, error)
}

// UsersAdminHandler serves the admin-only /api/AccountApi/AspNetUsers and
// Reports endpoints.
type UsersAdminHandler struct {
	users UserDirectory
	admin AdminService
}

func NewUsersAdminHandler(users UserDirectory, admin AdminService) *UsersAdminHandler {
	return &UsersAdminHandler{users: users, admin: admin}
}

func (h *UsersAdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users", err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersAdminHandler) GetUser(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, ctx.Param("userId"))
	if err != nil {
		h.respondUserErr(ctx, err, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
	})
}

func (h *UsersAdminHandler) UserDetails(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	d, err := h.admin.UserDetails(cctx, ctx.Param("userId"))
	if err != nil {
		h.respondUserErr(ctx, err, "Could not load user details")
		return
	}

	ctx.JSON(http.StatusOK, d)
}

func (h *UsersAdminHandler) DeleteTasks(ctx *gin.Context) {
	var ids []int64

	if !BindJSON(ctx, &ids) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	n, err := h.admin.DeleteTasks(cctx, ctx.Param("userId"), ids)
	if err != nil {
		h.respondUserErr(ctx, err, "Could not delete tasks")
		return
	}
	if n == 0 {
		RespondNotFound(ctx, "No tasks found to delete.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *UsersAdminHandler) UpdatePassword(ctx *gin.Context) {
	var req user.UpdatePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.users.SetPassword(cctx, ctx.Param("userId"), req.Password)
	if err != nil {
		var policy *accounts.PasswordPolicyError
		if errors.As(err, &policy) {
			RespondError(ctx, http.StatusBadRequest, "password_policy", "Password does not meet requirements.", gin.H{"problems": policy.Problems})
			return
		}
		h.respondUserErr(ctx, err, "Could not update password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *UsersAdminHandler) DeleteUser(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.users.DeleteUser(cctx, ctx.Param("userId")); err != nil {
		h.respondUserErr(ctx, err, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *UsersAdminHandler) UserSummaryReport(ctx *gin.Context) {
	SendCSV(ctx, UserTasksSummaryFile, h.admin.WriteUserTasksSummaryCSV)
}

func (h *UsersAdminHandler) TaskReport(ctx *gin.Context) {
	SendCSV(ctx, TasksWithOwnersFile, h.admin.WriteTasksWithOwnersCSV)
}

func (h *UsersAdminHandler) respondUserErr(ctx *gin.Context, err error, message string) {
	if errors.Is(err, user.ErrNotFound) {
		RespondNotFound(ctx, "User not found")
		return
	}
	RespondInternal(ctx, message, err)
}
