package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (user.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Profile(ctx context.Context, userID string) (user.Profile, error)
}

type TokenIssuer interface {
	IssueToken(u user.User) (string, time.Time, error)
}

type AuthHandler struct {
	accounts AccountService
	tokens   TokenIssuer
}

func NewAuthHandler(accounts AccountService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	_, err := h.accounts.Register(cctx, req)
	if err != nil {
		var policy *accounts.PasswordPolicyError
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
		case errors.As(err, &policy):
			RespondError(ctx, http.StatusBadRequest, "password_policy", "Password does not meet requirements.", gin.H{"problems": policy.Problems})
		default:
			RespondInternal(ctx, "Could not create user", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	h.login(ctx, h.accounts.Authenticate)
}

// AdminLogin only issues tokens to members of the Admin role.
func (h *AuthHandler) AdminLogin(ctx *gin.Context) {
	h.login(ctx, h.accounts.AuthenticateAdmin)
}

func (h *AuthHandler) login(ctx *gin.Context, authenticate func(context.Context, string, string) (user.User, error)) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := authenticate(cctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrInvalidCredentials):
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		case errors.Is(err, accounts.ErrNotAdmin):
			RespondUnauthorized(ctx, "not_admin", "Access denied. Admins only.")
		default:
			RespondInternal(ctx, "Could not sign in", err)
		}
		return
	}

	token, _, err := h.tokens.IssueToken(u)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	claims, ok := middlewares.ClaimsFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.accounts.Logout(cctx, claims.JTI, expiresAt); err != nil {
		RespondInternal(ctx, "Could not sign out", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.accounts.Profile(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not load profile", err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}
