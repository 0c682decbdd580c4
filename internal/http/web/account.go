package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/geocoder89/todolist/internal/service/accounts"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req user.ResetPasswordRequest) error
	Profile(ctx context.Context, userID string) (user.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req user.UpdateProfileRequest) (user.User, error)
}

type AccountPages struct {
	base
	accounts AccountService
	tokens   handlers.TokenIssuer
}

func NewAccountPages(accounts AccountService, tokens handlers.TokenIssuer, opts Options) *AccountPages {
	return &AccountPages{base: newBase(opts), accounts: accounts, tokens: tokens}
}

func (h *AccountPages) RegisterForm(c *gin.Context) {
	h.render(c, http.StatusOK, "account/register", page{Title: "Register", Form: user.RegisterRequest{}})
}

func (h *AccountPages) Register(c *gin.Context) {
	var req user.RegisterRequest

	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusOK, "account/register", formPage("Register", err, &req))
		return
	}
	if req.ConfirmPassword != req.Password {
		h.render(c, http.StatusOK, "account/register", page{
			Title:  "Register",
			Form:   req,
			Fields: map[string]string{"ConfirmPassword": "The password and confirmation password do not match."},
		})
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.accounts.Register(cctx, req)
	if err != nil {
		p := page{Title: "Register", Form: req}

		var policy *accounts.PasswordPolicyError
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			p.Errors = []string{fmt.Sprintf("Email '%s' is already taken.", req.Email)}
		case errors.As(err, &policy):
			p.Errors = policy.Problems
		default:
			h.log.ErrorContext(c.Request.Context(), "registration failed", "err", err)
			p.Errors = []string{genericFailure}
		}

		h.render(c, http.StatusOK, "account/register", p)
		return
	}

	// an admin registering someone else keeps their own session
	if _, signedIn := middlewares.ClaimsFromContext(c); !signedIn {
		if err := h.signIn(c, u, false); err != nil {
			h.internalError(c, err)
			return
		}
	}

	c.Redirect(http.StatusFound, "/Home/Index")
}

func (h *AccountPages) LoginForm(c *gin.Context) {
	p := page{Title: "Log in", Form: user.LoginRequest{ReturnURL: c.Query("ReturnUrl")}}
	if c.Query("reset") != "" {
		p.Message = "Your password has been reset. Please log in."
	}

	h.render(c, http.StatusOK, "account/login", p)
}

func (h *AccountPages) Login(c *gin.Context) {
	var req user.LoginRequest

	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusOK, "account/login", formPage("Log in", err, &req))
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			h.internalError(c, err)
			return
		}

		req.Password = ""
		h.render(c, http.StatusOK, "account/login", page{
			Title:  "Log in",
			Form:   req,
			Errors: []string{"Invalid login attempt."},
		})
		return
	}

	if err := h.signIn(c, u, req.RememberMe); err != nil {
		h.internalError(c, err)
		return
	}

	fallback := "/Tasks/Index"
	if u.HasRole(user.RoleAdmin) {
		fallback = "/Admin/UserList"
	}

	c.Redirect(http.StatusFound, localRedirect(req.ReturnURL, fallback))
}

func (h *AccountPages) signIn(c *gin.Context, u user.User, persistent bool) error {
	token, expiresAt, err := h.tokens.IssueToken(u)
	if err != nil {
		return fmt.Errorf("issue session token: %w", err)
	}

	h.setSession(c, token, expiresAt, persistent)
	return nil
}

// Logout revokes the current session token, if any, and clears the cookie.
func (h *AccountPages) Logout(c *gin.Context) {
	if claims, ok := middlewares.ClaimsFromContext(c); ok {
		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}

		cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.accounts.Logout(cctx, claims.JTI, expiresAt); err != nil {
			h.log.WarnContext(c.Request.Context(), "session revocation failed", "user_id", claims.UserID, "err", err)
		}
	}

	h.clearSession(c)
	c.Redirect(http.StatusFound, middlewares.LoginPath)
}

func (h *AccountPages) ForgotPasswordForm(c *gin.Context) {
	h.render(c, http.StatusOK, "account/forgot_password", page{Title: "Forgot your password?", Form: user.ForgotPasswordRequest{}})
}

func (h *AccountPages) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest

	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusOK, "account/forgot_password", formPage("Forgot your password?", err, &req))
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	token, err := h.accounts.ForgotPassword(cctx, req.Email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		h.render(c, http.StatusOK, "account/forgot_password", page{
			Title:  "Forgot your password?",
			Form:   req,
			Errors: []string{"Invalid email address."},
		})
		return
	case err != nil:
		h.internalError(c, err)
		return
	}

	if !h.opts.ExposeResetLinks {
		h.render(c, http.StatusOK, "account/forgot_password_confirmation", page{Title: "Check your email", Data: req.Email})
		return
	}

	q := url.Values{}
	q.Set("token", token)
	q.Set("email", req.Email)
	c.Redirect(http.StatusFound, "/Account/ResetPassword?"+q.Encode())
}

func (h *AccountPages) ResetPasswordForm(c *gin.Context) {
	token, email := c.Query("token"), c.Query("email")
	if token == "" || email == "" {
		c.Redirect(http.StatusFound, "/Account/ForgotPassword")
		return
	}

	h.render(c, http.StatusOK, "account/reset_password", page{
		Title: "Reset password",
		Form:  user.ResetPasswordRequest{Email: email, Token: token},
	})
}

func (h *AccountPages) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest

	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusOK, "account/reset_password", formPage("Reset password", err, &req))
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	err := h.accounts.ResetPassword(cctx, req)
	if err != nil {
		p := page{Title: "Reset password", Form: user.ResetPasswordRequest{Email: req.Email, Token: req.Token}}

		var policy *accounts.PasswordPolicyError
		switch {
		case errors.As(err, &policy):
			p.Errors = policy.Problems
		case errors.Is(err, accounts.ErrInvalidResetToken), errors.Is(err, user.ErrNotFound):
			p.Errors = []string{"Invalid token."}
		default:
			h.internalError(c, err)
			return
		}

		h.render(c, http.StatusOK, "account/reset_password", p)
		return
	}

	c.Redirect(http.StatusFound, middlewares.LoginPath+"?reset=1")
}

type profileView struct {
	Profile user.Profile
	Saved   bool
}

func (h *AccountPages) Profile(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	cctx, cancel := config.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	p, err := h.accounts.Profile(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// account deleted under a live session
			h.clearSession(c)
			middlewares.RedirectToLogin(c)
			return
		}
		h.internalError(c, err)
		return
	}

	h.render(c, http.StatusOK, "account/profile", page{
		Title: "Profile",
		Form:  user.UpdateProfileRequest{FirstName: p.FirstName, LastName: p.LastName, Email: p.Email},
		Data:  profileView{Profile: p, Saved: c.Query("saved") != ""},
	})
}

func (h *AccountPages) UpdateProfile(c *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(c)

	var req user.UpdateProfileRequest

	if err := c.ShouldBind(&req); err != nil {
		h.render(c, http.StatusOK, "account/profile", formPage("Profile", err, &req))
		return
	}

	cctx, cancel := config.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.accounts.UpdateProfile(cctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			h.render(c, http.StatusOK, "account/profile", page{
				Title:  "Profile",
				Form:   req,
				Fields: map[string]string{"Email": "Email is already in use."},
			})
		case errors.Is(err, user.ErrNotFound):
			h.renderError(c, http.StatusNotFound)
		default:
			h.internalError(c, err)
		}
		return
	}

	// the session token carries the email; refresh it when that changed
	if claims, ok := middlewares.ClaimsFromContext(c); ok && claims.Email != u.Email {
		if err := h.signIn(c, u, false); err != nil {
			h.internalError(c, err)
			return
		}
	}

	c.Redirect(http.StatusFound, "/Account/Profile?saved=1")
}
