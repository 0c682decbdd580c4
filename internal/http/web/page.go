package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/todolist/internal/domain/user"
	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const genericFailure = "An error occurred. Please try again."

// Options carries what every page handler shares.
type Options struct {
	Log *slog.Logger
	// SecureCookies marks the session cookie Secure (production).
	SecureCookies bool
	// ExposeResetLinks sends the forgot-password form straight to the reset
	// form; without a mail transport this is how local setups finish the flow.
	ExposeResetLinks bool
}

type base struct {
	log  *slog.Logger
	opts Options
}

func newBase(opts Options) base {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	return base{log: log, opts: opts}
}

// page is the model every template receives.
type page struct {
	Title  string
	Viewer viewer
	// Errors are form level messages; Fields are keyed by form field name.
	Errors  []string
	Fields  map[string]string
	Message string
	Form    any
	Data    any
}

type viewer struct {
	SignedIn bool
	Email    string
	IsAdmin  bool
}

func viewerFrom(c *gin.Context) viewer {
	claims, ok := middlewares.ClaimsFromContext(c)
	if !ok {
		return viewer{}
	}
	return viewer{SignedIn: true, Email: claims.Email, IsAdmin: claims.HasRole(user.RoleAdmin)}
}

func (b base) render(c *gin.Context, status int, name string, p page) {
	p.Viewer = viewerFrom(c)
	c.HTML(status, name, p)
}

// formPage builds the re-render model for a failed form bind.
func formPage(title string, err error, form any) page {
	p := page{Title: title, Form: form, Fields: handlers.FormFieldErrors(err, form)}
	if msg, ok := p.Fields[""]; ok {
		p.Errors = append(p.Errors, msg)
		delete(p.Fields, "")
	}
	return p
}

type errorView struct {
	Status    int
	Message   string
	RequestID string
}

func (b base) renderError(c *gin.Context, status int) {
	msg := http.StatusText(status)
	switch status {
	case http.StatusForbidden:
		msg = "Access denied. You do not have permission to view this page."
	case http.StatusNotFound:
		msg = "The page you requested could not be found."
	case http.StatusInternalServerError:
		msg = genericFailure
	}

	rid, _ := c.Get(middlewares.CtxRequestID)
	ridStr, _ := rid.(string)

	b.render(c, status, "home/error", page{
		Title: "Error",
		Data:  errorView{Status: status, Message: msg, RequestID: ridStr},
	})
}

func (b base) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	b.renderError(c, http.StatusInternalServerError)
}

func (b base) setSession(c *gin.Context, token string, expiresAt time.Time, persistent bool) {
	maxAge := 0
	if persistent {
		maxAge = int(time.Until(expiresAt).Seconds())
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, token, maxAge, "/", "", b.opts.SecureCookies, true)
}

func (b base) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", b.opts.SecureCookies, true)
}

// localRedirect accepts only same-site paths, so ReturnUrl can't bounce
// visitors to another host.
func localRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func homeFor(c *gin.Context) string {
	if middlewares.HasRole(c, user.RoleAdmin) {
		return "/Admin/UserList"
	}
	return "/Tasks/Index"
}
