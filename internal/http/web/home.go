package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/todolist/internal/http/handlers"
	"github.com/geocoder89/todolist/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type HomePages struct {
	base
}

func NewHomePages(opts Options) *HomePages {
	return &HomePages{base: newBase(opts)}
}

// Index sends signed-in visitors to their role's landing page.
func (h *HomePages) Index(c *gin.Context) {
	if _, ok := middlewares.ClaimsFromContext(c); ok {
		c.Redirect(http.StatusFound, homeFor(c))
		return
	}

	h.render(c, http.StatusOK, "home/index", page{Title: "Home"})
}

func (h *HomePages) Privacy(c *gin.Context) {
	h.render(c, http.StatusOK, "home/privacy", page{Title: "Privacy Policy"})
}

func (h *HomePages) Error(c *gin.Context) {
	status, err := strconv.Atoi(c.Query("status"))
	if err != nil || status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	h.renderError(c, status)
}

// NotFound answers unmatched routes: JSON under /api, the error page elsewhere.
func (h *HomePages) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		handlers.RespondNotFound(c, "Route not found")
		return
	}
	h.renderError(c, http.StatusNotFound)
}
