package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/geocoder89/todolist/internal/config"
	"github.com/gin-gonic/gin"
)

const (
	UserTasksSummaryFile = "UserTasksSummary.csv"
	TasksWithOwnersFile  = "AllTasksWithOwners.csv"
)

// SendCSV renders the whole report before writing any header, so a store
// failure still produces a clean 500 instead of a truncated download.
func SendCSV(ctx *gin.Context, filename string, write func(context.Context, io.Writer) (int, error)) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if _, err := write(cctx, &buf); err != nil {
		RespondInternal(ctx, "Could not build report", err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
