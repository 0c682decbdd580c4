// Package web serves the cookie-authenticated HTML front end.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/geocoder89/todolist/internal/domain/task"
	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templatesFS embed.FS

const (
	layoutFile   = "templates/layout.html"
	partialsGlob = "templates/partials/*.html"
)

// Renderer is a gin render.HTMLRender: every page is parsed together with
// the shared layout and partials and looked up by its path under templates/pages
// without the extension, e.g. "tasks/index".
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	pages := map[string]*template.Template{}

	err := fs.WalkDir(templatesFS, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".html" {
			return err
		}

		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/pages/"), ".html")

		t, err := template.New(path.Base(layoutFile)).Funcs(templateFuncs()).ParseFS(templatesFS, layoutFile, partialsGlob, p)
		if err != nil {
			return fmt.Errorf("parse page %s: %w", name, err)
		}

		pages[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Renderer{pages: pages}, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("web: unknown page " + name)
	}

	return render.HTML{Template: t, Name: "layout", Data: data}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(task.DateLayout)
		},
		"markdown": renderMarkdown,
	}
}
