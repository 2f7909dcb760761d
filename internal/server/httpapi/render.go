package httpapi

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/candidates/internal/common"
	"github.com/dmitrijs2005/candidates/internal/server/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

type pages struct {
	byName map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"key":   forms.Key,
	"label": fieldLabel,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"multiline": func(name string) bool {
		return name == "cv"
	},
}

// loadPages parses every page template together with the shared layout.
func loadPages() (*pages, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	p := &pages{byName: make(map[string]*template.Template)}
	for _, name := range names {
		if name == layoutTemplate {
			continue
		}
		t, err := template.New(path.Base(name)).Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.byName[path.Base(name)] = t
	}
	return p, nil
}

func fieldLabel(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := s.pages.byName[name]
	if !ok {
		s.logger.Error(r.Context(), "unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error(r.Context(), "render template", "template", name, "error", err, "trace_id", traceIDFrom(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status int
	Text   string
}

// fail maps service errors onto HTTP statuses. Anything unexpected is
// logged and shown as a plain 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrorForbidden):
		status = http.StatusForbidden
	case errors.Is(err, common.ErrorUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err, "trace_id", traceIDFrom(r.Context()))
	} else {
		s.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	s.render(w, r, status, "error.html", errorPage{Status: status, Text: http.StatusText(status)})
}
