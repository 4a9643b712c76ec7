// Package view renders the server-side HTML pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/diewo77/go-repairs/i18n"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/timeline"
)

//go:embed templates/*.html
var embedded embed.FS

var (
	files fs.FS = mustSub(embedded, "templates")
	dev   bool

	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(r *http.Request) string { return i18n.LangFrom(r.Context()) }
)

func mustSub(f fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// SetLangResolver overrides how the page language is picked.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetDev serves templates from dir and reparses them on every request.
func SetDev(dir string) {
	files = os.DirFS(dir)
	dev = true
	ResetForTests()
}

// ResetForTests clears the parsed template cache.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
}

// Funcs returns the helpers available to every template.
func Funcs(r *http.Request) template.FuncMap {
	lang := langResolver(r)
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		"year": func() int { return time.Now().Year() },
		// steps never fails in a template; unknown statuses render no timeline
		"steps": func(s models.RepairStatus) []timeline.Step {
			st, err := timeline.ComputeSteps(s)
			if err != nil {
				return nil
			}
			return st
		},
		"cancelled": timeline.IsCancelled,
		"progress": func(s models.RepairStatus) int {
			return int(timeline.Progress(s) * 100)
		},
		"statusLabel": func(s models.RepairStatus) string { return i18n.T(lang, "status."+string(s)) },
		"date": func(t time.Time) string {
			if lang == i18n.LangEN {
				return t.Format("Jan 2, 2006 15:04")
			}
			return t.Format("02/01/2006 15:04")
		},
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Render executes page name inside layout.html with status.
// Output is buffered so a template error never leaves a half-written page.
func Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Year"]; !ok {
		data["Year"] = time.Now().Year()
	}
	t, err := lookup(name, r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// lookup parses layout + page. Funcs capture the request language, so parsed
// templates are cached per language.
func lookup(name string, r *http.Request) (*template.Template, error) {
	key := langResolver(r) + ":" + name
	if !dev {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := template.New("layout.html").Funcs(Funcs(r)).ParseFS(files, "layout.html", name)
	if err != nil {
		return nil, err
	}
	if !dev {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	return t, nil
}
