package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/i18n"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Code          string
	Item          string
	Description   string
	Status        models.RepairStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Establishment struct {
		Name, Phone, Address, LogoURL, TicketColor string
	}
}

func render(t *testing.T, lang string, data map[string]any) (int, string) {
	t.Helper()
	ResetForTests()
	req := httptest.NewRequest(http.MethodGet, "/track/ABC", nil)
	req = req.WithContext(i18n.WithLang(req.Context(), lang))
	w := httptest.NewRecorder()
	status := http.StatusOK
	if data["View"] == nil {
		status = http.StatusNotFound
	}
	require.NoError(t, Render(w, req, status, "track.html", data))
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	return w.Code, w.Body.String()
}

func samplePage(status models.RepairStatus) *page {
	p := &page{Code: "ABCD2345", Item: "iPhone 13", Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	p.Establishment.Name = "Atelier <Fix>"
	p.Establishment.TicketColor = models.DefaultTicketColor
	return p
}

func TestRenderTimeline(t *testing.T) {
	code, body := render(t, i18n.LangFR, map[string]any{"View": samplePage(models.StatusInRepair)})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `<html lang="fr">`)
	assert.Contains(t, body, "ABCD2345")
	assert.Contains(t, body, "Atelier &lt;Fix&gt;")
	assert.Contains(t, body, `id="timeline"`)
	assert.Equal(t, 1, strings.Count(body, `class="current"`))
	assert.Equal(t, 2, strings.Count(body, `class="completed"`))
	assert.Contains(t, body, "En réparation")
	assert.NotContains(t, body, `id="cancelled"`)
}

func TestRenderCancelled(t *testing.T) {
	_, body := render(t, i18n.LangEN, map[string]any{"View": samplePage(models.StatusCancelled)})
	assert.Contains(t, body, `id="cancelled"`)
	assert.Contains(t, body, "This repair has been cancelled.")
	assert.NotContains(t, body, `id="timeline"`)
}

func TestRenderNotFound(t *testing.T) {
	code, body := render(t, i18n.LangFR, map[string]any{"View": nil, "Code": "<b>x</b>"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Code introuvable, vérifiez votre ticket.")
	assert.NotContains(t, body, "<b>x</b>")

	_, body = render(t, i18n.LangEN, map[string]any{"View": nil})
	assert.Contains(t, body, "Code not found, check your ticket.")
}

func TestRenderUnknownTemplate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	assert.Error(t, Render(w, req, http.StatusOK, "missing.html", nil))
	assert.Empty(t, w.Body.String())
}

func TestRenderEmptySearchForm(t *testing.T) {
	_, body := render(t, i18n.LangFR, map[string]any{"View": nil, "Empty": true})
	assert.NotContains(t, body, `id="not-found"`)
	assert.Contains(t, body, `name="code"`)
}
