package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lostpaws/pawserver/internal/store"
)

// Home serves the landing page: a plain HTML overview of the available
// services and the seeded collections.
type Home struct {
	store *store.Store
}

func NewHome(s *store.Store) *Home {
	return &Home{store: s}
}

func (h *Home) Index(c echo.Context) error {
	collections := h.store.Collections()
	sort.Strings(collections)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Practice Server</title></head><body>")
	b.WriteString("<h1>Practice Server</h1>")
	b.WriteString("<p>This is a mock REST service for front-end exercises. Everything lives in memory and resets on restart.</p>")
	b.WriteString("<h2>Services</h2><ul>")
	b.WriteString(`<li><code>/users</code> &mdash; register, login, logout</li>`)
	b.WriteString(`<li><code>/data/:collection</code> &mdash; collection CRUD</li>`)
	b.WriteString(`<li><code>/jsonstore</code> &mdash; free-form JSON storage</li>`)
	b.WriteString(`<li><code>/util</code> &mdash; behavior flags</li>`)
	b.WriteString(`<li><a href="/admin/">Admin panel</a></li>`)
	b.WriteString("</ul><h2>Collections</h2><ul>")
	for _, name := range collections {
		b.WriteString("<li><a href=\"/data/" + name + "\">" + name + "</a></li>")
	}
	b.WriteString("</ul></body></html>")
	return c.HTML(http.StatusOK, b.String())
}
