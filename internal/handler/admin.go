package handler

import (
	"embed"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed assets
var assets embed.FS

// Admin serves the built-in admin panel from the embedded assets. In dev
// mode files come from the client directory on disk instead, so the panel
// can be edited without rebuilding the server.
type Admin struct {
	devDir string
}

// NewAdmin returns the admin handler. devDir is empty outside dev mode.
func NewAdmin(devDir string) *Admin {
	return &Admin{devDir: devDir}
}

// Redirect sends /admin to /admin/ so relative asset paths resolve.
func (h *Admin) Redirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/admin/")
}

// Serve returns a panel asset by path, defaulting to the index page.
func (h *Admin) Serve(c echo.Context) error {
	name := strings.Trim(c.Param("*"), "/")
	if name == "" {
		name = "index.html"
	}
	if strings.Contains(name, "..") {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}

	var content []byte
	var err error
	if h.devDir != "" {
		content, err = os.ReadFile(filepath.Join(h.devDir, filepath.Clean(name)))
	} else {
		content, err = assets.ReadFile(path.Join("assets", name))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	return c.Blob(http.StatusOK, contentType(name, content), content)
}

// Favicon serves the embedded icon.
func (h *Admin) Favicon(c echo.Context) error {
	content, err := assets.ReadFile("assets/favicon.png")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	}
	return c.Blob(http.StatusOK, "image/png", content)
}

func contentType(name string, content []byte) string {
	switch path.Ext(name) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	default:
		return http.DetectContentType(content)
	}
}
