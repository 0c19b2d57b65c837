package irrigation

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/oshokin/irrigation/internal/logger"
)

//go:embed web/index.html.tmpl
var webFS embed.FS

//nolint:gochecknoglobals // Parsed once from the embedded file system.
var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html.tmpl"))

// indexData feeds the dashboard template.
type indexData struct {
	// ServerTime seeds the page clock.
	ServerTime string
}

// index serves the dashboard that drives the legacy routes.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := indexData{
		ServerTime: h.controller.Snapshot().Time.Format(time.RFC3339),
	}

	if err := indexTemplate.Execute(w, data); err != nil {
		logger.ErrorKV(r.Context(), "Failed to render dashboard", "error", err)
	}
}
