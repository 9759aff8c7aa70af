// Package dashboard serves the docqa web page and its JSON and WebSocket API.
package dashboard

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ziadkadry99/docqa/internal/engine"
	"github.com/ziadkadry99/docqa/internal/logging"
)

// maxUploadBytes caps a multipart upload.
const maxUploadBytes = 32 << 20

// Dashboard provides the document list, upload, delete and ask endpoints.
type Dashboard struct {
	engine  *engine.Engine
	md      *Renderer
	timeout time.Duration
	log     *logrus.Entry
}

// New creates a new Dashboard. timeout bounds each JSON API request; zero
// means two minutes.
func New(eng *engine.Engine, timeout time.Duration) *Dashboard {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Dashboard{
		engine:  eng,
		md:      NewRenderer(),
		timeout: timeout,
		log:     logging.For("dashboard"),
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/ws/ask", d.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(d.timeout))
		r.Get("/api/documents", d.handleList)
		r.Post("/api/documents", d.handleUpload)
		r.Delete("/api/documents", d.handleDelete)
		r.Post("/api/ask", d.handleAsk)
		r.Post("/api/search", d.handleSearch)
	})
}
