package handler

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/damon-houk/currency-widget/internal/infrastructure/view"
	"github.com/gorilla/mux"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData is what index.html renders
type pageData struct {
	State        view.State
	Dark         bool
	LastModified string
}

// PageHandler serves the page shell. Everything dynamic is fetched by the
// page script from the JSON API.
type PageHandler struct {
	view         *view.View
	lastModified time.Time
	logger       logger.Logger
}

// NewPageHandler creates a page handler. lastModified is shown in the footer.
func NewPageHandler(v *view.View, lastModified time.Time, log logger.Logger) *PageHandler {
	return &PageHandler{
		view:         v,
		lastModified: lastModified,
		logger:       logger.OrDefault(log).WithField("component", "page_handler"),
	}
}

// Index renders the widget page
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	state := h.view.State()
	data := pageData{
		State:        state,
		Dark:         state.Preferences.Theme == entity.ThemeDark,
		LastModified: h.lastModified.Format("01/02/2006 15:04:05"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error("Failed to render page", map[string]interface{}{
			"request_id": middleware.GetRequestID(r.Context()),
			"error":      err.Error(),
		})
	}
}

// RegisterRoutes registers the page route
func (h *PageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods(http.MethodGet)

	h.logger.Info("Page routes registered", map[string]interface{}{
		"routes": []string{"GET /"},
	})
}
