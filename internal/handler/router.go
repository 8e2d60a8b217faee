package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/radoslav1992/ai-help-center/internal/handler/catalog"
	"github.com/radoslav1992/ai-help-center/internal/handler/chat"
	"github.com/radoslav1992/ai-help-center/internal/handler/content"
	"github.com/radoslav1992/ai-help-center/internal/handler/image"
	"github.com/radoslav1992/ai-help-center/internal/handler/stream"
	"github.com/radoslav1992/ai-help-center/internal/handler/widget"
	"github.com/radoslav1992/ai-help-center/internal/logger"
	middlewarePkg "github.com/radoslav1992/ai-help-center/internal/middleware"
	catalogModel "github.com/radoslav1992/ai-help-center/internal/model/catalog"
	chatService "github.com/radoslav1992/ai-help-center/internal/service/chat"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

// Deps are the services behind the HTTP routes. Contacts and Projects may be
// nil when no database is configured; their routes are then not mounted.
type Deps struct {
	Chat           *chatService.Manager
	Images         image.Fetcher
	ProxyPath      string
	Contacts       content.Contacts
	Projects       content.Projects
	Offerings      catalogModel.Store
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(logger.For("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":    "ok",
				"assistant": deps.Chat.Configured(),
			})
		})

		chat.New(deps.Chat).RegisterRoutes(api)
		stream.New(deps.Chat).RegisterRoutes(api)
		widget.New(deps.Chat).RegisterRoutes(api)

		if deps.Images != nil {
			image.New(deps.Images, deps.ProxyPath).RegisterRoutes(api)
		}
		if deps.Offerings != nil {
			catalog.New(deps.Offerings).RegisterRoutes(api)
		}
		if deps.Contacts != nil && deps.Projects != nil {
			content.New(deps.Contacts, deps.Projects, deps.ProxyPath).RegisterRoutes(api)
		}
	})

	return r
}
