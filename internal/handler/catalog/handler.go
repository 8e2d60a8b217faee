package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/radoslav1992/ai-help-center/internal/i18n"
	"github.com/radoslav1992/ai-help-center/internal/model/catalog"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

// Handler serves the service catalog.
type Handler struct {
	offerings catalog.Store
}

func New(offerings catalog.Store) *Handler {
	return &Handler{offerings: offerings}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.handleList)
	r.Get("/services/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, catalog.ListIn(h.offerings, language(r)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	offering, ok := h.offerings.FindByID(chi.URLParam(r, "id"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "service not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, offering.In(language(r)))
}

// language reads ?lang=, then the first Accept-Language entry.
func language(r *http.Request) i18n.Language {
	if lang, ok := i18n.Parse(r.URL.Query().Get("lang")); ok {
		return lang
	}
	accept := r.Header.Get("Accept-Language")
	if first, _, _ := strings.Cut(accept, ","); first != "" {
		tag, _, _ := strings.Cut(first, ";")
		if lang, ok := i18n.Parse(tag); ok {
			return lang
		}
	}
	return i18n.Default
}
