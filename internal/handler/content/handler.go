// Package content serves the contact form, email sign-ups and the portfolio.
package content

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	"github.com/radoslav1992/ai-help-center/internal/model/contact"
	"github.com/radoslav1992/ai-help-center/internal/model/portfolio"
	"github.com/radoslav1992/ai-help-center/internal/repository"
	"github.com/radoslav1992/ai-help-center/internal/service/image"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

// Contacts stores contact form entries and sign-ups.
type Contacts interface {
	CreateSubmission(ctx context.Context, s *contact.Submission) error
	CreateSubscription(ctx context.Context, s *contact.Subscription) error
}

// Projects lists portfolio entries.
type Projects interface {
	List(ctx context.Context) ([]portfolio.Project, error)
	Featured(ctx context.Context) ([]portfolio.Project, error)
}

// Handler serves contact submissions, subscriptions and the portfolio.
type Handler struct {
	contacts  Contacts
	projects  Projects
	proxyPath string
	log       zerolog.Logger
}

// New creates a content handler. proxyPath is used for the image
// candidates attached to listed projects.
func New(contacts Contacts, projects Projects, proxyPath string) *Handler {
	return &Handler{
		contacts:  contacts,
		projects:  projects,
		proxyPath: proxyPath,
		log:       logger.For("content"),
	}
}

// RegisterRoutes mounts the content routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.handleContact)
	r.Post("/subscriptions", h.handleSubscribe)
	r.Get("/portfolio", h.handlePortfolio)
	r.Get("/portfolio/featured", h.handleFeatured)
}

type result struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

func fail(w http.ResponseWriter, status int, msg string) {
	utils.RespondJSON(w, status, result{Error: msg})
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	if err := utils.DecodeJSON(r, &sub); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	sub.ID = ""
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contacts.CreateSubmission(r.Context(), &sub); err != nil {
		h.log.Error().Err(err).Msg("store contact submission failed")
		fail(w, http.StatusInternalServerError, "Failed to submit contact form")
		return
	}

	h.log.Info().Str("id", sub.ID).Str("service", sub.Service).Msg("contact submission stored")
	utils.RespondJSON(w, http.StatusCreated, result{Success: true, ID: sub.ID})
}

// subscribeRequest accepts both sourceId and source_id.
type subscribeRequest struct {
	Email          string `json:"email"`
	SourceID       string `json:"sourceId"`
	LegacySourceID string `json:"source_id"`
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	sub := contact.Subscription{Email: req.Email, SourceID: req.SourceID}
	if sub.SourceID == "" {
		sub.SourceID = req.LegacySourceID
	}
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contacts.CreateSubscription(r.Context(), &sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fail(w, http.StatusConflict, "Email is already subscribed")
			return
		}
		h.log.Error().Err(err).Msg("store subscription failed")
		fail(w, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, result{Success: true, ID: sub.ID})
}

func (h *Handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	h.respondProjects(w, r, "list", h.projects.List)
}

func (h *Handler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	h.respondProjects(w, r, "featured", h.projects.Featured)
}

// respondProjects answers with an empty list when the query fails so the
// page can still render.
func (h *Handler) respondProjects(w http.ResponseWriter, r *http.Request, name string, query func(context.Context) ([]portfolio.Project, error)) {
	projects, err := query(r.Context())
	if err != nil {
		h.log.Error().Err(err).Str("query", name).Msg("portfolio query failed")
		projects = nil
	}
	if projects == nil {
		projects = []portfolio.Project{}
	}

	utils.RespondJSON(w, http.StatusOK, portfolio.WithImageCandidates(projects, image.WithProxyPath(h.proxyPath)))
}
