// Package image serves the image proxy and the candidate listing.
package image

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/radoslav1992/ai-help-center/internal/logger"
	imageService "github.com/radoslav1992/ai-help-center/internal/service/image"
	"github.com/radoslav1992/ai-help-center/pkg/utils"
)

const cacheControl = "public, max-age=86400"

// Fetcher downloads the image named by a proxy url parameter.
type Fetcher interface {
	Fetch(ctx context.Context, param string) (*imageService.Image, error)
}

// Handler serves image routes.
type Handler struct {
	fetcher   Fetcher
	proxyPath string
	log       zerolog.Logger
}

// New creates an image handler. proxyPath is the public location of the
// proxy route and is embedded in listed candidates.
func New(fetcher Fetcher, proxyPath string) *Handler {
	if proxyPath == "" {
		proxyPath = imageService.DefaultProxyPath
	}
	return &Handler{fetcher: fetcher, proxyPath: proxyPath, log: logger.For("image")}
}

// RegisterRoutes mounts the image routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/image-proxy", h.handleProxy)
	r.Get("/images/candidates", h.handleCandidates)
}

func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("url")
	if param == "" {
		utils.RespondError(w, http.StatusBadRequest, "Missing URL parameter")
		return
	}

	img, err := h.fetcher.Fetch(r.Context(), param)
	if err != nil {
		h.respondFetchError(w, param, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		h.log.Debug().Err(err).Msg("write image failed")
	}
}

func (h *Handler) respondFetchError(w http.ResponseWriter, param string, err error) {
	var statusErr *imageService.StatusError
	switch {
	case errors.Is(err, imageService.ErrInvalidURL):
		utils.RespondError(w, http.StatusBadRequest, "Invalid URL format")
	case errors.Is(err, imageService.ErrHostNotAllowed):
		utils.RespondError(w, http.StatusForbidden, "Host not allowed")
	case errors.As(err, &statusErr):
		utils.RespondError(w, statusErr.StatusCode, "Failed to fetch image: "+statusErr.StatusLine())
	case errors.Is(err, imageService.ErrEmptyImage):
		utils.RespondError(w, http.StatusInternalServerError, "Empty image data received")
	default:
		h.log.Error().Err(err).Str("url", param).Msg("image proxy failed")
		utils.RespondErrorDetails(w, http.StatusInternalServerError, "Failed to fetch image", err.Error())
	}
}

func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("w"))
	height, _ := strconv.Atoi(q.Get("h"))

	ref, err := imageService.NewReference(q.Get("url"),
		imageService.WithProxyPath(h.proxyPath),
		imageService.WithSize(width, height),
	)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid URL format")
		return
	}
	utils.RespondJSON(w, http.StatusOK, ref)
}
