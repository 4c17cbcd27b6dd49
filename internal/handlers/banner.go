package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/types"
)

// BannerHandler provides hero-banner endpoints.
type BannerHandler struct {
	service *services.BannerService
}

func NewBannerHandler(service *services.BannerService) *BannerHandler {
	return &BannerHandler{service: service}
}

// BannerRouter registers banner routes. Reads are public; writes sit
// behind the admin guard.
func BannerRouter(r chi.Router, handler *BannerHandler, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", handler.List)
	r.Get("/{bannerID}", handler.Get)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", handler.Create)
		r.Put("/{bannerID}", handler.Update)
		r.Delete("/{bannerID}", handler.Delete)
	})
}

func (h *BannerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bannerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	banner, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, banner)
}

func (h *BannerHandler) List(w http.ResponseWriter, r *http.Request) {
	banners, err := h.service.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	if banners == nil {
		banners = []types.HeroBanner{}
	}
	writeJSON(w, http.StatusOK, banners)
}

func (h *BannerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.HeroBanner
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	banner, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, banner)
}

func (h *BannerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bannerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.HeroBanner
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = id

	banner, err := h.service.Update(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, banner)
}

func (h *BannerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "bannerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
