package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// AdminAuthHandler provides the admin vertical's HTTP endpoints.
type AdminAuthHandler struct {
	service    *services.AdminAuthService
	cookieName string
	tokenTTL   time.Duration
}

func NewAdminAuthHandler(service *services.AdminAuthService, cookieName string, tokenTTL time.Duration) *AdminAuthHandler {
	return &AdminAuthHandler{service: service, cookieName: cookieName, tokenTTL: tokenTTL}
}

// AdminAuthRouter registers admin routes. Everything past login and the
// password-reset flow sits behind the strict guard.
func AdminAuthRouter(r chi.Router, handler *AdminAuthHandler, requireAuth func(http.Handler) http.Handler) {
	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Patch("/reset-password/{token}", handler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/register", handler.Register)
		r.Get("/me", handler.Me)
		r.Patch("/me", handler.UpdateMe)
		r.Patch("/update-password", handler.UpdatePassword)
		r.Get("/permissions", handler.Permissions)
		r.Get("/", handler.List)
		r.Put("/{adminID}", handler.Update)
		r.Delete("/{adminID}", handler.Deactivate)
	})
}

// AdminAuthResponse pairs a signed token with the account it belongs to
// and the permission set of its role.
type AdminAuthResponse struct {
	Token       string              `json:"token"`
	Admin       types.Admin         `json:"admin"`
	Permissions types.PermissionSet `json:"permissions"`
}

func (h *AdminAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterAdminInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, permissions, token, err := h.service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}

	h.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, AdminAuthResponse{Token: token, Admin: admin, Permissions: permissions})
}

func (h *AdminAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	admin, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminAuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.UpdateProfileInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.service.UpdateProfile(r.Context(), principal.ID, req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminAuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdatePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *AdminAuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.service.ForgotPassword(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "reset token issued",
		"reset_token": token,
	})
}

func (h *AdminAuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.service.ResetPassword(r.Context(), token, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminAuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	permissions, err := h.service.Permissions(r.Context(), principal.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, permissions)
}

// AdminListResponse is the paginated admin list payload.
type AdminListResponse struct {
	Items []types.Admin `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

func (h *AdminAuthHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ListFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	items, total, err := h.service.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdminListResponse{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *AdminAuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "adminID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.Admin
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = id

	admin, err := h.service.UpdateAdmin(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *AdminAuthHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "adminID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	if h.cookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
