package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/types"
)

// RoleHandler provides role management endpoints.
type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// RoleRouter registers role routes behind the admin guard.
func RoleRouter(r chi.Router, handler *RoleHandler, requireAuth func(http.Handler) http.Handler) {
	r.Use(requireAuth)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{roleID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Put("/", handler.Update)
		r.Patch("/status", handler.SetStatus)
		r.Delete("/", handler.Delete)
	})
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.Role
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req types.Role
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ID = id

	role, err := h.service.Update(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Status bool `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.SetStatus(r.Context(), id, req.Status); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
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

// RoleListResponse is the paginated role list payload.
type RoleListResponse struct {
	Items []types.Role `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RoleListResponse{Items: items, Page: page, Limit: limit, Total: total})
}
