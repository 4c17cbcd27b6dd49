package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

const (
	maxUploadMemory = 32 << 20
	maxUploadBytes  = 512 << 20
	formFieldFile   = "file"
)

// UploadHandler provides file upload and management endpoints.
type UploadHandler struct {
	service *services.UploadService
}

func NewUploadHandler(service *services.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadRouter registers upload routes behind the admin guard.
func UploadRouter(r chi.Router, handler *UploadHandler, requireAuth func(http.Handler) http.Handler) {
	r.Use(requireAuth)
	r.Post("/", handler.Upload)
	r.Get("/", handler.List)
	r.Route("/{fileID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Delete("/", handler.Delete)
	})
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldFile]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	uploaded := make([]types.UploadedFile, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload")
			return
		}

		result, err := h.service.Upload(r.Context(), services.UploadInput{
			OriginalName: header.Filename,
			MimeType:     header.Header.Get("Content-Type"),
			Size:         header.Size,
			Body:         file,
			UploadedBy:   principal.ID,
		})
		_ = file.Close()
		if err != nil {
			writeAppError(w, err)
			return
		}
		uploaded = append(uploaded, result)
	}

	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "fileID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// FileListResponse is the paginated file list payload.
type FileListResponse struct {
	Items []types.UploadedFile `json:"items"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}

func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.FileFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("uploaded_by")); raw != "" {
		uploadedBy, err := strconv.Atoi(raw)
		if err != nil || uploadedBy < 1 {
			writeError(w, http.StatusBadRequest, "invalid uploaded_by")
			return
		}
		filter.UploadedBy = uploadedBy
	}

	items, total, err := h.service.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "fileID")
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
