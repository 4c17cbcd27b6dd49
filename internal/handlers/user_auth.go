package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tunebox/apiserver/internal/services"
	"github.com/tunebox/apiserver/internal/store"
	"github.com/tunebox/apiserver/types"
)

// UserAuthHandler provides the end-user vertical's HTTP endpoints.
type UserAuthHandler struct {
	service *services.UserAuthService
}

func NewUserAuthHandler(service *services.UserAuthService) *UserAuthHandler {
	return &UserAuthHandler{service: service}
}

// UserAuthRouter registers user routes. requireAuth guards the profile
// endpoints; requireAdmin guards account management and report review.
func UserAuthRouter(r chi.Router, handler *UserAuthHandler, requireAuth, requireAdmin func(http.Handler) http.Handler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/social-login", handler.SocialLogin)
	r.Post("/phone-login", handler.PhoneLogin)
	r.Post("/verify-otp", handler.VerifyOTP)
	r.Post("/resend-otp", handler.ResendOTP)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/verify-reset-otp", handler.VerifyResetOTP)
	r.Patch("/reset-password", handler.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", handler.Profile)
		r.Patch("/profile", handler.UpdateProfile)
		r.Patch("/update-password", handler.UpdatePassword)
		r.Post("/report", handler.Report)
		r.Delete("/me", handler.DeactivateSelf)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", handler.List)
		r.Get("/reports", handler.ListReports)
		r.Delete("/{userID}", handler.Deactivate)
	})
}

// UserAuthResponse pairs a signed token with the account it belongs to.
type UserAuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func (h *UserAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterUserInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.service.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserAuthResponse{Token: token, User: user})
}

func (h *UserAuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	var req services.SocialLoginInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.service.SocialLogin(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserAuthResponse{Token: token, User: user})
}

func (h *UserAuthHandler) PhoneLogin(w http.ResponseWriter, r *http.Request) {
	var req services.PhoneLoginInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.PhoneLogin(r.Context(), req); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h *UserAuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.service.VerifyOTP(r.Context(), strings.TrimSpace(req.Phone), strings.TrimSpace(req.OTP))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserAuthResponse{Token: token, User: user})
}

func (h *UserAuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResendOTP(r.Context(), strings.TrimSpace(req.Phone)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h *UserAuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ForgotPassword(r.Context(), strings.TrimSpace(req.Phone)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h *UserAuthHandler) VerifyResetOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.VerifyOTPForReset(r.Context(), strings.TrimSpace(req.Phone), strings.TrimSpace(req.OTP)); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "otp verified"})
}

func (h *UserAuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), strings.TrimSpace(req.Phone), req.Password); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *UserAuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserAuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.UpdateUserProfileInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), principal.ID, req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserAuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
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

func (h *UserAuthHandler) Report(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.UserReport
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.ReportUser(r.Context(), principal.ID, req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *UserAuthHandler) DeactivateSelf(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.service.Deactivate(r.Context(), principal.ID); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UserListResponse is the paginated user list payload.
type UserListResponse struct {
	Items []types.User `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

func (h *UserAuthHandler) List(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, UserListResponse{Items: items, Page: page, Limit: limit, Total: total})
}

// ReportListResponse is the paginated report list payload.
type ReportListResponse struct {
	Items []types.UserReport `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int                `json:"total"`
}

func (h *UserAuthHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.ListReports(r.Context(), offset, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportListResponse{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *UserAuthHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
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
