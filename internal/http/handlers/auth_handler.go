package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/middleware"
	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/NishanKutu/ghumfir-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Routes builds the /api/user surface. The public endpoints sit behind
// the rate limiter; profile and account management carry their own
// auth requirements.
func (h *AuthHandler) Routes(limit, requireAuth, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pub chi.Router) {
		pub.Use(limit)
		pub.Post("/register", h.register)
		pub.Post("/login", h.login)
		pub.Get("/verify/{token}", h.verifyEmail)
		pub.Post("/resend-verification", h.resendVerification)
		pub.Post("/forgetpassword", h.forgotPassword)
		pub.Post("/resetpassword/{token}", h.resetPassword)
	})

	r.Group(func(priv chi.Router) {
		priv.Use(requireAuth)
		priv.Get("/me", h.me)
		priv.Put("/me", h.updateProfile)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(requireAuth, requireAdmin)
		admin.Get("/all", h.listUsers)
		admin.Put("/{id}/role", h.toggleRole)
		admin.Delete("/{id}", h.deleteUser)
	})

	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	user, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}

	// Not signed in yet; verification comes first.
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "verification email sent",
		"user":    user.ToUserInfo(),
	})
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "missing token")
		return
	}

	user, err := h.Auth.VerifyEmail(r.Context(), token)
	if err != nil {
		serviceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "email verified",
		"user":    user.ToUserInfo(),
	})
}

func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}

	if err := h.Auth.ResendVerification(r.Context(), in.Email); err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, a verification email has been sent",
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resp, err := h.Auth.Login(r.Context(), &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		response.BadRequest(w, "email is required")
		return
	}

	if err := h.Auth.ForgotPassword(r.Context(), in.Email); err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "if the account exists, a reset email has been sent",
	})
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "missing token")
		return
	}

	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Password == "" {
		response.BadRequest(w, "password is required")
		return
	}

	if err := h.Auth.ResetPassword(r.Context(), token, in.Password); err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	user, err := h.Auth.GetUser(r.Context(), claims.Sub)
	if err != nil {
		serviceError(w, err)
		return
	}
	if user == nil {
		response.NotFound(w, "account no longer exists")
		return
	}
	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	user, err := h.Auth.UpdateProfile(r.Context(), claims.Sub, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	users, err := h.Auth.ListUsers(r.Context(), limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"users": infos})
}

func (h *AuthHandler) toggleRole(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}

	user, err := h.Auth.ToggleRole(r.Context(), claims.Sub, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid user id")
		return
	}

	if err := h.Auth.DeleteUser(r.Context(), claims.Sub, id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
