package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/middleware"
	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/NishanKutu/ghumfir-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type ReviewHandler struct {
	Reviews service.ReviewService
}

func NewReviewHandler(reviews service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews}
}

// Routes builds the /api/reviews surface. Reading a destination's
// reviews is public; writing requires an account.
func (h *ReviewHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/destination/{id}", h.listByDestination)

	r.Group(func(priv chi.Router) {
		priv.Use(requireAuth)
		priv.Post("/", h.create)
		priv.Put("/{id}", h.update)
		priv.Delete("/{id}", h.delete)
	})

	return r
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)

	var in domain.ReviewInput
	var files []*multipart.FileHeader

	// Reviews arrive as either plain JSON or a multipart form with
	// attached photos.
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.BadRequest(w, "invalid multipart form")
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("data")), &in); err != nil {
			response.BadRequest(w, "invalid review JSON")
			return
		}
		if r.MultipartForm != nil {
			files = r.MultipartForm.File["images"]
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			response.BadRequest(w, "invalid JSON body")
			return
		}
	}

	review, err := h.Reviews.CreateReview(r.Context(), claims.Sub, &in, files)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) listByDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid destination id")
		return
	}
	limit, offset := parsePagination(r)

	reviews, err := h.Reviews.ListByDestination(r.Context(), id, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *ReviewHandler) update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	var patch domain.ReviewPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	role, _ := domain.ParseRole(claims.Role)
	review, err := h.Reviews.UpdateReview(r.Context(), claims.Sub, role, id, &patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid review id")
		return
	}

	role, _ := domain.ParseRole(claims.Role)
	if err := h.Reviews.DeleteReview(r.Context(), claims.Sub, role, id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
