package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/NishanKutu/ghumfir-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type FAQHandler struct {
	FAQs service.FAQService
}

func NewFAQHandler(faqs service.FAQService) *FAQHandler {
	return &FAQHandler{FAQs: faqs}
}

// Routes builds the /api/faqs surface. The grouped help page is
// public; entry management requires an admin.
func (h *FAQHandler) Routes(requireAuth, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.listGrouped)

	r.Group(func(admin chi.Router) {
		admin.Use(requireAuth, requireAdmin)
		admin.Get("/all", h.listAll)
		admin.Post("/", h.create)
		admin.Put("/{id}", h.update)
		admin.Delete("/{id}", h.delete)
	})

	return r
}

func (h *FAQHandler) listGrouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.FAQs.ListGrouped(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"sections": groups})
}

func (h *FAQHandler) listAll(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.FAQs.ListAll(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
}

func (h *FAQHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	faq, err := h.FAQs.CreateFAQ(r.Context(), &in)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, faq)
}

func (h *FAQHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid faq id")
		return
	}

	var in domain.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	faq, err := h.FAQs.UpdateFAQ(r.Context(), id, &in)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, faq)
}

func (h *FAQHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid faq id")
		return
	}

	if err := h.FAQs.DeleteFAQ(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
