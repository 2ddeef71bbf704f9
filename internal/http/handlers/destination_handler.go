package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/NishanKutu/ghumfir-api/internal/domain"
	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/NishanKutu/ghumfir-api/internal/service"

	"github.com/go-chi/chi/v5"
)

// maxUploadBytes caps a multipart create/update request body.
const maxUploadBytes = 20 << 20 // 20 MiB

type DestinationHandler struct {
	Destinations service.DestinationService
}

func NewDestinationHandler(destinations service.DestinationService) *DestinationHandler {
	return &DestinationHandler{Destinations: destinations}
}

// Routes builds the /api/destinations surface. Browsing needs no
// account and only ever shows active destinations; the full catalog
// and all mutations require an admin.
func (h *DestinationHandler) Routes(requireAuth, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)

	r.Group(func(admin chi.Router) {
		admin.Use(requireAuth, requireAdmin)
		admin.Get("/all", h.listAll)
		admin.Post("/", h.create)
		admin.Put("/{id}", h.update)
		admin.Delete("/{id}", h.delete)
		admin.Delete("/{id}/images/{filename}", h.removeImage)
	})

	return r
}

// parseDestinationForm reads a multipart form carrying the destination
// fields as a JSON document under "data" plus up to five image files
// under "images".
func parseDestinationForm(r *http.Request) (*domain.DestinationInput, []*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, err
	}

	var in domain.DestinationInput
	if err := json.Unmarshal([]byte(r.FormValue("data")), &in); err != nil {
		return nil, nil, err
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			files = append(files, fh)
		}
	}
	return &in, files, nil
}

func (h *DestinationHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	destinations, err := h.Destinations.ListDestinations(r.Context(), true, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"destinations": destinations})
}

// listAll includes inactive destinations and is reachable only through
// the admin group.
func (h *DestinationHandler) listAll(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	destinations, err := h.Destinations.ListDestinations(r.Context(), false, limit, offset)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"destinations": destinations})
}

func (h *DestinationHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid destination id")
		return
	}

	destination, err := h.Destinations.GetDestination(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if destination == nil {
		response.NotFound(w, "destination not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, destination)
}

func (h *DestinationHandler) create(w http.ResponseWriter, r *http.Request) {
	in, files, err := parseDestinationForm(r)
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	destination, err := h.Destinations.CreateDestination(r.Context(), in, files)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, destination)
}

func (h *DestinationHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid destination id")
		return
	}

	in, files, err := parseDestinationForm(r)
	if err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	destination, err := h.Destinations.UpdateDestination(r.Context(), id, in, files)
	if err != nil {
		serviceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, destination)
}

func (h *DestinationHandler) removeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid destination id")
		return
	}
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		response.BadRequest(w, "missing filename")
		return
	}

	if err := h.Destinations.RemoveImage(r.Context(), id, filename); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DestinationHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		response.BadRequest(w, "invalid destination id")
		return
	}

	if err := h.Destinations.DeleteDestination(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
