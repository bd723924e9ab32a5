package promotion

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-promo/internal/common"
)

// Handler exposes promotion management and preview endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the promotion endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/preview", h.Preview)
	r.Put("/{id}", h.Update)
}

// List handles GET /api/v1/promotions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, defs, "")
}

// Create handles POST /api/v1/promotions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	def, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, def, "promotion created")
}

// Update handles PUT /api/v1/promotions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	def, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, def, "promotion updated")
}

// Preview handles POST /api/v1/promotions/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in PreviewInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := h.Svc.Preview(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary, "")
}
