package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-promo/internal/common"
)

// Handler exposes cart endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the cart endpoints. write wraps every mutating route.
func (h *Handler) Routes(r chi.Router, write ...func(http.Handler) http.Handler) {
	w := r.With(write...)
	w.Post("/", h.Create)
	r.Route("/{cartId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/summary", h.Summary)
		w := r.With(write...)
		w.Delete("/", h.Clear)
		w.Post("/items", h.AddItem)
		w.Delete("/items/{productId}", h.RemoveItem)
	})
}

// Create handles POST /api/v1/carts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Create(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, c, "Cart created successfully")
}

// Get handles GET /api/v1/carts/{cartId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c, "Cart retrieved successfully")
}

// AddItem handles POST /api/v1/carts/{cartId}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in AddItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "cartId"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, item, "Item added to cart successfully")
}

// Summary handles GET /api/v1/carts/{cartId}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Svc.Summary(r.Context(), chi.URLParam(r, "cartId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, summary, "Cart summary retrieved successfully")
}

// RemoveItem handles DELETE /api/v1/carts/{cartId}/items/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "cartId"), chi.URLParam(r, "productId")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, nil, "Item removed from cart successfully")
}

// Clear handles DELETE /api/v1/carts/{cartId}.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Clear(r.Context(), chi.URLParam(r, "cartId")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, nil, "Cart cleared successfully")
}
