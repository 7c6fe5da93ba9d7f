package invoices

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Route("/{invoiceID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/void", h.Void)
	})
}
