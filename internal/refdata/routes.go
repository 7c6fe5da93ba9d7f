package refdata

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dimension-types", h.ListDimensionTypes)
	r.Get("/dimension-values", h.ListDimensionValues)
	r.Get("/currencies", h.ListCurrencies)
	r.Get("/tax-rates", h.ListTaxRates)
}
