package draft

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{draftID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
		r.Post("/submit", h.Submit)

		r.Post("/lines", h.AddLine)
		r.Route("/lines/{lineID}", func(r chi.Router) {
			r.Patch("/", h.UpdateLine)
			r.Delete("/", h.RemoveLine)
			r.Post("/segment-type", h.ChooseDimension)
			r.Post("/segment-value", h.ChooseValue)
			r.Delete("/segments/{tagID}", h.RemoveSegment)
		})

		r.Post("/items", h.AddItem)
		r.Route("/items/{itemID}", func(r chi.Router) {
			r.Patch("/", h.UpdateItem)
			r.Delete("/", h.RemoveItem)
			r.Put("/tax", h.SetItemTax)
		})

		r.Post("/source", h.LinkSource)
		r.Delete("/source", h.UnlinkSource)
	})
}
