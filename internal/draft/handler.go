package draft

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

// respondError maps draft errors onto problem responses. Validation
// failures are recoverable user errors, never 500s.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrDraftNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrStaleDraft):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &rejected):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Submission Rejected", rejected.Error())
	case errors.Is(err, ErrNoLines),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrTargetMismatch),
		errors.Is(err, ErrLockedLine),
		errors.Is(err, errTaxChoice):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("draft operation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) respondView(w http.ResponseWriter, view *View, err error) {
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.Create(r.Context(), CreateInput{
		Kind:           SubmissionKind(req.Kind),
		Date:           req.Date,
		CurrencyID:     req.CurrencyID,
		Memo:           req.Memo,
		Country:        req.Country,
		CounterpartyID: req.CounterpartyID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "draftID"))
	h.respondView(w, view, err)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "draftID")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.AddLine(r.Context(), chi.URLParam(r, "draftID"))
	h.respondView(w, view, err)
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveLine(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"))
	h.respondView(w, view, err)
}

func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.UpdateLineField(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"), LineField(req.Field), req.Value)
	h.respondView(w, view, err)
}

func (h *Handler) ChooseDimension(w http.ResponseWriter, r *http.Request) {
	var req chooseDimensionRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.ChooseDimension(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"), req.SegmentType)
	h.respondView(w, view, err)
}

func (h *Handler) ChooseValue(w http.ResponseWriter, r *http.Request) {
	var req chooseValueRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.ChooseValue(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"), req.Segment)
	h.respondView(w, view, err)
}

func (h *Handler) RemoveSegment(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveSegment(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "lineID"), chi.URLParam(r, "tagID"))
	h.respondView(w, view, err)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.AddItem(r.Context(), chi.URLParam(r, "draftID"))
	h.respondView(w, view, err)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "itemID"), UpdateItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	})
	h.respondView(w, view, err)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "itemID"))
	h.respondView(w, view, err)
}

func (h *Handler) SetItemTax(w http.ResponseWriter, r *http.Request) {
	var req itemTaxRequest
	if !h.decode(w, r, &req) {
		return
	}
	selection, err := req.selection()
	if err != nil {
		h.respondError(w, err)
		return
	}
	view, err := h.service.SetItemTax(r.Context(), chi.URLParam(r, "draftID"), chi.URLParam(r, "itemID"), selection)
	h.respondView(w, view, err)
}

func (h *Handler) LinkSource(w http.ResponseWriter, r *http.Request) {
	var req linkSourceRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.service.LinkSource(r.Context(), chi.URLParam(r, "draftID"), req.InvoiceID)
	var rejected *RejectedError
	if err != nil && !errors.Is(err, ErrDraftNotFound) && !errors.Is(err, ErrStaleDraft) && !errors.As(err, &rejected) {
		// A failed source fetch is a transient notice, not a server
		// fault; the draft is unchanged and the user can retry.
		h.logger.Warn("link source failed", slog.Int64("invoice_id", req.InvoiceID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Source Unavailable", "could not load invoice "+strconv.FormatInt(req.InvoiceID, 10))
		return
	}
	h.respondView(w, view, err)
}

func (h *Handler) UnlinkSource(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.UnlinkSource(r.Context(), chi.URLParam(r, "draftID"))
	h.respondView(w, view, err)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	allocations := make([]WireAllocation, 0, len(req.Allocations))
	for _, alloc := range req.Allocations {
		allocations = append(allocations, WireAllocation{
			InvoiceID:       alloc.InvoiceID,
			AmountAllocated: alloc.AmountAllocated,
		})
	}
	result, err := h.service.Submit(r.Context(), chi.URLParam(r, "draftID"), allocations)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}
