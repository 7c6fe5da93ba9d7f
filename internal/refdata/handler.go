package refdata

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/atlas-erp/atlas-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) ListDimensionTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.DimensionTypes(r.Context())
	if err != nil {
		h.logger.Error("list dimension types", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, types)
}

func (h *Handler) ListDimensionValues(w http.ResponseWriter, r *http.Request) {
	typeID, _ := strconv.ParseInt(r.URL.Query().Get("segment_type"), 10, 64)
	values, err := h.service.DimensionValues(r.Context(), typeID)
	if err != nil {
		h.logger.Error("list dimension values", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, values)
}

func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.Currencies(r.Context())
	if err != nil {
		h.logger.Error("list currencies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, currencies)
}

func (h *Handler) ListTaxRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.service.TaxRates(r.Context())
	if err != nil {
		h.logger.Error("list tax rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rates)
}
