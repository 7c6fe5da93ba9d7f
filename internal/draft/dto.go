package draft

import "errors"

// errTaxChoice guards the tagged tax selection: a request must pick a
// rate id or the exempt variant, never both.
var errTaxChoice = errors.New("draft: choose either a tax rate or exempt")

type createDraftRequest struct {
	Kind           string `json:"kind" validate:"required,oneof=JOURNAL PAYMENT AP_INVOICE AR_INVOICE"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	CurrencyID     int64  `json:"currency_id" validate:"required"`
	Memo           string `json:"memo"`
	Country        string `json:"country"`
	CounterpartyID int64  `json:"counterparty_id"`
}

type updateLineRequest struct {
	Field string `json:"field" validate:"required,oneof=kind amount description"`
	Value string `json:"value"`
}

type chooseDimensionRequest struct {
	SegmentType int64 `json:"segment_type" validate:"required"`
}

type chooseValueRequest struct {
	Segment int64 `json:"segment" validate:"required"`
}

type updateItemRequest struct {
	Description *string `json:"description"`
	Quantity    *string `json:"quantity"`
	UnitPrice   *string `json:"unit_price"`
}

type itemTaxRequest struct {
	RateID *int64 `json:"rate_id"`
	Exempt bool   `json:"exempt"`
}

func (r itemTaxRequest) selection() (TaxSelection, error) {
	if r.Exempt == (r.RateID != nil) {
		return TaxSelection{}, errTaxChoice
	}
	if r.Exempt {
		return TaxExempt(), nil
	}
	return TaxRateID(*r.RateID), nil
}

type linkSourceRequest struct {
	InvoiceID int64 `json:"invoice_id" validate:"required"`
}

type allocationRequest struct {
	InvoiceID       int64  `json:"invoice_id" validate:"required"`
	AmountAllocated string `json:"amount_allocated" validate:"required"`
}

type submitRequest struct {
	Allocations []allocationRequest `json:"allocations" validate:"omitempty,dive"`
}
