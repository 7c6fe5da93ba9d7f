package invoices

import "time"

// Kind separates payables from receivables.
type Kind string

const (
	KindAP Kind = "AP"
	KindAR Kind = "AR"
)

// Status enumerates invoice lifecycle states. Invoices arrive already
// validated from the drafting flow, so they are born POSTED.
type Status string

const (
	StatusPosted Status = "POSTED"
	StatusVoid   Status = "VOID"
)

// Side marks which half of the ledger an entry line posts to.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Invoice is a posted AP or AR invoice. Monetary fields are two-decimal
// text; arithmetic happens in the service layer on decimals.
type Invoice struct {
	ID             int64       `json:"id"`
	Kind           Kind        `json:"kind"`
	Number         string      `json:"number"`
	CounterpartyID int64       `json:"counterparty_id"`
	CurrencyID     int64       `json:"currency_id"`
	Date           string      `json:"date"`
	Country        string      `json:"country"`
	Memo           string      `json:"memo,omitempty"`
	Subtotal       string      `json:"subtotal"`
	TaxAmount      string      `json:"tax_amount"`
	Total          string      `json:"total"`
	Status         Status      `json:"status"`
	Items          []Item      `json:"items"`
	Entry          []EntryLine `json:"entry"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Item is one invoice line item.
type Item struct {
	ID          int64    `json:"id"`
	InvoiceID   int64    `json:"invoice_id"`
	Description string   `json:"description"`
	Quantity    string   `json:"quantity"`
	UnitPrice   string   `json:"unit_price"`
	TaxRate     *float64 `json:"tax_rate"`
	TaxCountry  string   `json:"tax_country"`
	TaxCategory string   `json:"tax_category"`
	LineTotal   string   `json:"line_total"`
}

// EntrySegment is a dimension tag on an entry line. Only the
// denormalized type name and the value code are kept; consumers on the
// other side of the document boundary re-resolve them against their
// own reference data.
type EntrySegment struct {
	TypeName string `json:"segment_type_name"`
	Code     string `json:"segment_code"`
}

// EntryLine is one ledger line of the invoice's journal entry,
// generated at posting time.
type EntryLine struct {
	Side     Side           `json:"type"`
	Amount   string         `json:"amount"`
	Segments []EntrySegment `json:"segments"`
}

// ListRequest filters invoice listings.
type ListRequest struct {
	Kind           Kind
	Status         Status
	CounterpartyID int64
	Limit          int
	Offset         int
}
