package draft

import "github.com/atlas-erp/atlas-erp/internal/refdata"

// SubmissionKind selects the serializer used at submit time. Each kind
// has its own explicit payload builder; they share only the common
// line mapping.
type SubmissionKind string

const (
	SubmissionJournal   SubmissionKind = "JOURNAL"
	SubmissionAPInvoice SubmissionKind = "AP_INVOICE"
	SubmissionARInvoice SubmissionKind = "AR_INVOICE"
	SubmissionPayment   SubmissionKind = "PAYMENT"
)

// WireSegment carries only ids and codes; display names stay behind.
type WireSegment struct {
	SegmentTypeID int64  `json:"segment_type_id"`
	SegmentCode   string `json:"segment_code"`
}

// WireLine is one serialized ledger line.
type WireLine struct {
	Amount   string        `json:"amount"`
	Type     LineKind      `json:"type"`
	Segments []WireSegment `json:"segments"`
}

// WireAllocation applies part of a payment against an invoice.
type WireAllocation struct {
	InvoiceID       int64  `json:"invoice_id"`
	AmountAllocated string `json:"amount_allocated"`
}

// WireItem is one serialized invoice item line.
type WireItem struct {
	Description string   `json:"description"`
	Quantity    string   `json:"quantity"`
	UnitPrice   string   `json:"unit_price"`
	TaxRate     *float64 `json:"tax_rate"`
	TaxCountry  string   `json:"tax_country"`
	TaxCategory string   `json:"tax_category"`
}

// JournalPayload is the wire format of a balanced GL posting.
type JournalPayload struct {
	Date       string     `json:"date"`
	CurrencyID int64      `json:"currency_id"`
	Memo       string     `json:"memo"`
	Lines      []WireLine `json:"lines"`
}

// PaymentPayload extends a journal posting with invoice allocations.
type PaymentPayload struct {
	JournalPayload
	Allocations []WireAllocation `json:"allocations,omitempty"`
}

// InvoicePayload is the wire format of an AP or AR invoice draft.
type InvoicePayload struct {
	Date           string     `json:"date"`
	CurrencyID     int64      `json:"currency_id"`
	Memo           string     `json:"memo"`
	CounterpartyID int64      `json:"counterparty_id"`
	Items          []WireItem `json:"items"`
}

// serializeLines maps collection lines to the wire shape. Amounts are
// normalized to two-decimal text and placeholder segments are skipped.
func serializeLines(c *LineCollection) []WireLine {
	out := make([]WireLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		wire := WireLine{
			Amount:   parseAmount(line.Amount).StringFixed(2),
			Type:     line.Kind,
			Segments: []WireSegment{},
		}
		for _, tag := range line.Segments {
			if tag.isPlaceholder() {
				continue
			}
			wire.Segments = append(wire.Segments, WireSegment{
				SegmentTypeID: tag.TypeID,
				SegmentCode:   tag.Code,
			})
		}
		out = append(out, wire)
	}
	return out
}

func serializeItems(items []Item, lookup refdata.Lookup, country string) []WireItem {
	out := make([]WireItem, 0, len(items))
	for _, item := range items {
		rate, taxCountry, category := item.Tax.Resolve(lookup, country)
		out = append(out, WireItem{
			Description: item.Description,
			Quantity:    parseAmount(item.Quantity).String(),
			UnitPrice:   parseAmount(item.UnitPrice).StringFixed(2),
			TaxRate:     rate,
			TaxCountry:  taxCountry,
			TaxCategory: category,
		})
	}
	return out
}

// SerializeJournal builds the posting payload for a journal draft.
func SerializeJournal(d *Draft) JournalPayload {
	return JournalPayload{
		Date:       d.Date,
		CurrencyID: d.CurrencyID,
		Memo:       d.Memo,
		Lines:      serializeLines(d.Lines),
	}
}

// SerializePayment builds the posting payload for a payment draft.
func SerializePayment(d *Draft, allocations []WireAllocation) PaymentPayload {
	return PaymentPayload{
		JournalPayload: SerializeJournal(d),
		Allocations:    allocations,
	}
}

// SerializeAPInvoice builds the payload for a supplier invoice draft.
func SerializeAPInvoice(d *Draft, lookup refdata.Lookup) InvoicePayload {
	return serializeInvoice(d, lookup)
}

// SerializeARInvoice builds the payload for a customer invoice draft.
func SerializeARInvoice(d *Draft, lookup refdata.Lookup) InvoicePayload {
	return serializeInvoice(d, lookup)
}

func serializeInvoice(d *Draft, lookup refdata.Lookup) InvoicePayload {
	return InvoicePayload{
		Date:           d.Date,
		CurrencyID:     d.CurrencyID,
		Memo:           d.Memo,
		CounterpartyID: d.CounterpartyID,
		Items:          serializeItems(d.Items, lookup, d.Country),
	}
}
