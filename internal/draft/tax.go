package draft

import "github.com/atlas-erp/atlas-erp/internal/refdata"

// TaxCategoryExempt is the category recorded when an item is sold or
// bought tax free.
const TaxCategoryExempt = "EXEMPT"

// TaxSelection is a tagged choice between a concrete tax rate and the
// exempt sentinel. Exactly one of the two is set; the exempt case is a
// real variant, not a magic string mixed into the rate id field.
type TaxSelection struct {
	RateID *int64 `json:"rate_id,omitempty"`
	Exempt bool   `json:"exempt,omitempty"`
}

// TaxRateID selects a tax rate by id.
func TaxRateID(id int64) TaxSelection {
	return TaxSelection{RateID: &id}
}

// TaxExempt selects the exempt variant.
func TaxExempt() TaxSelection {
	return TaxSelection{Exempt: true}
}

// None reports whether no selection has been made.
func (t TaxSelection) None() bool {
	return t.RateID == nil && !t.Exempt
}

// Rate resolves the selection to a percentage. Exempt and unset
// selections contribute a zero rate.
func (t TaxSelection) Rate(lookup refdata.Lookup) float64 {
	if t.RateID == nil {
		return 0
	}
	rate, ok := lookup.TaxRate(*t.RateID)
	if !ok {
		return 0
	}
	return rate.Rate
}

// Resolve materializes the wire representation of the selection for an
// item on an invoice issued in the given country. Exempt items carry a
// nil rate, the EXEMPT category, and default to the invoice country.
func (t TaxSelection) Resolve(lookup refdata.Lookup, invoiceCountry string) (rate *float64, country, category string) {
	if t.Exempt {
		return nil, invoiceCountry, TaxCategoryExempt
	}
	if t.RateID != nil {
		if r, ok := lookup.TaxRate(*t.RateID); ok {
			country = r.Country
			if country == "" {
				country = invoiceCountry
			}
			return &r.Rate, country, "STANDARD"
		}
	}
	return nil, invoiceCountry, ""
}

// Item is one invoice item row. Items have no debit/credit side; the
// amount is always positive and tax is a sub-attribute.
type Item struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Quantity    string       `json:"quantity"`
	UnitPrice   string       `json:"unit_price"`
	Tax         TaxSelection `json:"tax"`
}
