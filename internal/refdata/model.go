package refdata

// DimensionType is an analytical dimension attachable to ledger lines,
// e.g. "Cost Center" or "Project".
type DimensionType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DimensionValue is one concrete value within a dimension type.
type DimensionValue struct {
	ID     int64  `json:"id"`
	TypeID int64  `json:"segment_type"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// Currency represents a bookable currency.
type Currency struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// TaxRate represents a tax rate configuration.
type TaxRate struct {
	ID      int64   `json:"id"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Rate    float64 `json:"rate"`
	Country string  `json:"country"`
}
