package refdata

import "sort"

// Lookup is an immutable snapshot of reference data handed to callers
// that need to resolve ids to display names without touching storage.
// It is built per request and never shared as mutable global state.
type Lookup struct {
	dimensionNames map[int64]string
	dimensionIDs   map[string]int64
	values         map[int64]DimensionValue
	currencies     map[int64]Currency
	taxRates       map[int64]TaxRate
}

// NewLookup indexes the supplied reference lists.
func NewLookup(types []DimensionType, values []DimensionValue, currencies []Currency, rates []TaxRate) Lookup {
	l := Lookup{
		dimensionNames: make(map[int64]string, len(types)),
		dimensionIDs:   make(map[string]int64, len(types)),
		values:         make(map[int64]DimensionValue, len(values)),
		currencies:     make(map[int64]Currency, len(currencies)),
		taxRates:       make(map[int64]TaxRate, len(rates)),
	}
	for _, t := range types {
		l.dimensionNames[t.ID] = t.Name
		l.dimensionIDs[t.Name] = t.ID
	}
	for _, v := range values {
		l.values[v.ID] = v
	}
	for _, c := range currencies {
		l.currencies[c.ID] = c
	}
	for _, r := range rates {
		l.taxRates[r.ID] = r
	}
	return l
}

// DimensionName resolves a dimension type id to its display name.
func (l Lookup) DimensionName(id int64) (string, bool) {
	name, ok := l.dimensionNames[id]
	return name, ok
}

// DimensionIDByName resolves a dimension display name back to its id.
// Derived-line linking joins on names across documents, so a renamed
// dimension silently fails to match here.
func (l Lookup) DimensionIDByName(name string) (int64, bool) {
	id, ok := l.dimensionIDs[name]
	return id, ok
}

// Value resolves a dimension value id.
func (l Lookup) Value(id int64) (DimensionValue, bool) {
	v, ok := l.values[id]
	return v, ok
}

// Currency resolves a currency id.
func (l Lookup) Currency(id int64) (Currency, bool) {
	c, ok := l.currencies[id]
	return c, ok
}

// TaxRate resolves a tax rate id.
func (l Lookup) TaxRate(id int64) (TaxRate, bool) {
	r, ok := l.taxRates[id]
	return r, ok
}

// DimensionTypeIDs returns all dimension type ids in ascending order,
// used to pre-seed one placeholder segment per dimension on new lines.
func (l Lookup) DimensionTypeIDs() []int64 {
	ids := make([]int64, 0, len(l.dimensionNames))
	for id := range l.dimensionNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
