package refdata

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	types      []DimensionType
	values     []DimensionValue
	currencies []Currency
	rates      []TaxRate
	calls      map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		types: []DimensionType{
			{ID: 1, Name: "Cost Center"},
			{ID: 2, Name: "Project"},
		},
		values: []DimensionValue{
			{ID: 10, TypeID: 1, Code: "CC-100", Name: "Head Office"},
			{ID: 11, TypeID: 1, Code: "CC-200", Name: "Plant"},
			{ID: 20, TypeID: 2, Code: "PRJ-1", Name: "Apollo"},
		},
		currencies: []Currency{{ID: 1, Code: "USD", Name: "US Dollar"}},
		rates:      []TaxRate{{ID: 5, Code: "VAT10", Name: "VAT 10%", Rate: 10, Country: "DE"}},
		calls:      map[string]int{},
	}
}

func (f *fakeRepo) ListDimensionTypes(ctx context.Context) ([]DimensionType, error) {
	f.calls["types"]++
	return f.types, nil
}

func (f *fakeRepo) ListDimensionValues(ctx context.Context, typeID int64) ([]DimensionValue, error) {
	f.calls["values"]++
	if typeID == 0 {
		return f.values, nil
	}
	var out []DimensionValue
	for _, v := range f.values {
		if v.TypeID == typeID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListCurrencies(ctx context.Context) ([]Currency, error) {
	f.calls["currencies"]++
	return f.currencies, nil
}

func (f *fakeRepo) ListTaxRates(ctx context.Context) ([]TaxRate, error) {
	f.calls["rates"]++
	return f.rates, nil
}

func newCachedService(t *testing.T) (*Service, *fakeRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := newFakeRepo()
	return NewService(repo, client, 10*time.Minute, nil), repo, mr
}

func TestServiceCachesLists(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	first, err := svc.DimensionTypes(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.DimensionTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls["types"], "second read is served from cache")
}

func TestServiceDimensionValuesFiltersClientSide(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	costCenters, err := svc.DimensionValues(ctx, 1)
	require.NoError(t, err)
	require.Len(t, costCenters, 2)

	projects, err := svc.DimensionValues(ctx, 2)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "PRJ-1", projects[0].Code)

	require.Equal(t, 1, repo.calls["values"], "one full fetch serves every filter")
}

func TestServiceLookupSnapshot(t *testing.T) {
	svc, _, _ := newCachedService(t)
	ctx := context.Background()

	lookup, err := svc.Lookup(ctx)
	require.NoError(t, err)

	name, ok := lookup.DimensionName(1)
	require.True(t, ok)
	require.Equal(t, "Cost Center", name)

	id, ok := lookup.DimensionIDByName("Project")
	require.True(t, ok)
	require.Equal(t, int64(2), id)

	_, ok = lookup.DimensionIDByName("Renamed Dimension")
	require.False(t, ok)

	rate, ok := lookup.TaxRate(5)
	require.True(t, ok)
	require.InDelta(t, 10.0, rate.Rate, 0.0001)

	require.Equal(t, []int64{1, 2}, lookup.DimensionTypeIDs())
}

func TestServiceInvalidateForcesRefetch(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()

	_, err := svc.Currencies(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))

	repo.currencies = append(repo.currencies, Currency{ID: 2, Code: "EUR", Name: "Euro"})
	refreshed, err := svc.Currencies(ctx)
	require.NoError(t, err)
	require.Len(t, refreshed, 2)
	require.Equal(t, 2, repo.calls["currencies"])
}

func TestServiceCacheExpiry(t *testing.T) {
	svc, repo, mr := newCachedService(t)
	ctx := context.Background()

	_, err := svc.TaxRates(ctx)
	require.NoError(t, err)

	mr.FastForward(time.Hour)

	_, err = svc.TaxRates(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls["rates"])
}

func TestServiceWorksWithoutCache(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, 0, nil)

	lookup, err := svc.Lookup(context.Background())
	require.NoError(t, err)

	value, ok := lookup.Value(10)
	require.True(t, ok)
	require.Equal(t, "CC-100", value.Code)
}
