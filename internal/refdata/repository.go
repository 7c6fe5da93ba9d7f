package refdata

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for reference data.
type Repository interface {
	ListDimensionTypes(ctx context.Context) ([]DimensionType, error)
	ListDimensionValues(ctx context.Context, typeID int64) ([]DimensionValue, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	ListTaxRates(ctx context.Context) ([]TaxRate, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) ListDimensionTypes(ctx context.Context) ([]DimensionType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM dimension_types ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DimensionType
	for rows.Next() {
		var t DimensionType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListDimensionValues returns values for one dimension type, or all
// values when typeID is zero.
func (r *repository) ListDimensionValues(ctx context.Context, typeID int64) ([]DimensionValue, error) {
	query := `SELECT id, segment_type_id, code, name FROM dimension_values ORDER BY id ASC`
	args := []any{}
	if typeID != 0 {
		query = `SELECT id, segment_type_id, code, name FROM dimension_values WHERE segment_type_id=$1 ORDER BY id ASC`
		args = append(args, typeID)
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DimensionValue
	for rows.Next() {
		var v DimensionValue
		if err := rows.Scan(&v.ID, &v.TypeID, &v.Code, &v.Name); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *repository) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name FROM currencies ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) ListTaxRates(ctx context.Context) ([]TaxRate, error) {
	rows, err := r.db.Query(ctx, `SELECT id, code, name, rate, country FROM tax_rates ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TaxRate
	for rows.Next() {
		var t TaxRate
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Rate, &t.Country); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
