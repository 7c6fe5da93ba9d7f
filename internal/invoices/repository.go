package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-erp/atlas-erp/internal/platform/db"
	"github.com/atlas-erp/atlas-erp/internal/shared"
)

// Repository defines invoice data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
}

// TxRepository defines operations within a transaction.
type TxRepository interface {
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	CreateItem(ctx context.Context, invoiceID int64, item Item) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	NextNumber(ctx context.Context, kind Kind) (string, error)
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

const invoiceColumns = `id, kind, number, counterparty_id, currency_id, date, country, memo,
	subtotal, tax_amount, total, status, entry_lines, created_at, updated_at`

func (r *pgRepository) Get(ctx context.Context, id int64) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrInvoiceNotFound
		}
		return Invoice{}, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	inv.Items = items
	return inv, nil
}

func (r *pgRepository) listItems(ctx context.Context, invoiceID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, tax_rate, tax_country, tax_category, line_total
		FROM invoice_items WHERE invoice_id=$1 ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.TaxRate, &item.TaxCountry, &item.TaxCategory, &item.LineTotal); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	if req.Kind != "" {
		args = append(args, req.Kind)
		query += fmt.Sprintf(" AND kind=$%d", len(args))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if req.CounterpartyID != 0 {
		args = append(args, req.CounterpartyID)
		query += fmt.Sprintf(" AND counterparty_id=$%d", len(args))
	}
	query += " ORDER BY id DESC"
	if req.Limit > 0 {
		args = append(args, req.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if req.Offset > 0 {
		args = append(args, req.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (t *pgTxRepository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	entry, err := json.Marshal(inv.Entry)
	if err != nil {
		return 0, fmt.Errorf("invoices: encode entry lines: %w", err)
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO invoices (kind, number, counterparty_id, currency_id, date, country, memo,
			subtotal, tax_amount, total, status, entry_lines, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
		RETURNING id`,
		inv.Kind, inv.Number, inv.CounterpartyID, inv.CurrencyID, inv.Date, inv.Country, inv.Memo,
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.Status, entry).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("invoices: number %s: %w", inv.Number, shared.ErrConflict)
		}
		return 0, err
	}
	return id, nil
}

func (t *pgTxRepository) CreateItem(ctx context.Context, invoiceID int64, item Item) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, tax_rate, tax_country, tax_category, line_total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		invoiceID, item.Description, item.Quantity, item.UnitPrice, item.TaxRate, item.TaxCountry, item.TaxCategory, item.LineTotal)
	return err
}

func (t *pgTxRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE invoices SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// NextNumber allocates the next document number from a per-kind
// sequence, e.g. AP-000042.
func (t *pgTxRepository) NextNumber(ctx context.Context, kind Kind) (string, error) {
	seq := "ap_invoice_number_seq"
	if kind == KindAR {
		seq = "ar_invoice_number_seq"
	}
	var n int64
	if err := t.tx.QueryRow(ctx, `SELECT nextval($1)`, seq).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", kind, n), nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var entry []byte
	if err := row.Scan(&inv.ID, &inv.Kind, &inv.Number, &inv.CounterpartyID, &inv.CurrencyID,
		&inv.Date, &inv.Country, &inv.Memo, &inv.Subtotal, &inv.TaxAmount, &inv.Total,
		&inv.Status, &entry, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	if len(entry) > 0 {
		if err := json.Unmarshal(entry, &inv.Entry); err != nil {
			return Invoice{}, fmt.Errorf("invoices: decode entry lines: %w", err)
		}
	}
	return inv, nil
}
