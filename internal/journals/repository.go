package journals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	List(ctx context.Context) ([]JournalEntry, error)
	Get(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	InsertAllocations(ctx context.Context, entryID int64, allocations []AllocationInput) error
	GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	UpdateStatus(ctx context.Context, entryID int64, status JournalStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, number, source, date, currency_id, memo, status, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries ORDER BY number DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Number, &e.Source, &e.Date, &e.CurrencyID, &e.Memo,
			&e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	var entry JournalEntry
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryWithLines(ctx, id)
		return err
	})
	return entry, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (source, date, currency_id, memo, status)
VALUES ($1,$2,$3,$4,'POSTED') RETURNING id, number, created_at, updated_at`,
		in.Source, in.Date, in.CurrencyID, in.Memo)
	entry := JournalEntry{
		Source:     in.Source,
		Date:       in.Date,
		CurrencyID: in.CurrencyID,
		Memo:       in.Memo,
		Status:     JournalStatusPosted,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		segments, err := json.Marshal(line.Segments)
		if err != nil {
			return fmt.Errorf("journals: encode segments: %w", err)
		}
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (entry_id, type, amount, segments)
VALUES ($1,$2,$3,$4)`, entryID, line.Type, line.Amount, segments); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertAllocations(ctx context.Context, entryID int64, allocations []AllocationInput) error {
	for _, alloc := range allocations {
		_, err := r.tx.Exec(ctx, `INSERT INTO payment_allocations (entry_id, invoice_id, amount)
VALUES ($1,$2,$3)`, entryID, alloc.InvoiceID, alloc.Amount)
		if err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_payment_allocations" {
				return ErrDuplicateAllocation
			}
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID).
		Scan(&entry.ID, &entry.Number, &entry.Source, &entry.Date, &entry.CurrencyID, &entry.Memo,
			&entry.Status, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, ErrEntryNotFound
		}
		return JournalEntry{}, err
	}

	rows, err := r.tx.Query(ctx, `SELECT id, entry_id, type, amount, segments
FROM journal_lines WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		var segments []byte
		if err := rows.Scan(&line.ID, &line.EntryID, &line.Type, &line.Amount, &segments); err != nil {
			return JournalEntry{}, err
		}
		if len(segments) > 0 {
			if err := json.Unmarshal(segments, &line.Segments); err != nil {
				return JournalEntry{}, fmt.Errorf("journals: decode segments: %w", err)
			}
		}
		entry.Lines = append(entry.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return JournalEntry{}, err
	}

	allocRows, err := r.tx.Query(ctx, `SELECT id, entry_id, invoice_id, amount
FROM payment_allocations WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer allocRows.Close()
	for allocRows.Next() {
		var alloc Allocation
		if err := allocRows.Scan(&alloc.ID, &alloc.EntryID, &alloc.InvoiceID, &alloc.Amount); err != nil {
			return JournalEntry{}, err
		}
		entry.Allocations = append(entry.Allocations, alloc)
	}
	return entry, allocRows.Err()
}

func (r *txRepository) UpdateStatus(ctx context.Context, entryID int64, status JournalStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, entryID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
