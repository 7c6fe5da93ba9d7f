package draft

import (
	"errors"
	"time"
)

var (
	// ErrDraftNotFound indicates the editing session does not exist
	// or has expired.
	ErrDraftNotFound = errors.New("draft: not found")
	// ErrStaleDraft indicates a concurrent save won; the caller must
	// reload and retry.
	ErrStaleDraft = errors.New("draft: modified concurrently")
	// ErrLockedLine indicates an attempt to edit a derived line.
	ErrLockedLine = errors.New("draft: line is locked")
)

// Draft is one editing session's document: the line collection, item
// rows for invoice drafts, and the per-line composer staging. It lives
// in Redis for the duration of the session and is deleted on submit or
// cancel; nothing survives across sessions.
type Draft struct {
	ID   string         `json:"id"`
	Kind SubmissionKind `json:"kind"`

	Date           string `json:"date"`
	CurrencyID     int64  `json:"currency_id"`
	Memo           string `json:"memo"`
	Country        string `json:"country,omitempty"`
	CounterpartyID int64  `json:"counterparty_id,omitempty"`

	// SourceInvoiceID is set when locked mirror lines were derived
	// from an invoice, e.g. when recording a payment against it.
	SourceInvoiceID int64 `json:"source_invoice_id,omitempty"`

	Lines    *LineCollection `json:"lines"`
	Items    []Item          `json:"items,omitempty"`
	Composer *Composer       `json:"composer,omitempty"`

	// Version guards against a stale load overwriting a newer save.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// minLinesFor returns the row floor per draft kind: GL entry contexts
// must always keep at least one line, invoice item contexts have no
// floor.
func minLinesFor(kind SubmissionKind) int {
	switch kind {
	case SubmissionJournal, SubmissionPayment:
		return 1
	default:
		return 0
	}
}

// hasLedgerLines reports whether this draft kind carries debit/credit
// lines (as opposed to item rows only).
func (d *Draft) hasLedgerLines() bool {
	return d.Kind == SubmissionJournal || d.Kind == SubmissionPayment
}
