package journals

import "time"

// JournalStatus enumerates entry lifecycle states.
type JournalStatus string

const (
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoid   JournalStatus = "VOID"
)

// Source kinds mark which flow produced an entry.
const (
	SourceJournal  = "JOURNAL"
	SourcePayment  = "PAYMENT"
	SourceReversal = "REVERSAL"
)

// Segment is a dimension tag on a posted line, stored by id and code.
type Segment struct {
	TypeID int64  `json:"segment_type_id"`
	Code   string `json:"segment_code"`
}

// JournalLine is one posted ledger line. Amount is two-decimal text;
// the side is "DEBIT" or "CREDIT".
type JournalLine struct {
	ID       int64     `json:"id"`
	EntryID  int64     `json:"entry_id"`
	Type     string    `json:"type"`
	Amount   string    `json:"amount"`
	Segments []Segment `json:"segments"`
}

// Allocation applies part of a payment entry against an invoice.
type Allocation struct {
	ID        int64  `json:"id"`
	EntryID   int64  `json:"entry_id"`
	InvoiceID int64  `json:"invoice_id"`
	Amount    string `json:"amount"`
}

// JournalEntry is a posted GL entry.
type JournalEntry struct {
	ID          int64         `json:"id"`
	Number      int64         `json:"number"`
	Source      string        `json:"source"`
	Date        string        `json:"date"`
	CurrencyID  int64         `json:"currency_id"`
	Memo        string        `json:"memo,omitempty"`
	Status      JournalStatus `json:"status"`
	Lines       []JournalLine `json:"lines"`
	Allocations []Allocation  `json:"allocations,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
