package journals

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/draft"
)

var (
	ErrEntryNotFound       = errors.New("journals: entry not found")
	ErrInvalidStatus       = errors.New("journals: invalid status for operation")
	ErrTooFewLines         = errors.New("journals: at least two lines required")
	ErrUnbalancedEntry     = errors.New("journals: entry does not balance")
	ErrDuplicateAllocation = errors.New("journals: invoice already allocated by this entry")
)

// PostingLineInput describes a line of a posting request.
type PostingLineInput struct {
	Type     string
	Amount   string
	Segments []Segment
}

// AllocationInput applies part of a payment against an invoice.
type AllocationInput struct {
	InvoiceID int64
	Amount    string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Source      string
	Date        string
	CurrencyID  int64
	Memo        string
	Lines       []PostingLineInput
	Allocations []AllocationInput
}

// Validate enforces posting rules independently of the drafting flow:
// the store never trusts the caller to have balanced the entry.
func (in PostingInput) Validate() error {
	if in.Date == "" {
		return errors.New("journals: date required")
	}
	if in.CurrencyID == 0 {
		return errors.New("journals: currency required")
	}
	if in.Source == "" {
		return errors.New("journals: source required")
	}
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx, line := range in.Lines {
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return fmt.Errorf("journals: line %d bad amount %q", idx, line.Amount)
		}
		if amount.IsNegative() {
			return fmt.Errorf("journals: line %d negative amount", idx)
		}
		switch line.Type {
		case string(draft.KindDebit):
			debit = debit.Add(amount)
		case string(draft.KindCredit):
			credit = credit.Add(amount)
		default:
			return fmt.Errorf("journals: line %d unknown type %q", idx, line.Type)
		}
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("%w (debit %s, credit %s)", ErrUnbalancedEntry, debit.StringFixed(2), credit.StringFixed(2))
	}
	for idx, alloc := range in.Allocations {
		if alloc.InvoiceID == 0 {
			return fmt.Errorf("journals: allocation %d missing invoice", idx)
		}
		if _, err := decimal.NewFromString(alloc.Amount); err != nil {
			return fmt.Errorf("journals: allocation %d bad amount %q", idx, alloc.Amount)
		}
	}
	return nil
}

// VoidInput wraps parameters for voiding.
type VoidInput struct {
	EntryID int64
	Reason  string
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID int64
	Memo    string
}
