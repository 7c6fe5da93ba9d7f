package draft

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/refdata"
)

// balanceEpsilon absorbs cent-level rounding when comparing totals.
// It assumes two-decimal currencies; zero- and three-decimal
// currencies would need a per-currency precision this does not model.
var balanceEpsilon = decimal.RequireFromString("0.01")

// Submit gate failures, reported in a fixed order so the first actionable
// problem reaches the user: add a line, then balance, then match the target.
var (
	ErrNoLines        = errors.New("draft: at least one line is required")
	ErrUnbalanced     = errors.New("draft: debits and credits do not balance")
	ErrTargetMismatch = errors.New("draft: debit total does not match the target total")
)

// BalanceSnapshot is a derived value recomputed on every mutation;
// it is never stored.
type BalanceSnapshot struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
}

// InvoiceTotals aggregates invoice item rollups.
type InvoiceTotals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// parseAmount converts user-entered text to a decimal. Blank and
// unparsable input counts as zero so in-progress rows never break the
// running total.
func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ComputeTotals sums line amounts per side.
func ComputeTotals(lines []Line) (totalDebit, totalCredit decimal.Decimal) {
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		amount := parseAmount(line.Amount)
		switch line.Kind {
		case KindDebit:
			totalDebit = totalDebit.Add(amount)
		case KindCredit:
			totalCredit = totalCredit.Add(amount)
		}
	}
	return totalDebit, totalCredit
}

// Snapshot computes the balance state of a collection.
func Snapshot(c *LineCollection) BalanceSnapshot {
	debit, credit := ComputeTotals(c.Lines)
	return BalanceSnapshot{
		TotalDebit:  debit,
		TotalCredit: credit,
		Balanced:    withinEpsilon(debit, credit),
	}
}

// MatchesTarget reports whether the snapshot's debit side agrees with
// a target total; the debit side is the canonical GL total.
func (s BalanceSnapshot) MatchesTarget(target decimal.Decimal) bool {
	return withinEpsilon(s.TotalDebit, target)
}

func withinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(balanceEpsilon)
}

// ComputeInvoiceTotals rolls up item lines. Exempt and unset tax
// selections contribute zero tax.
func ComputeInvoiceTotals(items []Item, lookup refdata.Lookup) InvoiceTotals {
	subtotal, tax := decimal.Zero, decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, item := range items {
		lineNet := parseAmount(item.Quantity).Mul(parseAmount(item.UnitPrice))
		subtotal = subtotal.Add(lineNet)
		rate := decimal.NewFromFloat(item.Tax.Rate(lookup))
		tax = tax.Add(lineNet.Mul(rate).Div(hundred))
	}
	return InvoiceTotals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

// ValidateForSubmit is the composite gate evaluated before any create
// or update call. Checks run in order: lines exist, lines balance,
// and, when a target is supplied, the debit total matches it. The
// first failing reason wins.
func ValidateForSubmit(c *LineCollection, target *decimal.Decimal) error {
	if len(c.Lines) == 0 {
		return ErrNoLines
	}
	snap := Snapshot(c)
	if !snap.Balanced {
		diff := snap.TotalDebit.Sub(snap.TotalCredit).Abs()
		return fmt.Errorf("%w (off by %s)", ErrUnbalanced, diff.StringFixed(2))
	}
	if target != nil && !snap.MatchesTarget(*target) {
		diff := snap.TotalDebit.Sub(*target).Abs()
		return fmt.Errorf("%w (off by %s)", ErrTargetMismatch, diff.StringFixed(2))
	}
	return nil
}
