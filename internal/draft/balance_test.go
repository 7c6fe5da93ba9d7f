package draft

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ledgerLines(rows ...[2]string) *LineCollection {
	c := NewLineCollection(1)
	for _, row := range rows {
		line := c.AddLine()
		c.UpdateField(line.ID, FieldKind, row[0])
		c.UpdateField(line.ID, FieldAmount, row[1])
	}
	return c
}

func TestSnapshotBalanced(t *testing.T) {
	c := ledgerLines(
		[2]string{"DEBIT", "100.00"},
		[2]string{"CREDIT", "60.00"},
		[2]string{"CREDIT", "40.00"},
	)
	snap := Snapshot(c)
	require.True(t, snap.Balanced)
	require.Equal(t, "100.00", snap.TotalDebit.StringFixed(2))
	require.Equal(t, "100.00", snap.TotalCredit.StringFixed(2))
}

func TestSnapshotUnbalancedReportsDifference(t *testing.T) {
	c := ledgerLines(
		[2]string{"DEBIT", "100.00"},
		[2]string{"CREDIT", "60.00"},
	)
	snap := Snapshot(c)
	require.False(t, snap.Balanced)
	require.Equal(t, "40.00", snap.TotalDebit.Sub(snap.TotalCredit).Abs().StringFixed(2))
}

func TestComputeTotalsIgnoresGarbageAmounts(t *testing.T) {
	c := ledgerLines(
		[2]string{"DEBIT", "10.50"},
		[2]string{"DEBIT", ""},
		[2]string{"CREDIT", "not-a-number"},
		[2]string{"", "999.99"},
	)
	debit, credit := ComputeTotals(c.Lines)
	require.Equal(t, "10.50", debit.StringFixed(2))
	require.Equal(t, "0.00", credit.StringFixed(2))
}

func TestBalanceEpsilonAbsorbsSubCentDrift(t *testing.T) {
	c := ledgerLines(
		[2]string{"DEBIT", "100.000"},
		[2]string{"CREDIT", "99.995"},
	)
	require.True(t, Snapshot(c).Balanced)

	c = ledgerLines(
		[2]string{"DEBIT", "100.00"},
		[2]string{"CREDIT", "99.99"},
	)
	require.False(t, Snapshot(c).Balanced, "a full cent apart is not balanced")
}

func TestComputeInvoiceTotals(t *testing.T) {
	lookup := testLookup()
	items := []Item{
		{ID: "i1", Quantity: "2", UnitPrice: "50.00", Tax: TaxRateID(5)},
	}
	totals := ComputeInvoiceTotals(items, lookup)
	require.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "10.00", totals.TaxAmount.StringFixed(2))
	require.Equal(t, "110.00", totals.Total.StringFixed(2))
}

func TestComputeInvoiceTotalsExemptItems(t *testing.T) {
	lookup := testLookup()
	items := []Item{
		{ID: "i1", Quantity: "3", UnitPrice: "10.00", Tax: TaxExempt()},
		{ID: "i2", Quantity: "1", UnitPrice: "5.00"},
	}
	totals := ComputeInvoiceTotals(items, lookup)
	require.Equal(t, "35.00", totals.Subtotal.StringFixed(2))
	require.Equal(t, "0.00", totals.TaxAmount.StringFixed(2))
	require.Equal(t, "35.00", totals.Total.StringFixed(2))
}

func TestValidateForSubmitOrdering(t *testing.T) {
	empty := NewLineCollection(0)
	err := ValidateForSubmit(empty, nil)
	require.ErrorIs(t, err, ErrNoLines, "empty collection fails the no-lines check first")

	unbalanced := ledgerLines(
		[2]string{"DEBIT", "90.00"},
		[2]string{"CREDIT", "50.00"},
	)
	target := decimal.RequireFromString("100.00")
	err = ValidateForSubmit(unbalanced, &target)
	require.ErrorIs(t, err, ErrUnbalanced, "balance is checked before the target")
	require.Contains(t, err.Error(), "40.00")

	balanced := ledgerLines(
		[2]string{"DEBIT", "90.00"},
		[2]string{"CREDIT", "90.00"},
	)
	err = ValidateForSubmit(balanced, &target)
	require.ErrorIs(t, err, ErrTargetMismatch)
	require.Contains(t, err.Error(), "10.00")

	matching := ledgerLines(
		[2]string{"DEBIT", "100.00"},
		[2]string{"CREDIT", "100.00"},
	)
	require.NoError(t, ValidateForSubmit(matching, &target))
	require.NoError(t, ValidateForSubmit(matching, nil))
}
