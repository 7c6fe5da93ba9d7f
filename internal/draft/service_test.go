package draft

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/refdata"
)

type fixedLookup struct{ lookup refdata.Lookup }

func (f fixedLookup) Lookup(ctx context.Context) (refdata.Lookup, error) {
	return f.lookup, nil
}

type recordingPoster struct {
	journals []JournalPayload
	payments []PaymentPayload
	invoices []InvoicePayload
	err      error
}

func (p *recordingPoster) PostJournal(ctx context.Context, payload JournalPayload) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.journals = append(p.journals, payload)
	return int64(len(p.journals)), nil
}

func (p *recordingPoster) PostPayment(ctx context.Context, payload PaymentPayload) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.payments = append(p.payments, payload)
	return int64(len(p.payments)), nil
}

func (p *recordingPoster) PostInvoice(ctx context.Context, kind SubmissionKind, payload InvoicePayload) (int64, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.invoices = append(p.invoices, payload)
	return int64(len(p.invoices)), nil
}

func newTestService(t *testing.T) (*Service, *recordingPoster, *stubFetcher) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	poster := &recordingPoster{}
	fetcher := &stubFetcher{docs: map[int64]SourceDocument{}}
	svc := NewService(
		NewStore(client, time.Hour),
		fixedLookup{lookup: testLookup()},
		fetcher,
		poster,
		slog.Default(),
	)
	return svc, poster, fetcher
}

func TestServiceCreateJournalSeedsFirstLine(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	require.NotNil(t, view.Balance)
	require.Nil(t, view.Totals)
	require.Len(t, view.Draft.Lines.Lines, 1)
	require.Len(t, view.Draft.Lines.Lines[0].Segments, 2, "one placeholder per dimension")
	require.True(t, view.Balance.Balanced, "all-zero draft starts balanced")
}

func TestServiceLineEditingRecomputesSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID
	lineID := view.Draft.Lines.Lines[0].ID

	view, err = svc.UpdateLineField(ctx, draftID, lineID, FieldKind, "DEBIT")
	require.NoError(t, err)
	view, err = svc.UpdateLineField(ctx, draftID, lineID, FieldAmount, "100.00")
	require.NoError(t, err)
	require.False(t, view.Balance.Balanced)
	require.Equal(t, "100.00", view.Balance.Difference)

	view, err = svc.AddLine(ctx, draftID)
	require.NoError(t, err)
	second := view.Draft.Lines.Lines[1].ID
	_, err = svc.UpdateLineField(ctx, draftID, second, FieldKind, "CREDIT")
	require.NoError(t, err)
	view, err = svc.UpdateLineField(ctx, draftID, second, FieldAmount, "100.00")
	require.NoError(t, err)
	require.True(t, view.Balance.Balanced)
}

func TestServiceRemoveLineKeepsFloor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	lineID := view.Draft.Lines.Lines[0].ID

	view, err = svc.RemoveLine(ctx, view.Draft.ID, lineID)
	require.NoError(t, err)
	require.Len(t, view.Draft.Lines.Lines, 1)
}

func TestServiceSegmentCompositionFlow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID
	lineID := view.Draft.Lines.Lines[0].ID

	view, err = svc.ChooseDimension(ctx, draftID, lineID, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), view.Draft.Composer.State(lineID).TypeID)

	view, err = svc.ChooseValue(ctx, draftID, lineID, 10)
	require.NoError(t, err)
	require.True(t, view.Draft.Composer.State(lineID).Empty())

	line := view.Draft.Lines.Find(lineID)
	require.NotNil(t, line)
	var committed []SegmentTag
	for _, tag := range line.Segments {
		if tag.Code != "" {
			committed = append(committed, tag)
		}
	}
	require.Len(t, committed, 1)
	require.Equal(t, "CC-100", committed[0].Code)
}

func TestServiceSubmitJournal(t *testing.T) {
	svc, poster, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1, Memo: "accrual"})
	require.NoError(t, err)
	draftID := view.Draft.ID
	first := view.Draft.Lines.Lines[0].ID
	_, err = svc.UpdateLineField(ctx, draftID, first, FieldKind, "DEBIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, first, FieldAmount, "250.00")
	require.NoError(t, err)
	view, err = svc.AddLine(ctx, draftID)
	require.NoError(t, err)
	second := view.Draft.Lines.Lines[1].ID
	_, err = svc.UpdateLineField(ctx, draftID, second, FieldKind, "CREDIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, second, FieldAmount, "250.00")
	require.NoError(t, err)

	result, err := svc.Submit(ctx, draftID, nil)
	require.NoError(t, err)
	require.NotZero(t, result.PostedID)
	require.Len(t, poster.journals, 1)
	require.Equal(t, "accrual", poster.journals[0].Memo)

	_, err = svc.Get(ctx, draftID)
	require.ErrorIs(t, err, ErrDraftNotFound, "draft is discarded after successful submit")
}

func TestServiceSubmitUnbalancedKeepsDraft(t *testing.T) {
	svc, poster, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID
	lineID := view.Draft.Lines.Lines[0].ID
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldKind, "DEBIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldAmount, "10.00")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draftID, nil)
	require.ErrorIs(t, err, ErrUnbalanced)
	require.Empty(t, poster.journals)

	_, err = svc.Get(ctx, draftID)
	require.NoError(t, err, "failed submit never clears user input")
}

func TestServiceSubmitPosterErrorKeepsDraft(t *testing.T) {
	svc, poster, _ := newTestService(t)
	poster.err = errors.New("backend rejected payload")
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionJournal, Date: "2026-02-01", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID
	lineID := view.Draft.Lines.Lines[0].ID
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldKind, "DEBIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldAmount, "0.00")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draftID, nil)
	require.Error(t, err)

	_, err = svc.Get(ctx, draftID)
	require.NoError(t, err)
}

func TestServicePaymentSubmitChecksTarget(t *testing.T) {
	svc, poster, fetcher := newTestService(t)
	ctx := context.Background()

	fetcher.docs[42] = SourceDocument{
		ID:    42,
		Total: "100.00",
		Lines: []SourceLine{
			{Kind: KindCredit, Amount: "100.00", Segments: []SourceSegment{
				{TypeName: "Cost Center", Code: "CC-100"},
			}},
		},
	}

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionPayment, Date: "2026-02-10", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID

	view, err = svc.LinkSource(ctx, draftID, 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), view.Draft.SourceInvoiceID)
	require.True(t, view.Draft.Lines.Lines[0].Locked)

	// The locked debit of 100.00 needs a credit side to balance.
	view, err = svc.AddLine(ctx, draftID)
	require.NoError(t, err)
	creditID := view.Draft.Lines.Lines[1].ID
	_, err = svc.UpdateLineField(ctx, draftID, creditID, FieldKind, "CREDIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, creditID, FieldAmount, "90.00")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draftID, nil)
	require.ErrorIs(t, err, ErrUnbalanced)

	_, err = svc.UpdateLineField(ctx, draftID, creditID, FieldAmount, "100.00")
	require.NoError(t, err)

	result, err := svc.Submit(ctx, draftID, []WireAllocation{{InvoiceID: 42, AmountAllocated: "100.00"}})
	require.NoError(t, err)
	require.NotZero(t, result.PostedID)
	require.Len(t, poster.payments, 1)
	require.Len(t, poster.payments[0].Allocations, 1)
}

func TestServicePaymentTargetMismatch(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	ctx := context.Background()

	fetcher.docs[7] = SourceDocument{ID: 7, Total: "100.00"}

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionPayment, Date: "2026-02-10", CurrencyID: 1})
	require.NoError(t, err)
	draftID := view.Draft.ID

	_, err = svc.LinkSource(ctx, draftID, 7)
	require.NoError(t, err)

	// Balanced at 90 on each side, but the invoice total is 100.
	view, err = svc.AddLine(ctx, draftID)
	require.NoError(t, err)
	lineID := view.Draft.Lines.Lines[0].ID
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldKind, "DEBIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, lineID, FieldAmount, "90.00")
	require.NoError(t, err)
	view, err = svc.AddLine(ctx, draftID)
	require.NoError(t, err)
	second := view.Draft.Lines.Lines[1].ID
	_, err = svc.UpdateLineField(ctx, draftID, second, FieldKind, "CREDIT")
	require.NoError(t, err)
	_, err = svc.UpdateLineField(ctx, draftID, second, FieldAmount, "90.00")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, draftID, nil)
	require.ErrorIs(t, err, ErrTargetMismatch)
	require.Contains(t, err.Error(), "10.00")
}

func TestServiceInvoiceItemsAndTotals(t *testing.T) {
	svc, poster, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{
		Kind:           SubmissionAPInvoice,
		Date:           "2026-02-15",
		CurrencyID:     1,
		Country:        "FR",
		CounterpartyID: 3,
	})
	require.NoError(t, err)
	draftID := view.Draft.ID
	require.NotNil(t, view.Totals)
	require.Empty(t, view.Draft.Lines.Lines, "invoice drafts start with no ledger lines")

	_, err = svc.Submit(ctx, draftID, nil)
	require.ErrorIs(t, err, ErrNoItems)

	view, err = svc.AddItem(ctx, draftID)
	require.NoError(t, err)
	itemID := view.Draft.Items[0].ID

	desc, qty, price := "Widgets", "2", "50.00"
	view, err = svc.UpdateItem(ctx, draftID, itemID, UpdateItemInput{Description: &desc, Quantity: &qty, UnitPrice: &price})
	require.NoError(t, err)
	require.Equal(t, "100.00", view.Totals.Subtotal)

	view, err = svc.SetItemTax(ctx, draftID, itemID, TaxRateID(5))
	require.NoError(t, err)
	require.Equal(t, "10.00", view.Totals.TaxAmount)
	require.Equal(t, "110.00", view.Totals.Total)

	result, err := svc.Submit(ctx, draftID, nil)
	require.NoError(t, err)
	require.NotZero(t, result.PostedID)
	require.Len(t, poster.invoices, 1)
	require.Len(t, poster.invoices[0].Items, 1)
}

func TestServiceLinkSourceFetchFailure(t *testing.T) {
	svc, _, fetcher := newTestService(t)
	fetcher.err = errors.New("upstream down")
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateInput{Kind: SubmissionPayment, Date: "2026-02-10", CurrencyID: 1})
	require.NoError(t, err)

	_, err = svc.LinkSource(ctx, view.Draft.ID, 99)
	require.Error(t, err)

	reloaded, err := svc.Get(ctx, view.Draft.ID)
	require.NoError(t, err)
	require.Zero(t, reloaded.Draft.SourceInvoiceID)
	require.False(t, reloaded.Draft.Lines.Lines[0].Locked)
}
