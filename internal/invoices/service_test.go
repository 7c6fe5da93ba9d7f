package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/draft"
)

type memoryRepo struct {
	invoices map[int64]Invoice
	items    map[int64][]Item
	nextID   int64
	nextSeq  int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices: make(map[int64]Invoice),
		items:    make(map[int64][]Item),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	inv.Items = append([]Item(nil), r.items[id]...)
	return inv, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if req.Kind != "" && inv.Kind != req.Kind {
			continue
		}
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		if req.CounterpartyID != 0 && inv.CounterpartyID != req.CounterpartyID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (t *memoryTx) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	t.repo.nextID++
	inv.ID = t.repo.nextID
	t.repo.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (t *memoryTx) CreateItem(ctx context.Context, invoiceID int64, item Item) error {
	item.InvoiceID = invoiceID
	t.repo.items[invoiceID] = append(t.repo.items[invoiceID], item)
	return nil
}

func (t *memoryTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	inv, ok := t.repo.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	t.repo.invoices[id] = inv
	return nil
}

func (t *memoryTx) NextNumber(ctx context.Context, kind Kind) (string, error) {
	t.repo.nextSeq++
	return fmt.Sprintf("%s-%06d", kind, t.repo.nextSeq), nil
}

func apPayload() draft.InvoicePayload {
	rate := 10.0
	return draft.InvoicePayload{
		Date:           "2026-04-01",
		CurrencyID:     1,
		Memo:           "office supplies",
		CounterpartyID: 8,
		Items: []draft.WireItem{
			{Description: "Widgets", Quantity: "2", UnitPrice: "50.00", TaxRate: &rate, TaxCountry: "DE", TaxCategory: "STANDARD"},
			{Description: "Manuals", Quantity: "1", UnitPrice: "15.00", TaxCountry: "DE", TaxCategory: "EXEMPT"},
		},
	}
}

func TestPostInvoiceComputesTotalsAndEntry(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	id, err := svc.PostInvoice(context.Background(), draft.SubmissionAPInvoice, apPayload())
	require.NoError(t, err)

	inv, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, KindAP, inv.Kind)
	require.Equal(t, StatusPosted, inv.Status)
	require.Equal(t, "AP-000001", inv.Number)
	require.Equal(t, "115.00", inv.Subtotal)
	require.Equal(t, "10.00", inv.TaxAmount)
	require.Equal(t, "125.00", inv.Total)
	require.Len(t, inv.Items, 2)
	require.Equal(t, "110.00", inv.Items[0].LineTotal)
	require.Equal(t, "15.00", inv.Items[1].LineTotal)

	// AP: one debit per item, one balancing credit for the gross total.
	require.Len(t, inv.Entry, 3)
	require.Equal(t, SideDebit, inv.Entry[0].Side)
	require.Equal(t, SideDebit, inv.Entry[1].Side)
	require.Equal(t, SideCredit, inv.Entry[2].Side)
	require.Equal(t, "125.00", inv.Entry[2].Amount)
}

func TestPostInvoiceARMirrorsSides(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	id, err := svc.PostInvoice(context.Background(), draft.SubmissionARInvoice, apPayload())
	require.NoError(t, err)

	inv, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, KindAR, inv.Kind)
	require.Equal(t, "AR-000001", inv.Number)
	require.Equal(t, SideCredit, inv.Entry[0].Side)
	require.Equal(t, SideDebit, inv.Entry[len(inv.Entry)-1].Side)
}

func TestPostInvoiceRejectsLedgerKinds(t *testing.T) {
	svc := NewService(newMemoryRepo(), slog.Default())
	_, err := svc.PostInvoice(context.Background(), draft.SubmissionJournal, apPayload())
	require.Error(t, err)
}

func TestVoidTransitions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	id, err := svc.PostInvoice(ctx, draft.SubmissionAPInvoice, apPayload())
	require.NoError(t, err)

	require.NoError(t, svc.Void(ctx, id))
	require.ErrorIs(t, svc.Void(ctx, id), ErrInvalidStatus)

	require.ErrorIs(t, svc.Void(ctx, 999), ErrInvoiceNotFound)
}

func TestSourceAdapterShapesDocument(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	adapter := NewSourceAdapter(svc)
	ctx := context.Background()

	id, err := svc.PostInvoice(ctx, draft.SubmissionAPInvoice, apPayload())
	require.NoError(t, err)

	doc, err := adapter.FetchSource(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, doc.ID)
	require.Equal(t, "125.00", doc.Total)
	require.Len(t, doc.Lines, 3)
	require.Equal(t, draft.KindCredit, doc.Lines[2].Kind)
	require.Equal(t, "125.00", doc.Lines[2].Amount)
}

func TestSourceAdapterRefusesVoidInvoices(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	adapter := NewSourceAdapter(svc)
	ctx := context.Background()

	id, err := svc.PostInvoice(ctx, draft.SubmissionAPInvoice, apPayload())
	require.NoError(t, err)
	require.NoError(t, svc.Void(ctx, id))

	var rejected *draft.RejectedError
	_, err = adapter.FetchSource(ctx, id)
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.ErrorAs(t, err, &rejected, "a voided source is a user-facing refusal")

	_, err = adapter.FetchSource(ctx, 404)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
	require.ErrorAs(t, err, &rejected)
}
