package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/refdata"
)

// ErrNoItems guards invoice drafts submitted without item rows.
var ErrNoItems = errors.New("draft: at least one item is required")

// LookupProvider supplies the reference-data snapshot for name
// resolution. Satisfied by *refdata.Service.
type LookupProvider interface {
	Lookup(ctx context.Context) (refdata.Lookup, error)
}

// Poster receives validated, serialized drafts. Satisfied by the
// journals and invoices modules.
type Poster interface {
	PostJournal(ctx context.Context, payload JournalPayload) (int64, error)
	PostPayment(ctx context.Context, payload PaymentPayload) (int64, error)
	PostInvoice(ctx context.Context, kind SubmissionKind, payload InvoicePayload) (int64, error)
}

// RejectedError marks a refusal from a downstream module that the user
// can act on, such as a duplicate allocation or a voided source
// invoice. Its message is surfaced verbatim, never as a server fault.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return e.Err.Error() }

func (e *RejectedError) Unwrap() error { return e.Err }

// Rejected wraps a downstream refusal for verbatim surfacing. A nil
// error stays nil.
func Rejected(err error) error {
	if err == nil {
		return nil
	}
	return &RejectedError{Err: err}
}

// Service orchestrates draft mutations: every operation loads the
// draft, applies one core mutation, recomputes the balance snapshot,
// and saves. The snapshot travels back with every response so the
// caller can show live balanced/unbalanced state.
type Service struct {
	store   *Store
	refdata LookupProvider
	sources SourceFetcher
	poster  Poster
	logger  *slog.Logger
}

func NewService(store *Store, refdata LookupProvider, sources SourceFetcher, poster Poster, logger *slog.Logger) *Service {
	return &Service{store: store, refdata: refdata, sources: sources, poster: poster, logger: logger}
}

// CreateInput carries the header fields of a new editing session.
type CreateInput struct {
	Kind           SubmissionKind
	Date           string
	CurrencyID     int64
	Memo           string
	Country        string
	CounterpartyID int64
}

// View is what every draft operation returns: the document plus its
// derived balance state.
type View struct {
	Draft   *Draft          `json:"draft"`
	Balance *BalanceView    `json:"balance,omitempty"`
	Totals  *ItemTotalsView `json:"totals,omitempty"`
}

// BalanceView renders the snapshot with two-decimal text amounts.
type BalanceView struct {
	TotalDebit  string `json:"total_debit"`
	TotalCredit string `json:"total_credit"`
	Balanced    bool   `json:"is_balanced"`
	Difference  string `json:"difference"`
}

// ItemTotalsView renders invoice rollups.
type ItemTotalsView struct {
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

// Create opens a new editing session. Journal and payment drafts start
// with a single line pre-seeded with one placeholder segment per known
// dimension.
func (s *Service) Create(ctx context.Context, in CreateInput) (*View, error) {
	lookup, err := s.refdata.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	d := &Draft{
		Kind:           in.Kind,
		Date:           in.Date,
		CurrencyID:     in.CurrencyID,
		Memo:           in.Memo,
		Country:        in.Country,
		CounterpartyID: in.CounterpartyID,
		Lines:          NewLineCollection(minLinesFor(in.Kind)),
		Composer:       NewComposer(),
	}
	if d.hasLedgerLines() {
		d.Lines.AddLine(lookup.DimensionTypeIDs()...)
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return s.buildView(d, lookup), nil
}

// Get loads the draft with its current snapshot.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lookup, err := s.refdata.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildView(d, lookup), nil
}

// Cancel discards the session without submitting.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// update is the common load-mutate-save cycle.
func (s *Service) update(ctx context.Context, id string, fn func(d *Draft, lookup refdata.Lookup) error) (*View, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lookup, err := s.refdata.Lookup(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(d, lookup); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return s.buildView(d, lookup), nil
}

// AddLine appends a line with placeholder segments for every known
// dimension.
func (s *Service) AddLine(ctx context.Context, draftID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Lines.AddLine(lookup.DimensionTypeIDs()...)
		return nil
	})
}

// RemoveLine deletes a line, honoring the row floor, and clears any
// staged composer selection for it.
func (s *Service) RemoveLine(ctx context.Context, draftID, lineID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Lines.RemoveLine(lineID)
		d.Composer.Reset(lineID)
		return nil
	})
}

// UpdateLineField sets one scalar field on a line.
func (s *Service) UpdateLineField(ctx context.Context, draftID, lineID string, field LineField, value string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		if line := d.Lines.Find(lineID); line != nil && line.Locked && field != FieldDescription {
			return ErrLockedLine
		}
		d.Lines.UpdateField(lineID, field, value)
		return nil
	})
}

// ChooseDimension stages the dimension half of a segment selection.
func (s *Service) ChooseDimension(ctx context.Context, draftID, lineID string, typeID int64) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Composer.ChooseDimension(lineID, typeID)
		return nil
	})
}

// ChooseValue completes the selection; the segment auto-commits onto
// the line and the staged state resets.
func (s *Service) ChooseValue(ctx context.Context, draftID, lineID string, valueID int64) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Composer.ChooseValue(lineID, valueID, d.Lines, lookup)
		return nil
	})
}

// RemoveSegment deletes one committed tag from a line.
func (s *Service) RemoveSegment(ctx context.Context, draftID, lineID, tagID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Lines.RemoveSegment(lineID, tagID)
		return nil
	})
}

// AddItem appends an invoice item row.
func (s *Service) AddItem(ctx context.Context, draftID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		d.Items = append(d.Items, Item{
			ID:        uuid.NewString(),
			Quantity:  "1",
			UnitPrice: "0.00",
		})
		return nil
	})
}

// UpdateItemInput carries partial item edits; nil fields are left
// unchanged.
type UpdateItemInput struct {
	Description *string
	Quantity    *string
	UnitPrice   *string
}

// UpdateItem edits an item row; unknown ids are silent no-ops.
func (s *Service) UpdateItem(ctx context.Context, draftID, itemID string, in UpdateItemInput) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		for i := range d.Items {
			if d.Items[i].ID != itemID {
				continue
			}
			if in.Description != nil {
				d.Items[i].Description = *in.Description
			}
			if in.Quantity != nil {
				d.Items[i].Quantity = *in.Quantity
			}
			if in.UnitPrice != nil {
				d.Items[i].UnitPrice = *in.UnitPrice
			}
			return nil
		}
		return nil
	})
}

// RemoveItem deletes an item row.
func (s *Service) RemoveItem(ctx context.Context, draftID, itemID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		for i := range d.Items {
			if d.Items[i].ID == itemID {
				d.Items = append(d.Items[:i], d.Items[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// SetItemTax applies a tax selection to an item row.
func (s *Service) SetItemTax(ctx context.Context, draftID, itemID string, tax TaxSelection) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		for i := range d.Items {
			if d.Items[i].ID == itemID {
				d.Items[i].Tax = tax
				return nil
			}
		}
		return nil
	})
}

// LinkSource mirrors the credit lines of the given invoice into the
// draft as locked debit lines. On fetch failure the draft is left
// untouched so the user can retry by re-selecting the document.
func (s *Service) LinkSource(ctx context.Context, draftID string, invoiceID int64) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		if err := LinkSource(ctx, s.sources, invoiceID, KindCredit, d.Lines, lookup); err != nil {
			return fmt.Errorf("draft: fetch source document %d: %w", invoiceID, err)
		}
		d.SourceInvoiceID = invoiceID
		return nil
	})
}

// UnlinkSource removes all locked lines and the source reference.
func (s *Service) UnlinkSource(ctx context.Context, draftID string) (*View, error) {
	return s.update(ctx, draftID, func(d *Draft, lookup refdata.Lookup) error {
		UnlinkSource(d.Lines)
		d.SourceInvoiceID = 0
		return nil
	})
}

// SubmitResult reports the posted document id.
type SubmitResult struct {
	PostedID int64 `json:"posted_id"`
}

// Submit runs the composite validation gate, serializes the draft per
// its kind, and hands the payload to the poster. The draft is deleted
// only after a successful post; on any failure it is left untouched so
// the user can correct and resubmit without re-entering everything.
func (s *Service) Submit(ctx context.Context, draftID string, allocations []WireAllocation) (SubmitResult, error) {
	d, err := s.store.Get(ctx, draftID)
	if err != nil {
		return SubmitResult{}, err
	}
	lookup, err := s.refdata.Lookup(ctx)
	if err != nil {
		return SubmitResult{}, err
	}

	var postedID int64
	switch d.Kind {
	case SubmissionJournal:
		if err := ValidateForSubmit(d.Lines, nil); err != nil {
			return SubmitResult{}, err
		}
		postedID, err = s.poster.PostJournal(ctx, SerializeJournal(d))
	case SubmissionPayment:
		var target *decimal.Decimal
		if d.SourceInvoiceID != 0 {
			doc, fetchErr := s.sources.FetchSource(ctx, d.SourceInvoiceID)
			if fetchErr != nil {
				return SubmitResult{}, fmt.Errorf("draft: fetch source document %d: %w", d.SourceInvoiceID, fetchErr)
			}
			total := parseAmount(doc.Total)
			target = &total
		}
		if err := ValidateForSubmit(d.Lines, target); err != nil {
			return SubmitResult{}, err
		}
		postedID, err = s.poster.PostPayment(ctx, SerializePayment(d, allocations))
	case SubmissionAPInvoice, SubmissionARInvoice:
		if len(d.Items) == 0 {
			return SubmitResult{}, ErrNoItems
		}
		postedID, err = s.poster.PostInvoice(ctx, d.Kind, serializeInvoice(d, lookup))
	default:
		return SubmitResult{}, fmt.Errorf("draft: unknown submission kind %q", d.Kind)
	}
	if err != nil {
		return SubmitResult{}, err
	}

	if err := s.store.Delete(ctx, draftID); err != nil {
		s.logger.Warn("delete submitted draft", slog.String("draft_id", draftID), slog.Any("error", err))
	}
	return SubmitResult{PostedID: postedID}, nil
}

func (s *Service) buildView(d *Draft, lookup refdata.Lookup) *View {
	view := &View{Draft: d}
	if d.hasLedgerLines() {
		snap := Snapshot(d.Lines)
		view.Balance = &BalanceView{
			TotalDebit:  snap.TotalDebit.StringFixed(2),
			TotalCredit: snap.TotalCredit.StringFixed(2),
			Balanced:    snap.Balanced,
			Difference:  snap.TotalDebit.Sub(snap.TotalCredit).Abs().StringFixed(2),
		}
	} else {
		totals := ComputeInvoiceTotals(d.Items, lookup)
		view.Totals = &ItemTotalsView{
			Subtotal:  totals.Subtotal.StringFixed(2),
			TaxAmount: totals.TaxAmount.StringFixed(2),
			Total:     totals.Total.StringFixed(2),
		}
	}
	return view
}
