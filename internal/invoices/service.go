package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/atlas-erp/atlas-erp/internal/draft"
)

var (
	ErrInvoiceNotFound = errors.New("invoices: invoice not found")
	ErrInvalidStatus   = errors.New("invoices: invalid status for operation")
)

// Service owns invoice persistence and the journal entry generated for
// each posted invoice.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// PostInvoice satisfies the invoice half of draft.Poster. The payload
// arrives validated and serialized from the drafting flow.
func (s *Service) PostInvoice(ctx context.Context, kind draft.SubmissionKind, payload draft.InvoicePayload) (int64, error) {
	var invKind Kind
	switch kind {
	case draft.SubmissionAPInvoice:
		invKind = KindAP
	case draft.SubmissionARInvoice:
		invKind = KindAR
	default:
		return 0, fmt.Errorf("invoices: unsupported submission kind %q", kind)
	}

	inv := buildInvoice(invKind, payload)

	var invoiceID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, invKind)
		if err != nil {
			return err
		}
		inv.Number = number

		id, err := tx.CreateInvoice(ctx, inv)
		if err != nil {
			return err
		}
		invoiceID = id

		for _, item := range inv.Items {
			if err := tx.CreateItem(ctx, id, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("invoice posted",
		slog.Int64("invoice_id", invoiceID),
		slog.String("kind", string(invKind)),
		slog.String("total", inv.Total),
	)
	return invoiceID, nil
}

// buildInvoice computes totals and the journal entry from the wire
// payload. An AP invoice credits payables for the gross total and
// debits each item; AR mirrors the sides.
func buildInvoice(kind Kind, payload draft.InvoicePayload) Invoice {
	inv := Invoice{
		Kind:           kind,
		CounterpartyID: payload.CounterpartyID,
		CurrencyID:     payload.CurrencyID,
		Date:           payload.Date,
		Memo:           payload.Memo,
		Status:         StatusPosted,
	}

	hundred := decimal.NewFromInt(100)
	subtotal, taxTotal := decimal.Zero, decimal.Zero
	itemSide, controlSide := SideDebit, SideCredit
	if kind == KindAR {
		itemSide, controlSide = SideCredit, SideDebit
	}

	var entry []EntryLine
	for _, wi := range payload.Items {
		qty, _ := decimal.NewFromString(wi.Quantity)
		price, _ := decimal.NewFromString(wi.UnitPrice)
		net := qty.Mul(price)
		tax := decimal.Zero
		if wi.TaxRate != nil {
			tax = net.Mul(decimal.NewFromFloat(*wi.TaxRate)).Div(hundred)
		}
		gross := net.Add(tax)
		subtotal = subtotal.Add(net)
		taxTotal = taxTotal.Add(tax)

		if inv.Country == "" {
			inv.Country = wi.TaxCountry
		}
		inv.Items = append(inv.Items, Item{
			Description: wi.Description,
			Quantity:    wi.Quantity,
			UnitPrice:   wi.UnitPrice,
			TaxRate:     wi.TaxRate,
			TaxCountry:  wi.TaxCountry,
			TaxCategory: wi.TaxCategory,
			LineTotal:   gross.StringFixed(2),
		})
		entry = append(entry, EntryLine{Side: itemSide, Amount: gross.StringFixed(2)})
	}

	total := subtotal.Add(taxTotal)
	inv.Subtotal = subtotal.StringFixed(2)
	inv.TaxAmount = taxTotal.StringFixed(2)
	inv.Total = total.StringFixed(2)
	entry = append(entry, EntryLine{Side: controlSide, Amount: total.StringFixed(2)})
	inv.Entry = entry
	return inv
}

// Get loads one invoice with its items and entry lines.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filter.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	return s.repo.List(ctx, req)
}

// Void marks a posted invoice void. Voiding twice fails.
func (s *Service) Void(ctx context.Context, id int64) error {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status != StatusPosted {
		return ErrInvalidStatus
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, StatusVoid)
	})
}
