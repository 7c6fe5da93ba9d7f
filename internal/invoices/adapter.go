package invoices

import (
	"context"
	"errors"

	"github.com/atlas-erp/atlas-erp/internal/draft"
)

// SourceAdapter exposes posted invoices as source documents for the
// drafting flow's derived-line linking.
type SourceAdapter struct {
	svc *Service
}

func NewSourceAdapter(svc *Service) *SourceAdapter {
	return &SourceAdapter{svc: svc}
}

var _ draft.SourceFetcher = (*SourceAdapter)(nil)

// FetchSource maps an invoice's stored journal entry to the document
// shape the linker consumes. Void invoices are not linkable.
func (a *SourceAdapter) FetchSource(ctx context.Context, id int64) (draft.SourceDocument, error) {
	inv, err := a.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return draft.SourceDocument{}, draft.Rejected(err)
		}
		return draft.SourceDocument{}, err
	}
	if inv.Status != StatusPosted {
		return draft.SourceDocument{}, draft.Rejected(ErrInvalidStatus)
	}

	doc := draft.SourceDocument{
		ID:    inv.ID,
		Total: inv.Total,
	}
	for _, line := range inv.Entry {
		src := draft.SourceLine{
			Kind:   draft.LineKind(line.Side),
			Amount: line.Amount,
		}
		for _, seg := range line.Segments {
			src.Segments = append(src.Segments, draft.SourceSegment{
				TypeName: seg.TypeName,
				Code:     seg.Code,
			})
		}
		doc.Lines = append(doc.Lines, src)
	}
	return doc, nil
}
