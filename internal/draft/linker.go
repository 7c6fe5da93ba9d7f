package draft

import (
	"context"

	"github.com/google/uuid"

	"github.com/atlas-erp/atlas-erp/internal/refdata"
)

// SourceSegment is a dimension tag on a source document's ledger line.
// Only the denormalized type name and the value code cross the
// document boundary.
type SourceSegment struct {
	TypeName string `json:"segment_type_name"`
	Code     string `json:"segment_code"`
}

// SourceLine is one ledger line of a source document's journal entry.
type SourceLine struct {
	Kind     LineKind        `json:"type"`
	Amount   string          `json:"amount"`
	Segments []SourceSegment `json:"segments"`
}

// SourceDocument is the slice of an invoice the linker consumes.
type SourceDocument struct {
	ID    int64        `json:"id"`
	Total string       `json:"total"`
	Lines []SourceLine `json:"lines"`
}

// SourceFetcher loads a source document by id. Implemented by the
// invoices module in production and by fixtures in tests.
type SourceFetcher interface {
	FetchSource(ctx context.Context, id int64) (SourceDocument, error)
}

// LinkSource mirrors the source document's lines of the given side
// into the collection as locked rows on the opposite side: a payment
// debits what the invoice credited. Segments are re-keyed by dimension
// *name* against the current lookup; names that no longer resolve are
// dropped silently. Locked lines always reflect exactly one source
// document, so previously locked lines are discarded first. On fetch
// failure the collection is left untouched.
func LinkSource(ctx context.Context, fetcher SourceFetcher, sourceID int64, side LineKind, c *LineCollection, lookup refdata.Lookup) error {
	doc, err := fetcher.FetchSource(ctx, sourceID)
	if err != nil {
		return err
	}

	var locked []Line
	for _, src := range doc.Lines {
		if src.Kind != side {
			continue
		}
		line := Line{
			ID:     uuid.NewString(),
			Kind:   src.Kind.Opposite(),
			Amount: src.Amount,
			Locked: true,
		}
		for _, seg := range src.Segments {
			typeID, ok := lookup.DimensionIDByName(seg.TypeName)
			if !ok {
				continue
			}
			line.Segments = append(line.Segments, SegmentTag{
				ID:       uuid.NewString(),
				TypeID:   typeID,
				Code:     seg.Code,
				TypeName: seg.TypeName,
			})
		}
		locked = append(locked, line)
	}

	merge(c, locked)
	return nil
}

// UnlinkSource removes all locked lines, used when the source document
// selection is cleared.
func UnlinkSource(c *LineCollection) {
	c.Lines = withoutLocked(c.Lines)
}

func merge(c *LineCollection, locked []Line) {
	remaining := withoutLocked(c.Lines)
	if len(remaining) == 1 && remaining[0].isBlank() {
		remaining = nil
	}
	c.Lines = append(locked, remaining...)
}

func withoutLocked(lines []Line) []Line {
	out := lines[:0:0]
	for _, line := range lines {
		if !line.Locked {
			out = append(out, line)
		}
	}
	return out
}
