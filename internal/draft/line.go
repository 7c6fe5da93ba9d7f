package draft

import (
	"github.com/google/uuid"
)

// LineKind marks which side of the ledger a line posts to.
type LineKind string

const (
	KindDebit  LineKind = "DEBIT"
	KindCredit LineKind = "CREDIT"
)

// Opposite returns the mirroring side for derived lines.
func (k LineKind) Opposite() LineKind {
	if k == KindDebit {
		return KindCredit
	}
	return KindDebit
}

// SegmentTag is one resolved dimension value attached to a line.
// TypeName and ValueName are display-only and never serialized to the
// journal store, which recomputes them from ids.
type SegmentTag struct {
	ID        string `json:"id"`
	TypeID    int64  `json:"segment_type_id"`
	Code      string `json:"segment_code"`
	TypeName  string `json:"segment_type_name,omitempty"`
	ValueName string `json:"segment_value_name,omitempty"`
}

// placeholder tags carry a dimension type but no value yet; they exist
// so a renderer can show one column per dimension unconditionally.
func (t SegmentTag) isPlaceholder() bool {
	return t.Code == ""
}

// Line is a single ledger row. Amount stays textual until summation so
// user input never passes through binary floating point.
type Line struct {
	ID          string       `json:"id"`
	Kind        LineKind     `json:"kind"`
	Amount      string       `json:"amount"`
	Description string       `json:"description,omitempty"`
	Segments    []SegmentTag `json:"segments"`
	Locked      bool         `json:"is_locked"`
}

// LineField names a mutable scalar field on a Line.
type LineField string

const (
	FieldKind        LineField = "kind"
	FieldAmount      LineField = "amount"
	FieldDescription LineField = "description"
)

// LineCollection is an ordered container of lines owned by one editing
// session. MinLines is the caller-defined row floor: 1 for journal
// entry drafts, 0 for invoice item drafts.
type LineCollection struct {
	Lines    []Line `json:"lines"`
	MinLines int    `json:"min_lines"`
}

// NewLineCollection returns a collection with the given row floor.
func NewLineCollection(minLines int) *LineCollection {
	return &LineCollection{MinLines: minLines}
}

// AddLine appends a fresh line. When dimension type ids are supplied,
// one empty placeholder tag per dimension is pre-seeded.
func (c *LineCollection) AddLine(dimensionTypeIDs ...int64) Line {
	line := Line{
		ID:     uuid.NewString(),
		Amount: "0.00",
	}
	for _, typeID := range dimensionTypeIDs {
		line.Segments = append(line.Segments, SegmentTag{
			ID:     uuid.NewString(),
			TypeID: typeID,
		})
	}
	c.Lines = append(c.Lines, line)
	return line
}

// RemoveLine deletes the line with the given id. Removing below the
// row floor, or removing an unknown id, is a silent no-op.
func (c *LineCollection) RemoveLine(id string) {
	if len(c.Lines) <= c.MinLines {
		return
	}
	for i, line := range c.Lines {
		if line.ID == id {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// UpdateField replaces one scalar field on the line. No validation is
// performed here; balance checking happens at submit. Kind and amount
// of locked lines are immutable.
func (c *LineCollection) UpdateField(id string, field LineField, value string) {
	line := c.find(id)
	if line == nil {
		return
	}
	switch field {
	case FieldKind:
		if line.Locked {
			return
		}
		line.Kind = LineKind(value)
	case FieldAmount:
		if line.Locked {
			return
		}
		line.Amount = value
	case FieldDescription:
		line.Description = value
	}
}

// SetSegment upserts a tag for the given dimension type. An existing
// tag for that dimension is replaced in place so ordering is stable;
// otherwise the tag is appended. A line never carries two values for
// the same dimension.
func (c *LineCollection) SetSegment(id string, typeID int64, tag SegmentTag) {
	line := c.find(id)
	if line == nil {
		return
	}
	tag.TypeID = typeID
	for i, existing := range line.Segments {
		if existing.TypeID == typeID {
			if tag.ID == "" {
				tag.ID = existing.ID
			}
			line.Segments[i] = tag
			return
		}
	}
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	line.Segments = append(line.Segments, tag)
}

// RemoveSegment deletes one tag by its own id.
func (c *LineCollection) RemoveSegment(lineID, tagID string) {
	line := c.find(lineID)
	if line == nil {
		return
	}
	for i, tag := range line.Segments {
		if tag.ID == tagID {
			line.Segments = append(line.Segments[:i], line.Segments[i+1:]...)
			return
		}
	}
}

// Find returns the line with the given id, or nil.
func (c *LineCollection) Find(id string) *Line {
	return c.find(id)
}

func (c *LineCollection) find(id string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i]
		}
	}
	return nil
}

// isBlank reports whether a line carries no user input yet.
func (l Line) isBlank() bool {
	if l.Kind != "" || l.Description != "" {
		return false
	}
	if l.Amount != "" && l.Amount != "0.00" && l.Amount != "0" {
		return false
	}
	for _, tag := range l.Segments {
		if !tag.isPlaceholder() {
			return false
		}
	}
	return true
}
