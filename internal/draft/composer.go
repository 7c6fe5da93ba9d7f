package draft

import (
	"github.com/google/uuid"

	"github.com/atlas-erp/atlas-erp/internal/refdata"
)

// ComposerState is the per-line transient two-step selection. It is
// not part of the persisted line; it only stages the next segment.
type ComposerState struct {
	TypeID  int64 `json:"segment_type,omitempty"`
	ValueID int64 `json:"segment,omitempty"`
}

// Empty reports whether no dimension has been chosen yet.
func (s ComposerState) Empty() bool {
	return s.TypeID == 0 && s.ValueID == 0
}

// Composer tracks one ComposerState per line id.
type Composer struct {
	States map[string]ComposerState `json:"states,omitempty"`
}

func NewComposer() *Composer {
	return &Composer{States: make(map[string]ComposerState)}
}

func (c *Composer) state(lineID string) ComposerState {
	if c.States == nil {
		c.States = make(map[string]ComposerState)
	}
	return c.States[lineID]
}

// State exposes the staged selection for a line.
func (c *Composer) State(lineID string) ComposerState {
	return c.state(lineID)
}

// ChooseDimension stages a dimension for the line and clears any
// previously staged value: values are scoped to a dimension, so
// changing the dimension always invalidates the value.
func (c *Composer) ChooseDimension(lineID string, typeID int64) {
	if c.States == nil {
		c.States = make(map[string]ComposerState)
	}
	c.States[lineID] = ComposerState{TypeID: typeID}
}

// ChooseValue completes the two-step selection. Once both halves are
// present the segment auto-commits: display names are resolved from
// the lookup, the tag is upserted onto the line, and the staged state
// resets to empty. Choosing a value with no staged dimension is a
// no-op; a value that does not resolve under the staged dimension
// stays staged alongside it.
func (c *Composer) ChooseValue(lineID string, valueID int64, lines *LineCollection, lookup refdata.Lookup) {
	state := c.state(lineID)
	if state.TypeID == 0 {
		return
	}
	state.ValueID = valueID
	c.States[lineID] = state
	value, ok := lookup.Value(valueID)
	if !ok || value.TypeID != state.TypeID {
		return
	}
	typeName, _ := lookup.DimensionName(state.TypeID)
	lines.SetSegment(lineID, state.TypeID, SegmentTag{
		ID:        uuid.NewString(),
		TypeID:    state.TypeID,
		Code:      value.Code,
		TypeName:  typeName,
		ValueName: value.Name,
	})
	delete(c.States, lineID)
}

// Reset clears the staged selection for a line, used when the line is
// removed.
func (c *Composer) Reset(lineID string) {
	delete(c.States, lineID)
}
