package model

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
)

// Parameter is one value reference attached to a console message.
type Parameter struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	Value       any    `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// LogMessage is an inspected console event. It is treated as immutable once
// it reaches the store; the originating link and the execution context are
// the only fields that may be bound afterwards, and each only once.
type LogMessage struct {
	MessageID          string      `json:"id,omitempty"`
	Source             Source      `json:"source"`
	Level              Level       `json:"level"`
	Type               Type        `json:"type"`
	Text               string      `json:"text"`
	URL                string      `json:"url,omitempty"`
	Line               int         `json:"line,omitempty"`
	Timestamp          float64     `json:"timestamp"`
	ExecutionContextID int         `json:"executionContextId,omitempty"`
	Context            string      `json:"context,omitempty"`
	Parameters         []Parameter `json:"parameters,omitempty"`
	RequestID          int         `json:"requestId,omitempty"`
	Flavor             string      `json:"flavor,omitempty"`

	originatingID int64
	contextBound  bool
}

// UnmarshalJSON decodes a protocol message. Missing source and level fields
// default to SourceOther and LevelInfo.
func (m *LogMessage) UnmarshalJSON(data []byte) error {
	type wire LogMessage
	w := wire{Source: SourceOther, Level: LevelInfo}
	if err := sonic.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = LogMessage(w)
	return nil
}

// OriginatingID returns the store id of the command that produced this
// message, or 0 when the message is not a linked result.
func (m *LogMessage) OriginatingID() int64 {
	return m.originatingID
}

// SetOriginating links the message to the command with the given store id.
// It reports false when a link already exists.
func (m *LogMessage) SetOriginating(id int64) bool {
	if m.originatingID != 0 || id <= 0 {
		return false
	}
	m.originatingID = id
	return true
}

// BindExecutionContext sets the execution context once. Messages that
// arrived with a context are already bound.
func (m *LogMessage) BindExecutionContext(id int) bool {
	if m.contextBound || m.ExecutionContextID != 0 {
		return false
	}
	m.ExecutionContextID = id
	m.contextBound = true
	return true
}

// Equal reports structural equality as used by repeat collapsing.
func (m *LogMessage) Equal(other *LogMessage) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Source != other.Source || m.Level != other.Level || m.Type != other.Type {
		return false
	}
	if m.Text != other.Text || m.URL != other.URL {
		return false
	}
	if len(m.Parameters) != len(other.Parameters) {
		return false
	}
	for i := range m.Parameters {
		a, b := m.Parameters[i], other.Parameters[i]
		if a.Type != b.Type || a.Subtype != b.Subtype || a.Description != b.Description {
			return false
		}
		if !reflect.DeepEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

// IsGroupStart reports whether the message opens a console group.
func (m *LogMessage) IsGroupStart() bool {
	return m.Type == TypeStartGroup || m.Type == TypeStartGroupCollapsed
}

// IsGroupMarker reports whether the message opens or closes a group.
func (m *LogMessage) IsGroupMarker() bool {
	return m.IsGroupStart() || m.Type == TypeEndGroup
}

// IsCommandOrResult reports whether the message is a user command, a Dirac
// command or an evaluation result.
func (m *LogMessage) IsCommandOrResult() bool {
	switch m.Type {
	case TypeCommand, TypeDiracCommand, TypeResult:
		return true
	}
	return false
}

// Range is a half-open byte range into a message's text.
type Range struct {
	Start int
	End   int
}

// ViewEntry wraps a stored message with its render state.
type ViewEntry struct {
	ID      int64
	Message *LogMessage
	Kind    Kind
	SortKey float64

	RepeatCount           int
	CloseGroupDecorations int
	Collapsed             bool
	NestingLevel          int
	AdjacentResult        bool

	SearchRegex      *regexp.Regexp
	SearchRanges     []Range
	HighlightedMatch int
}

// NewViewEntry wraps msg. Group starts of type startGroupCollapsed begin collapsed.
func NewViewEntry(id int64, msg *LogMessage, sortKey float64) *ViewEntry {
	return &ViewEntry{
		ID:               id,
		Message:          msg,
		Kind:             KindOf(msg.Type),
		SortKey:          sortKey,
		RepeatCount:      1,
		Collapsed:        msg.Type == TypeStartGroupCollapsed,
		HighlightedMatch: -1,
	}
}

// ResetCounters clears the repeat and close-decoration counts before a rebuild.
func (e *ViewEntry) ResetCounters() {
	e.RepeatCount = 1
	e.CloseGroupDecorations = 0
	e.AdjacentResult = false
}

// SetSearchRegex caches the match ranges of re over the message text and
// returns how many there are. A nil regex clears them.
func (e *ViewEntry) SetSearchRegex(re *regexp.Regexp) int {
	e.SearchRegex = re
	e.SearchRanges = nil
	e.HighlightedMatch = -1
	if re == nil {
		return 0
	}
	for _, loc := range re.FindAllStringIndex(e.Message.Text, -1) {
		if loc[1] == loc[0] {
			continue
		}
		e.SearchRanges = append(e.SearchRanges, Range{Start: loc[0], End: loc[1]})
	}
	return len(e.SearchRanges)
}

// ExportString renders the entry as it is written by "save log": the text is
// repeated once per collapsed occurrence.
func (e *ViewEntry) ExportString() string {
	n := e.RepeatCount
	if n < 1 {
		n = 1
	}
	lines := make([]string, n)
	for i := range lines {
		lines[i] = e.Message.Text
	}
	return strings.Join(lines, "\n")
}
