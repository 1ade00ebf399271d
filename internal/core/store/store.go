// Package store holds every console message received, ordered for display.
package store

import (
	"sort"

	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// Store is the ordered collection of all view entries. Entries are kept in
// non-decreasing sort-key order; commands and results inherit the key of
// the entry stored before them so they stay adjacent to it.
type Store struct {
	entries   []*model.ViewEntry
	byID      map[int64]*model.ViewEntry
	byMsgID   map[string]*model.ViewEntry
	urlCounts map[string]int
	nextID    int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:      make(map[int64]*model.ViewEntry),
		byMsgID:   make(map[string]*model.ViewEntry),
		urlCounts: make(map[string]int),
	}
}

// Insert wraps msg in a view entry and places it at the upper bound of its
// sort key. atEnd reports whether it landed after every existing entry.
func (s *Store) Insert(msg *model.LogMessage) (entry *model.ViewEntry, atEnd bool) {
	s.nextID++
	entry = model.NewViewEntry(s.nextID, msg, s.sortKeyFor(msg))

	at := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].SortKey > entry.SortKey
	})
	atEnd = at == len(s.entries)

	s.entries = append(s.entries, nil)
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = entry

	s.byID[entry.ID] = entry
	if msg.MessageID != "" {
		s.byMsgID[msg.MessageID] = entry
	}
	s.urlCounts[msg.URL]++
	return entry, atEnd
}

func (s *Store) sortKeyFor(msg *model.LogMessage) float64 {
	if msg.Type == model.TypeCommand || msg.Type == model.TypeResult {
		if len(s.entries) == 0 {
			return 0
		}
		return s.entries[len(s.entries)-1].SortKey
	}
	return msg.Timestamp
}

// Lookup returns the entry with the given store id.
func (s *Store) Lookup(id int64) (*model.ViewEntry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// LookupMessage returns the entry for a transport message id.
func (s *Store) LookupMessage(messageID string) (*model.ViewEntry, bool) {
	e, ok := s.byMsgID[messageID]
	return e, ok
}

// Update swaps in a newer revision of a message already stored under the
// same transport id. The entry keeps its position and originating link.
func (s *Store) Update(msg *model.LogMessage) (*model.ViewEntry, bool) {
	if msg.MessageID == "" {
		return nil, false
	}
	e, ok := s.byMsgID[msg.MessageID]
	if !ok {
		return nil, false
	}
	msg.SetOriginating(e.Message.OriginatingID())
	e.Message = msg
	e.Kind = model.KindOf(msg.Type)
	return e, true
}

// Originating resolves the command entry a result was produced by.
func (s *Store) Originating(e *model.ViewEntry) (*model.ViewEntry, bool) {
	id := e.Message.OriginatingID()
	if id == 0 {
		return nil, false
	}
	return s.Lookup(id)
}

// Entries returns the stored entries in display order. The slice must not be modified.
func (s *Store) Entries() []*model.ViewEntry {
	return s.entries
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Last returns the most recently ordered entry.
func (s *Store) Last() *model.ViewEntry {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// URLCount returns how many messages with url were ever inserted.
func (s *Store) URLCount(url string) int {
	return s.urlCounts[url]
}

// URLCounts returns a copy of the per-URL counters.
func (s *Store) URLCounts() map[string]int {
	out := make(map[string]int, len(s.urlCounts))
	for k, v := range s.urlCounts {
		out[k] = v
	}
	return out
}

// Clear drops every entry and counter. Ids keep increasing across clears
// so stale originating links never resolve to a new entry.
func (s *Store) Clear() {
	s.entries = nil
	s.byID = make(map[int64]*model.ViewEntry)
	s.byMsgID = make(map[string]*model.ViewEntry)
	s.urlCounts = make(map[string]int)
}
