package command

// History is a bounded ring of submitted inputs with shell-style up/down
// navigation. The oldest item is evicted once the limit is reached.
type History struct {
	items  []string
	limit  int
	cursor int
	draft  string
}

// NewHistory creates a history holding at most limit items.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 1
	}
	return &History{limit: limit}
}

// Push records text. Empty input and an immediate repeat of the newest
// item are ignored. Navigation is reset either way.
func (h *History) Push(text string) {
	defer h.resetCursor()
	if text == "" {
		return
	}
	if n := len(h.items); n > 0 && h.items[n-1] == text {
		return
	}
	h.items = append(h.items, text)
	if over := len(h.items) - h.limit; over > 0 {
		h.items = append([]string(nil), h.items[over:]...)
	}
}

// Restore replaces the items, keeping only the newest limit of them.
func (h *History) Restore(items []string) {
	if over := len(items) - h.limit; over > 0 {
		items = items[over:]
	}
	h.items = append([]string(nil), items...)
	h.resetCursor()
}

// Items returns a copy, oldest first.
func (h *History) Items() []string {
	return append([]string(nil), h.items...)
}

// Tail returns the newest n items, oldest first.
func (h *History) Tail(n int) []string {
	if n < len(h.items) {
		return append([]string(nil), h.items[len(h.items)-n:]...)
	}
	return h.Items()
}

// Len returns the number of stored items.
func (h *History) Len() int { return len(h.items) }

// Clear drops every item.
func (h *History) Clear() {
	h.items = nil
	h.resetCursor()
}

// Previous steps back. current is the text being edited; it is returned
// again once navigation comes back past the newest item.
func (h *History) Previous(current string) (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	if h.cursor == len(h.items) {
		h.draft = current
	}
	h.cursor--
	return h.items[h.cursor], true
}

// Next steps forward, ending on the saved draft.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.items) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.items) {
		return h.draft, true
	}
	return h.items[h.cursor], true
}

func (h *History) resetCursor() {
	h.cursor = len(h.items)
	h.draft = ""
}
