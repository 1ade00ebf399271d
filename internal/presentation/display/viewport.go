package display

// Source is what the viewport scrolls over.
type Source interface {
	Count() int
	EstimatedHeight(i int) int
	Rows(i int) []string
}

// Viewport is an item-based scroller with a fixed row height budget. Top is
// the index of the first visible item.
type Viewport struct {
	source    Source
	height    int
	top       int
	onRefresh func()
}

// NewViewport creates a viewport of height rows over source.
func NewViewport(source Source, height int) *Viewport {
	return &Viewport{source: source, height: max(height, 1)}
}

// OnRefresh sets the function called by Refresh.
func (v *Viewport) OnRefresh(fn func()) {
	v.onRefresh = fn
}

// SetHeight changes the number of rows available.
func (v *Viewport) SetHeight(height int) {
	atBottom := v.IsScrolledToBottom()
	v.height = max(height, 1)
	if atBottom {
		v.ScrollToEnd()
	}
	v.clamp()
}

func (v *Viewport) Height() int {
	return v.height
}

// Top returns the first visible item index.
func (v *Viewport) Top() int {
	return v.top
}

// bottomTop is the top index of the last full screen.
func (v *Viewport) bottomTop() int {
	n := v.source.Count()
	if n == 0 {
		return 0
	}
	rows := 0
	for i := n - 1; i >= 0; i-- {
		rows += v.source.EstimatedHeight(i)
		if rows > v.height {
			return min(i+1, n-1)
		}
	}
	return 0
}

func (v *Viewport) clamp() {
	v.top = max(0, min(v.top, v.bottomTop()))
}

func (v *Viewport) IsScrolledToBottom() bool {
	return v.top >= v.bottomTop()
}

func (v *Viewport) ScrollToEnd() {
	v.top = v.bottomTop()
}

// ScrollBy moves the top by delta items.
func (v *Viewport) ScrollBy(delta int) {
	v.top += delta
	v.clamp()
}

// ScrollItemIntoView scrolls the least amount that shows item i in full,
// or its first rows when it is taller than the viewport.
func (v *Viewport) ScrollItemIntoView(i int) {
	if i < 0 || i >= v.source.Count() {
		return
	}
	if i < v.top {
		v.top = i
		return
	}
	rows := 0
	top := i
	for j := i; j >= v.top; j-- {
		rows += v.source.EstimatedHeight(j)
		if rows > v.height {
			break
		}
		top = j
	}
	if top > v.top {
		v.top = top
	}
}

// Refresh asks the owner to redraw.
func (v *Viewport) Refresh() {
	v.clamp()
	if v.onRefresh != nil {
		v.onRefresh()
	}
}

// Window renders the visible rows. At the bottom the last rows are shown
// so that the newest entry is always complete.
func (v *Viewport) Window() []string {
	n := v.source.Count()
	var rows []string
	if v.IsScrolledToBottom() {
		for i := v.top; i < n; i++ {
			rows = append(rows, v.source.Rows(i)...)
		}
		if len(rows) > v.height {
			rows = rows[len(rows)-v.height:]
		}
		return rows
	}
	for i := v.top; i < n && len(rows) < v.height; i++ {
		rows = append(rows, v.source.Rows(i)...)
	}
	if len(rows) > v.height {
		rows = rows[:v.height]
	}
	return rows
}
