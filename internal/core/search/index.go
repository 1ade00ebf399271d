// Package search implements incremental find-in-console over the visible list.
package search

import (
	"regexp"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
)

// Source is the list being searched.
type Source interface {
	Len() int
	At(i int) *model.ViewEntry
}

// Match locates one occurrence: the visible index of the entry and the
// ordinal of the match inside its text.
type Match struct {
	MessageIndex int `json:"messageIndex"`
	MatchIndex   int `json:"matchIndex"`
}

// Status is reported whenever the match count or the current match changes.
type Status struct {
	Count     int
	Current   int
	Searching bool
}

// Index holds the matches of the active query.
type Index struct {
	sched  scheduler.Scheduler
	source Source

	regex   *regexp.Regexp
	matches []Match
	current int
	job     *Job

	onStatus func(Status)
	onJump   func(messageIndex int)
}

// NewIndex creates an index over source.
func NewIndex(sched scheduler.Scheduler, source Source) *Index {
	return &Index{sched: sched, source: source, current: -1}
}

// OnStatus registers the status callback.
func (x *Index) OnStatus(fn func(Status)) { x.onStatus = fn }

// OnJump registers the callback that scrolls a visible index into view.
func (x *Index) OnJump(fn func(messageIndex int)) { x.onJump = fn }

// Start cancels the previous search and starts scanning for cfg. When
// shouldJump is set, the first slice that finds anything jumps to the
// first match, or to the last one when jumpBackwards is set.
func (x *Index) Start(cfg Config, shouldJump, jumpBackwards bool) *Job {
	x.Cancel()

	x.regex = cfg.Regex()
	job := &Job{
		index:         x,
		config:        cfg,
		shouldJump:    shouldJump,
		jumpBackwards: jumpBackwards,
		progress:      Progress{Total: x.source.Len()},
	}
	x.job = job
	x.notify()
	job.slice()
	return job
}

// Cancel ends the search: the continuation is stopped and every entry
// drops its cached ranges.
func (x *Index) Cancel() {
	if x.job != nil {
		x.job.stop()
		if x.job.Running() {
			x.job.progress.Canceled = true
		}
		x.job = nil
	}
	for i := 0; i < x.source.Len(); i++ {
		x.source.At(i).SetSearchRegex(nil)
	}
	x.regex = nil
	x.matches = nil
	x.current = -1
	x.notify()
}

// Next highlights the following match, wrapping around.
func (x *Index) Next() { x.JumpTo(x.current + 1) }

// Previous highlights the preceding match, wrapping around.
func (x *Index) Previous() { x.JumpTo(x.current - 1) }

// JumpTo highlights match i mod the match count. Exactly one match is
// highlighted afterwards.
func (x *Index) JumpTo(i int) {
	n := len(x.matches)
	if n == 0 {
		return
	}
	x.unhighlight()
	i = ((i % n) + n) % n
	x.current = i
	m := x.matches[i]
	if e := x.source.At(m.MessageIndex); e != nil {
		e.HighlightedMatch = m.MatchIndex
	}
	x.notify()
	if x.onJump != nil {
		x.onJump(m.MessageIndex)
	}
}

func (x *Index) unhighlight() {
	if x.current < 0 || x.current >= len(x.matches) {
		return
	}
	if e := x.source.At(x.matches[x.current].MessageIndex); e != nil {
		e.HighlightedMatch = -1
	}
}

// Matches returns a copy of the matches found so far.
func (x *Index) Matches() []Match {
	out := make([]Match, len(x.matches))
	copy(out, x.matches)
	return out
}

// Count returns the number of matches found so far.
func (x *Index) Count() int { return len(x.matches) }

// Current returns the highlighted match ordinal, or -1.
func (x *Index) Current() int { return x.current }

// Regex returns the active query regex.
func (x *Index) Regex() *regexp.Regexp { return x.regex }

// Job returns the running or last search job.
func (x *Index) Job() *Job { return x.job }

// Searching reports whether a scan is still in progress.
func (x *Index) Searching() bool {
	return x.job != nil && x.job.Running()
}

func (x *Index) searchMessage(i int) {
	e := x.source.At(i)
	n := e.SetSearchRegex(x.regex)
	for m := 0; m < n; m++ {
		x.matches = append(x.matches, Match{MessageIndex: i, MatchIndex: m})
	}
}

func (x *Index) notify() {
	if x.onStatus != nil {
		x.onStatus(Status{Count: len(x.matches), Current: x.current, Searching: x.Searching()})
	}
}

// VisibleReset drops matches before the list is rebuilt. A scan in progress
// is abandoned; the rebuild re-searches every entry as it is appended.
func (x *Index) VisibleReset() {
	if x.job != nil {
		x.job.stop()
		x.job.progress.Done = true
	}
	x.matches = nil
	x.current = -1
}

// VisibleAppended searches a newly visible entry unless a scan will reach it.
func (x *Index) VisibleAppended(i int, _ *model.ViewEntry) {
	if x.regex == nil || x.Searching() {
		return
	}
	x.searchMessage(i)
}

// VisibleRebuilt reports the recomputed match count.
func (x *Index) VisibleRebuilt() {
	x.notify()
}

// searchSlice scans from j.next until the slice budget is spent.
func (x *Index) searchSlice(j *Job) {
	start := x.sched.Now()
	for j.next < x.source.Len() {
		x.searchMessage(j.next)
		j.next++
		if x.sched.Now().Sub(start) >= constants.SearchSliceBudget {
			break
		}
	}
	j.progress.Worked = j.next
}
