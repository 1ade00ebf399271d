package search

import (
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
)

// Progress mirrors how far a scan has got.
type Progress struct {
	Total    int  `json:"total"`
	Worked   int  `json:"worked"`
	Canceled bool `json:"canceled"`
	Done     bool `json:"done"`
}

// Job is one incremental scan. It searches for a bounded slice of time and
// then yields to the scheduler until the next slice.
type Job struct {
	index         *Index
	config        Config
	shouldJump    bool
	jumpBackwards bool

	next     int
	task     *scheduler.Task
	progress Progress
}

// Config returns the query this job scans for.
func (j *Job) Config() Config { return j.config }

// Progress returns a snapshot of the scan progress.
func (j *Job) Progress() Progress { return j.progress }

// Running reports whether more slices are scheduled.
func (j *Job) Running() bool {
	return !j.progress.Done && !j.progress.Canceled
}

// Cancel stops the scan. Matches found so far stay in the index, but none
// of them is highlighted.
func (j *Job) Cancel() {
	if !j.Running() {
		return
	}
	j.stop()
	j.progress.Canceled = true
	if j.index.job == j {
		j.index.unhighlight()
		j.index.current = -1
		j.index.notify()
	}
}

func (j *Job) stop() {
	if j.task != nil {
		j.task.Cancel()
		j.task = nil
	}
}

func (j *Job) slice() {
	j.task = nil
	if !j.Running() {
		return
	}
	x := j.index
	x.searchSlice(j)

	if j.shouldJump && len(x.matches) > 0 {
		j.shouldJump = false
		if j.jumpBackwards {
			x.JumpTo(-1)
		} else {
			x.JumpTo(0)
		}
	}

	if j.next >= x.source.Len() {
		j.progress.Done = true
		x.notify()
		return
	}
	x.notify()
	j.task = x.sched.AfterFunc(constants.SearchRescheduleDelay, j.slice)
}
