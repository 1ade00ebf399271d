// Package command multiplexes the two console prompts onto the message
// stream: it appends command messages, dispatches them to an evaluator and
// links the results back to the command that produced them.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Channel owns the prompts and the request bookkeeping. It must only be
// used from the scheduler goroutine.
type Channel struct {
	ctx       context.Context
	sched     scheduler.Scheduler
	sink      Sink
	evaluator Evaluator
	persister Persister

	surfaces  []*Surface
	active    int
	lastIndex int

	nextID    int
	pending   map[int]*model.ViewEntry
	jobs      map[int]bool
	contextID int

	dirac DiracPrompt

	feedbackLevel int
	onFeedback    func(string)
}

// New creates a channel with the "js" and "dirac" prompts. evaluator may be
// nil, in which case commands are appended but never answered.
func New(ctx context.Context, sched scheduler.Scheduler, sink Sink, evaluator Evaluator) *Channel {
	return &Channel{
		ctx:       ctx,
		sched:     sched,
		sink:      sink,
		evaluator: evaluator,
		surfaces: []*Surface{
			newSurface(constants.PromptJS, model.TypeCommand),
			newSurface(constants.PromptDirac, model.TypeDiracCommand),
		},
		nextID:  1,
		pending: make(map[int]*model.ViewEntry),
		jobs:    make(map[int]bool),
		dirac:   DiracPrompt{Style: StyleInfo, Mode: ModeEdit},
	}
}

// SetPersister enables saving of histories and the active prompt.
func (c *Channel) SetPersister(p Persister) { c.persister = p }

// SetEvaluator replaces the evaluator.
func (c *Channel) SetEvaluator(e Evaluator) { c.evaluator = e }

// OnFeedback registers the feedback hook.
func (c *Channel) OnFeedback(fn func(string)) { c.onFeedback = fn }

// Surface returns the prompt with the given id, or nil.
func (c *Channel) Surface(id string) *Surface {
	for _, s := range c.surfaces {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Surfaces returns the prompts in cycling order.
func (c *Channel) Surfaces() []*Surface { return c.surfaces }

// Active returns the prompt receiving input.
func (c *Channel) Active() *Surface { return c.surfaces[c.active] }

// ActiveIndex returns the index of the active prompt.
func (c *Channel) ActiveIndex() int { return c.active }

// SetExecutionContext selects the evaluation target; 0 means none. A new
// target brings back the prompt that was active last.
func (c *Channel) SetExecutionContext(id int) {
	c.contextID = id
	c.switchIfAvail(c.active, c.lastIndex)
}

// ExecutionContext returns the current evaluation target.
func (c *Channel) ExecutionContext() int { return c.contextID }

// RestoreHistory loads persisted items for a prompt.
func (c *Channel) RestoreHistory(surface string, items []string) {
	if s := c.Surface(surface); s != nil {
		s.History.Restore(items)
	}
}

// RestorePromptIndex remembers the persisted prompt index; it is applied
// on the next execution context change.
func (c *Channel) RestorePromptIndex(i int) {
	c.lastIndex = c.normalize(i)
}

// Submit appends a command typed into the given prompt and dispatches it.
// It returns the request id, or false when nothing was submitted.
func (c *Channel) Submit(surfaceID, text string, replayID int) (int, bool) {
	s := c.Surface(surfaceID)
	if s == nil {
		util.LogWarnf("Submit: unknown prompt %q", surfaceID)
		return 0, false
	}
	if text == "" || c.contextID == 0 {
		return 0, false
	}

	id := replayID
	if id <= 0 {
		id = c.nextID
		c.nextID++
	} else if id >= c.nextID {
		c.nextID = id + 1
	}

	msg := &model.LogMessage{
		Source:    model.SourceJavaScript,
		Level:     model.LevelInfo,
		Type:      s.Type,
		Text:      text,
		Timestamp: c.now(),
		RequestID: id,
	}
	msg.BindExecutionContext(c.contextID)
	entry := c.sink.Append(msg)

	s.Text = ""
	s.History.Push(text)
	c.saveHistory(s)

	c.pending[id] = entry
	c.dispatch(Request{
		ID:                 id,
		Surface:            s.ID,
		Code:               text,
		ExecutionContextID: c.contextID,
		Namespace:          c.dirac.Namespace,
	})
	return id, true
}

func (c *Channel) dispatch(req Request) {
	if c.evaluator == nil {
		util.LogDebugf("No evaluator, request %d stays pending", req.ID)
		return
	}
	go func() {
		res, err := c.evaluator.Evaluate(c.ctx, req)
		if err != nil {
			util.LogWarnf("Evaluation of request %d failed: %v", req.ID, err)
			res = &Result{RequestID: req.ID, Text: err.Error(), Exception: true}
		}
		if res == nil {
			return
		}
		res.RequestID = req.ID
		c.sched.Post(func() { c.OnResult(*res) })
	}()
}

// OnResult appends the result of a request, linked to its command.
func (c *Channel) OnResult(res Result) *model.ViewEntry {
	origin := c.pending[res.RequestID]
	delete(c.pending, res.RequestID)
	return c.printResult(res, origin)
}

// OnCommandEvaluated handles a command the host evaluated: the command
// text joins the primary history and the result is linked to the command.
func (c *Channel) OnCommandEvaluated(ev Evaluated) *model.ViewEntry {
	if ev.Command != "" {
		js := c.surfaces[0]
		js.History.Push(ev.Command)
		c.saveHistory(js)
	}

	var origin *model.ViewEntry
	if ev.RequestID > 0 {
		origin = c.pending[ev.RequestID]
		delete(c.pending, ev.RequestID)
	}
	if origin == nil && ev.CommandMessageID != "" {
		origin, _ = c.sink.LookupMessage(ev.CommandMessageID)
	}
	if ev.Result == nil {
		return nil
	}
	return c.printResult(*ev.Result, origin)
}

func (c *Channel) printResult(res Result, origin *model.ViewEntry) *model.ViewEntry {
	level := model.LevelInfo
	if res.Exception {
		level = model.LevelError
	}
	msg := &model.LogMessage{
		Source:     model.SourceJavaScript,
		Level:      level,
		Type:       model.TypeResult,
		Text:       res.Text,
		Parameters: res.Parameters,
		Timestamp:  c.now(),
		RequestID:  res.RequestID,
	}
	if origin != nil {
		msg.SetOriginating(origin.ID)
		msg.BindExecutionContext(origin.Message.ExecutionContextID)
	} else {
		util.LogDebugf("Result for request %d has no pending command", res.RequestID)
	}
	return c.sink.Append(msg)
}

// Pending reports whether a request is still waiting for its result.
func (c *Channel) Pending(id int) bool {
	_, ok := c.pending[id]
	return ok
}

// PendingCount returns the number of unanswered requests.
func (c *Channel) PendingCount() int { return len(c.pending) }

// Switch activates the prompt with the given id.
func (c *Channel) Switch(id string) bool {
	for i, s := range c.surfaces {
		if s.ID == id {
			return c.switchIfAvail(c.active, i)
		}
	}
	util.LogWarnf("switchPrompt: unknown prompt id %q", id)
	return false
}

// SelectNext activates the following prompt, wrapping around.
func (c *Channel) SelectNext() bool { return c.switchIfAvail(c.active, c.active+1) }

// SelectPrev activates the preceding prompt, wrapping around.
func (c *Channel) SelectPrev() bool { return c.switchIfAvail(c.active, c.active-1) }

func (c *Channel) normalize(i int) int {
	n := len(c.surfaces)
	for i < 0 {
		i += n
	}
	return i % n
}

func (c *Channel) switchIfAvail(from, to int) bool {
	from, to = c.normalize(from), c.normalize(to)
	if from == to {
		return false
	}
	c.surfaces[from].Text = ""
	c.active = to
	c.lastIndex = to
	if c.persister != nil {
		c.persister.SavePromptIndex(to)
	}
	c.feedback(fmt.Sprintf("switched console prompt to '%s'", c.surfaces[to].ID))
	return true
}

// SetText replaces the active prompt's input.
func (c *Channel) SetText(text string) { c.Active().Text = text }

// HistoryPrevious recalls the previous history item into the active prompt.
func (c *Channel) HistoryPrevious() bool {
	s := c.Active()
	text, ok := s.History.Previous(s.Text)
	if ok {
		s.Text = text
	}
	return ok
}

// HistoryNext recalls the next history item into the active prompt.
func (c *Channel) HistoryNext() bool {
	s := c.Active()
	text, ok := s.History.Next()
	if ok {
		s.Text = text
	}
	return ok
}

// SubmitActive submits the active prompt's text.
func (c *Channel) SubmitActive() (int, bool) {
	s := c.Active()
	return c.Submit(s.ID, s.Text, 0)
}

func (c *Channel) saveHistory(s *Surface) {
	if c.persister != nil {
		c.persister.SaveHistory(s.ID, s.History.Tail(constants.PersistedHistorySize))
	}
}

func (c *Channel) now() float64 {
	return float64(c.sched.Now().UnixNano()) / 1e6
}

// EnableFeedback turns on per-message feedback; calls nest.
func (c *Channel) EnableFeedback() int {
	c.feedbackLevel++
	return c.feedbackLevel
}

// DisableFeedback undoes one EnableFeedback.
func (c *Channel) DisableFeedback() int {
	c.feedbackLevel--
	return c.feedbackLevel
}

// MessageFeedback reports an appended message to the feedback hook while
// feedback is enabled.
func (c *Channel) MessageFeedback(msg *model.LogMessage) {
	if c.feedbackLevel <= 0 {
		return
	}
	code := "JS"
	switch {
	case msg.Flavor != "":
		code = "DF"
	case msg.Type == model.TypeDiracCommand:
		code = "DC"
	}
	glue := "> "
	if strings.Contains(msg.Text, "\n") {
		glue = ">\n"
	}
	c.feedback(code + "." + msg.Level.String() + glue + msg.Text)
}

func (c *Channel) feedback(text string) {
	if c.onFeedback != nil {
		c.onFeedback(text)
	}
}
