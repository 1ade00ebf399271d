package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// IsDiracLog reports whether msg is a REPL log message carrying the marker.
func IsDiracLog(msg *model.LogMessage) bool {
	return msg.Text == constants.DiracLogMarker
}

// AppendDiracLog rewrites a marker message into a REPL message and appends
// it. The message is linked to the pending command with the same request
// id, and later REPL output for that request links to this message.
func (c *Channel) AppendDiracLog(msg *model.LogMessage) *model.ViewEntry {
	requestID, ok := alterDiracMessage(msg)
	var origin *model.ViewEntry
	if ok {
		origin = c.pending[requestID]
	}
	if origin != nil {
		msg.SetOriginating(origin.ID)
	}

	entry := c.sink.Append(msg)
	if origin != nil {
		c.pending[requestID] = entry
	}
	return entry
}

// alterDiracMessage drops the marker parameter and the source location,
// then reads the request id and kind. Missing parameters leave them unset.
func alterDiracMessage(msg *model.LogMessage) (requestID int, ok bool) {
	params := msg.Parameters
	if len(params) > 0 {
		params = params[1:]
	}
	msg.URL = ""
	msg.Line = 0

	var kind string
	if len(params) > 0 {
		requestID, ok = paramInt(params[0])
		params = params[1:]
	}
	if len(params) > 0 {
		kind, _ = params[0].Value.(string)
		params = params[1:]
	}
	if kind == "result" {
		msg.Type = model.TypeResult
	}

	msg.Parameters = params
	msg.Text = formatParams(params)
	msg.RequestID = requestID
	msg.Flavor = "dirac"
	if kind != "" {
		msg.Flavor = "dirac-" + kind
	}
	return requestID, ok
}

func paramInt(p model.Parameter) (int, bool) {
	switch v := p.Value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func formatParams(params []model.Parameter) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		switch {
		case p.Value != nil:
			parts = append(parts, fmt.Sprint(p.Value))
		case p.Description != "":
			parts = append(parts, p.Description)
		}
	}
	return strings.Join(parts, " ")
}

// HandleDiracMessage executes an "eval-cljs" or "eval-js" request sent by the
// REPL through the console. The second parameter names the command and the
// third carries the code.
func (c *Channel) HandleDiracMessage(msg *model.LogMessage) bool {
	var command, code string
	if len(msg.Parameters) > 1 {
		command, _ = msg.Parameters[1].Value.(string)
	}
	if len(msg.Parameters) > 2 {
		code, _ = msg.Parameters[2].Value.(string)
	}

	switch command {
	case "eval-cljs":
		_, ok := c.Submit(constants.PromptDirac, code, 0)
		return ok
	case "eval-js":
		_, ok := c.Submit(constants.PromptJS, code, 0)
		return ok
	}
	util.LogWarnf("Unrecognized Dirac message: %q", command)
	return false
}

// AppendMarkup appends an informational markup message.
func (c *Channel) AppendMarkup(markup string) *model.ViewEntry {
	return c.sink.Append(&model.LogMessage{
		Source:    model.SourceOther,
		Level:     model.LevelInfo,
		Type:      model.TypeDiracMarkup,
		Text:      markup,
		Timestamp: c.now(),
	})
}

// WelcomeMarkup is the banner shown when the console starts.
func WelcomeMarkup(version string) string {
	return strings.Join([]string{
		"Welcome to Dirac DevTools hosted in go-dirac-console v" + version + ".",
		"Use Tab and Shift-Tab to cycle between Javascript and ClojureScript prompts.",
		"In connected ClojureScript prompt, you can enter (dirac!) for more info.",
	}, "\n")
}

// DisplayWelcome appends the welcome banner.
func (c *Channel) DisplayWelcome(version string) *model.ViewEntry {
	c.feedback("displayWelcomeMessage")
	return c.AppendMarkup(WelcomeMarkup(version))
}

// OnJobStarted records a REPL evaluation job.
func (c *Channel) OnJobStarted(requestID int) {
	c.jobs[requestID] = true
	c.feedback("repl eval job started")
}

// OnJobEnded finishes a REPL job; later output is no longer linked.
func (c *Channel) OnJobEnded(requestID int) {
	delete(c.jobs, requestID)
	delete(c.pending, requestID)
	c.feedback("repl eval job ended")
}

// Busy reports whether any REPL job is running.
func (c *Channel) Busy() bool { return len(c.jobs) > 0 }

// Dirac returns the alternate prompt's status.
func (c *Channel) Dirac() DiracPrompt { return c.dirac }

func (c *Channel) SetDiracStatusContent(s string) {
	c.feedback("setDiracPromptStatusContent('" + s + "')")
	c.dirac.StatusContent = s
}

func (c *Channel) SetDiracStatusBanner(s string) {
	c.feedback("setDiracPromptStatusBanner('" + s + "')")
	c.dirac.StatusBanner = s
}

// SetDiracStatusStyle sets the status style. Unknown styles are logged and
// stored anyway; they match neither known style.
func (c *Channel) SetDiracStatusStyle(style StatusStyle) {
	c.feedback("setDiracPromptStatusStyle('" + string(style) + "')")
	if style != StyleInfo && style != StyleError {
		util.LogWarnf("Unknown style passed to setDiracPromptStatusStyle: %q", style)
	}
	c.dirac.Style = style
}

func (c *Channel) SetDiracMode(mode PromptMode) {
	c.feedback("setDiracPromptMode('" + string(mode) + "')")
	if mode != ModeEdit && mode != ModeStatus {
		util.LogWarnf("Unknown mode passed to setDiracPromptMode: %q", mode)
	}
	c.dirac.Mode = mode
}

func (c *Channel) SetDiracNamespace(ns string) {
	c.feedback("setDiracPromptNS('" + ns + "')")
	c.dirac.Namespace = ns
}

func (c *Channel) SetDiracCompiler(name string) {
	c.dirac.Compiler = name
}
