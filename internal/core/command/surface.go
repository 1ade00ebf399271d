package command

import (
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// Surface is one input prompt: its pending text and its history.
type Surface struct {
	ID      string
	Type    model.Type
	Text    string
	History *History
}

func newSurface(id string, typ model.Type) *Surface {
	return &Surface{ID: id, Type: typ, History: NewHistory(constants.PersistedHistorySize)}
}

// StatusStyle colours the alternate prompt's status line.
type StatusStyle string

const (
	StyleInfo  StatusStyle = "info"
	StyleError StatusStyle = "error"
)

// PromptMode selects whether the alternate prompt accepts input.
type PromptMode string

const (
	ModeEdit   PromptMode = "edit"
	ModeStatus PromptMode = "status"
)

// DiracPrompt describes the alternate prompt's status line and placeholder.
type DiracPrompt struct {
	StatusContent string      `json:"statusContent"`
	StatusBanner  string      `json:"statusBanner"`
	Style         StatusStyle `json:"style"`
	Mode          PromptMode  `json:"mode"`
	Namespace     string      `json:"namespace"`
	Compiler      string      `json:"compiler"`
}

// Placeholder is shown in the empty alternate prompt.
func (p DiracPrompt) Placeholder() string {
	if p.Compiler == "" {
		return p.Namespace
	}
	return p.Namespace + " " + p.Compiler
}
