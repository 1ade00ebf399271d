package command

import (
	"context"

	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// Request is sent to the evaluator for every submitted command.
type Request struct {
	ID                 int    `json:"id"`
	Surface            string `json:"surface"`
	Code               string `json:"code"`
	ExecutionContextID int    `json:"executionContextId,omitempty"`
	Namespace          string `json:"namespace,omitempty"`
}

// Result is the evaluator's answer to a request.
type Result struct {
	RequestID  int               `json:"requestId"`
	Text       string            `json:"text"`
	Exception  bool              `json:"exception,omitempty"`
	Parameters []model.Parameter `json:"parameters,omitempty"`
}

// Evaluator runs commands outside the console. A nil result with a nil
// error means the answer is delivered later through OnResult.
type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (*Result, error)
}

// Evaluated reports a command the host evaluated on its own. The command is
// identified by request id when it was submitted here, or by the transport
// id of a command message the host appended.
type Evaluated struct {
	RequestID        int     `json:"requestId,omitempty"`
	CommandMessageID string  `json:"commandMessageId,omitempty"`
	Command          string  `json:"command,omitempty"`
	Result           *Result `json:"result,omitempty"`
}

// Sink receives the messages the channel creates.
type Sink interface {
	Append(msg *model.LogMessage) *model.ViewEntry
	LookupMessage(messageID string) (*model.ViewEntry, bool)
}

// Persister stores prompt state between sessions.
type Persister interface {
	SaveHistory(surface string, items []string)
	SavePromptIndex(index int)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, req Request) (*Result, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
