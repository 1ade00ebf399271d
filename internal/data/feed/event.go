// Package feed decodes inspector events and delivers them from files,
// tailed logs and WebSocket connections.
package feed

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/model"
)

// Kind names an inbound event.
type Kind string

const (
	KindMessageAdded            Kind = "messageAdded"
	KindMessageUpdated          Kind = "messageUpdated"
	KindConsoleCleared          Kind = "consoleCleared"
	KindCommandEvaluated        Kind = "commandEvaluated"
	KindDiracMessage            Kind = "diracMessage"
	KindJobStarted              Kind = "jobStarted"
	KindJobEnded                Kind = "jobEnded"
	KindExecutionContextChanged Kind = "executionContextChanged"
)

var knownKinds = map[Kind]bool{
	KindMessageAdded:            true,
	KindMessageUpdated:          true,
	KindConsoleCleared:          true,
	KindCommandEvaluated:        true,
	KindDiracMessage:            true,
	KindJobStarted:              true,
	KindJobEnded:                true,
	KindExecutionContextChanged: true,
}

// Event is one line of a feed.
type Event struct {
	Kind               Kind               `json:"event"`
	Message            *model.LogMessage  `json:"message,omitempty"`
	Evaluated          *command.Evaluated `json:"evaluated,omitempty"`
	RequestID          int                `json:"requestId,omitempty"`
	ExecutionContextID int                `json:"executionContextId,omitempty"`
}

// Handler consumes decoded events.
type Handler func(Event)

// Decode parses one JSON event and checks that it carries what its kind
// needs.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Validate rejects unknown kinds and events missing their payload.
func (ev Event) Validate() error {
	if !knownKinds[ev.Kind] {
		return fmt.Errorf("unknown event %q", ev.Kind)
	}
	switch ev.Kind {
	case KindMessageAdded, KindMessageUpdated, KindDiracMessage:
		if ev.Message == nil {
			return fmt.Errorf("event %q without message", ev.Kind)
		}
	case KindCommandEvaluated:
		if ev.Evaluated == nil {
			return fmt.Errorf("event %q without evaluation", ev.Kind)
		}
	}
	return nil
}

// Encode renders an event as a single JSON line.
func Encode(ev Event) ([]byte, error) {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return data, nil
}
