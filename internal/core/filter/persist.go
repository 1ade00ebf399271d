package filter

import "github.com/penwyp/go-dirac-console/internal/core/model"

// Persisted is the settings-store form of the filter configuration. The
// text query and sidebar context are session-only.
type Persisted struct {
	MessageURLFilters            map[string]bool `json:"messageURLFilters"`
	MessageLevelFilters          map[string]bool `json:"messageLevelFilters"`
	HideNetworkMessages          bool            `json:"hideNetworkMessages"`
	SelectedContextFilterEnabled bool            `json:"selectedContextFilterEnabled"`
	ConsoleAPIFilterEnabled      bool            `json:"consoleAPIFilterEnabled"`
}

// Persisted snapshots the persistent part of the state.
func (e *Engine) Persisted() Persisted {
	p := Persisted{
		MessageURLFilters:            make(map[string]bool, len(e.state.BlockedURLs)),
		MessageLevelFilters:          make(map[string]bool, len(model.Levels)),
		HideNetworkMessages:          e.state.HideNetwork,
		SelectedContextFilterEnabled: e.state.FilterByExecutionContext,
		ConsoleAPIFilterEnabled:      e.state.ConsoleAPIOnly,
	}
	for u := range e.state.BlockedURLs {
		p.MessageURLFilters[u] = true
	}
	for _, l := range model.Levels {
		p.MessageLevelFilters[l.String()] = e.state.Levels[l]
	}
	return p
}

// Restore applies persisted settings and fires a single change.
// A missing level map keeps the defaults.
func (e *Engine) Restore(p Persisted) {
	e.state.BlockedURLs = make(map[string]bool, len(p.MessageURLFilters))
	for u, blocked := range p.MessageURLFilters {
		if blocked {
			e.state.BlockedURLs[u] = true
		}
	}
	if len(p.MessageLevelFilters) > 0 {
		levels := make(map[model.Level]bool, len(model.Levels))
		for _, l := range model.Levels {
			levels[l] = p.MessageLevelFilters[l.String()]
		}
		e.state.Levels = levels
	}
	e.state.HideNetwork = p.HideNetworkMessages
	e.state.FilterByExecutionContext = p.SelectedContextFilterEnabled
	e.state.ConsoleAPIOnly = p.ConsoleAPIFilterEnabled
	e.changed()
}
