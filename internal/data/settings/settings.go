// Package settings persists console preferences and prompt histories.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/core/filter"
	"github.com/penwyp/go-dirac-console/internal/core/scheduler"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Values is the persisted document.
type Values struct {
	ConsoleHistory           []string `json:"consoleHistory"`
	DiracHistory             []string `json:"diracHistory"`
	ConsolePromptIndex       int      `json:"consolePromptIndex"`
	ConsoleTimestampsEnabled bool     `json:"consoleTimestampsEnabled"`
	filter.Persisted
}

func (v Values) clone() Values {
	out := v
	out.ConsoleHistory = append([]string(nil), v.ConsoleHistory...)
	out.DiracHistory = append([]string(nil), v.DiracHistory...)
	out.MessageURLFilters = cloneMap(v.MessageURLFilters)
	out.MessageLevelFilters = cloneMap(v.MessageLevelFilters)
	return out
}

func cloneMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store keeps the values in memory and writes them to a JSON file shortly
// after each change. A store without a path never touches disk.
type Store struct {
	path  string
	sched scheduler.Scheduler

	mu     sync.Mutex
	values Values
	save   *scheduler.Task
	dirty  bool
}

// NewMemory creates a store that is never written.
func NewMemory() *Store {
	return &Store{}
}

// Open loads path if it exists. Saves are debounced through sched; with a
// nil scheduler every change is written immediately.
func Open(path string, sched scheduler.Scheduler) (*Store, error) {
	s := &Store{path: path, sched: sched}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := sonic.Unmarshal(data, &s.values); err != nil {
		util.LogWarnf("Ignoring unreadable settings %s: %v", path, err)
		s.values = Values{}
	}
	return s, nil
}

// Path returns the backing file, or "".
func (s *Store) Path() string { return s.path }

// Values returns a copy of the current values.
func (s *Store) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.clone()
}

// Update mutates the values and schedules a save.
func (s *Store) Update(fn func(*Values)) {
	s.mu.Lock()
	fn(&s.values)
	s.dirty = true
	s.mu.Unlock()
	s.scheduleSave()
}

// History returns the persisted history of a prompt.
func (s *Store) History(surface string) []string {
	v := s.Values()
	if surface == constants.PromptDirac {
		return v.DiracHistory
	}
	return v.ConsoleHistory
}

// SaveHistory stores the newest items of a prompt's history.
func (s *Store) SaveHistory(surface string, items []string) {
	if n := len(items) - constants.PersistedHistorySize; n > 0 {
		items = items[n:]
	}
	items = append([]string(nil), items...)
	s.Update(func(v *Values) {
		if surface == constants.PromptDirac {
			v.DiracHistory = items
		} else {
			v.ConsoleHistory = items
		}
	})
}

// SavePromptIndex stores the active prompt.
func (s *Store) SavePromptIndex(index int) {
	s.Update(func(v *Values) { v.ConsolePromptIndex = index })
}

// SaveFilters stores the persistent filter settings.
func (s *Store) SaveFilters(p filter.Persisted) {
	s.Update(func(v *Values) { v.Persisted = p })
}

// SaveTimestamps stores the timestamps toggle.
func (s *Store) SaveTimestamps(enabled bool) {
	s.Update(func(v *Values) { v.ConsoleTimestampsEnabled = enabled })
}

func (s *Store) scheduleSave() {
	if s.path == "" {
		return
	}
	if s.sched == nil {
		if err := s.Flush(); err != nil {
			util.LogErrorf("Failed to save settings: %v", err)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.save.Pending() {
		return
	}
	s.save = s.sched.AfterFunc(constants.SettingsSaveDelay, func() {
		if err := s.Flush(); err != nil {
			util.LogErrorf("Failed to save settings: %v", err)
		}
	})
}

// Flush writes pending changes now.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save.Cancel()
	s.save = nil
	if !s.dirty || s.path == "" {
		return nil
	}

	data, err := sonic.ConfigStd.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	s.dirty = false
	util.LogDebugf("Settings saved to %s", s.path)
	return nil
}
