// Package history keeps the per-session dialogue used to ground oracle
// prompts. Storage is bounded: oldest turns are evicted first, except the
// most recent state-grounding turn which always survives.
package history

import (
	"sync"
)

type Turn struct {
	Role      string // user | assistant | system
	Content   string
	Grounding bool // true for system turns that summarize game state
	Step      int  // observation step a grounding turn refers to
}

type Manager struct {
	mu       sync.RWMutex
	maxTurns int
	maxChars int
	sessions map[string][]Turn
}

func NewManager(maxTurns, maxChars int) *Manager {
	return &Manager{
		maxTurns: maxTurns,
		maxChars: maxChars,
		sessions: make(map[string][]Turn),
	}
}

func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) AppendUser(sessionID, content string) {
	m.Append(sessionID, Turn{Role: "user", Content: content})
}

func (m *Manager) AppendAssistant(sessionID, content string) {
	m.Append(sessionID, Turn{Role: "assistant", Content: content})
}

// AppendGrounding records a system turn that pins the dialogue to the
// current game state.
func (m *Manager) AppendGrounding(sessionID, content string, step int) {
	m.Append(sessionID, Turn{Role: "system", Content: content, Grounding: true, Step: step})
}

func (m *Manager) Append(sessionID string, t Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.sessions[sessionID], t)
	m.sessions[sessionID] = m.evict(turns)
}

// evict trims from the oldest end until both budgets hold, never dropping
// the latest grounding turn.
func (m *Manager) evict(turns []Turn) []Turn {
	keepGrounding := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Grounding {
			keepGrounding = i
			break
		}
	}
	for m.overBudget(turns) {
		victim := -1
		for i := range turns {
			if i != keepGrounding {
				victim = i
				break
			}
		}
		if victim == -1 {
			break
		}
		turns = append(turns[:victim], turns[victim+1:]...)
		if keepGrounding > victim {
			keepGrounding--
		}
	}
	return turns
}

func (m *Manager) overBudget(turns []Turn) bool {
	if m.maxTurns > 0 && len(turns) > m.maxTurns {
		return true
	}
	if m.maxChars > 0 {
		total := 0
		for _, t := range turns {
			total += len(t.Content)
		}
		if total > m.maxChars {
			return true
		}
	}
	return false
}

// Recent returns up to limit most recent turns, oldest first. The result is
// a copy; mutating it does not affect stored state. limit <= 0 returns all.
func (m *Manager) Recent(sessionID string, limit int) []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	turns := m.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (m *Manager) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions[sessionID])
}
