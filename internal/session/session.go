package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"iaboy/internal/actions"
	"iaboy/internal/emulator"
	"iaboy/internal/reward"
)

// Mode selects who supplies the acting input each step.
type Mode string

const (
	ModeHumanOnly Mode = "human-only"
	ModeAIOnly    Mode = "ai-only"
	ModeCoopTurn  Mode = "coop-turn"
	ModeCoopBlend Mode = "coop-blend"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeHumanOnly:
		return ModeHumanOnly, nil
	case ModeAIOnly:
		return ModeAIOnly, nil
	case ModeCoopTurn:
		return ModeCoopTurn, nil
	case ModeCoopBlend:
		return ModeCoopBlend, nil
	default:
		return "", fmt.Errorf("unknown control mode: %q", s)
	}
}

// InvolvesAI reports whether the AI actor can act in this mode.
func (m Mode) InvolvesAI() bool { return m != ModeHumanOnly }

// Session owns exactly one emulator engine. The step mutex serializes every
// engine access so at most one step is ever in flight per session.
type Session struct {
	ID        string
	GameID    string
	Game      emulator.Game
	Mode      Mode
	CreatedAt time.Time

	engine emulator.Engine
	vocab  *actions.Vocabulary

	stepMu sync.Mutex

	mu         sync.RWMutex
	lastStepAt time.Time
	steps      int
	closed     bool
	prev       emulator.Observation
	curr       emulator.Observation
	rewards    []reward.Event
	lastSave   []byte
}

func (s *Session) setLastSave(blob []byte) {
	s.mu.Lock()
	s.lastSave = blob
	s.mu.Unlock()
}

func (s *Session) lastSaveBlob() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSave
}

func (s *Session) Vocabulary() *actions.Vocabulary { return s.vocab }

func (s *Session) Steps() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps
}

func (s *Session) LastStepAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStepAt
}

func (s *Session) Current() emulator.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curr
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// RewardHistory returns a copy of the append-only reward log. Concurrent
// readers observe a prefix of completed steps.
func (s *Session) RewardHistory() []reward.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reward.Event, len(s.rewards))
	copy(out, s.rewards)
	return out
}

// Info is the read-only snapshot returned by listings.
type Info struct {
	ID         string    `json:"session_id"`
	GameID     string    `json:"game_id"`
	Mode       string    `json:"mode"`
	CreatedAt  time.Time `json:"created_at"`
	LastStepAt time.Time `json:"last_step_at"`
	Steps      int       `json:"steps"`
	Terminal   bool      `json:"terminal"`
}

func (s *Session) Snapshot() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{
		ID:         s.ID,
		GameID:     s.GameID,
		Mode:       string(s.Mode),
		CreatedAt:  s.CreatedAt,
		LastStepAt: s.lastStepAt,
		Steps:      s.steps,
		Terminal:   s.curr.Terminal,
	}
}
