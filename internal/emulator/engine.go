package emulator

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"iaboy/internal/actions"
)

// Engine is the synchronous facade over one emulator core. Exactly one
// session owns a given Engine, and the session serializes all calls, so
// implementations may assume single-threaded access.
type Engine interface {
	// Reset (re)starts the game from the beginning and returns the initial
	// observation.
	Reset() (Observation, error)
	// Step applies one validated action and advances the core by one step.
	Step(a actions.Action) (Observation, error)
	// Save serializes the full core state into an opaque blob.
	Save() ([]byte, error)
	// Load restores a blob produced by Save and returns the resulting
	// observation.
	Load(blob []byte) (Observation, error)
	// Close releases the core. Further calls fail.
	Close() error
}

// Factory creates an engine for a catalog entry.
type Factory func(game Game) (Engine, error)

// SyntheticEngine is a deterministic in-process core used when no native
// emulator is attached: directional input drives level progress, action
// buttons score points, and a fixed hazard cadence costs lives. It exists so
// the whole backend is runnable and testable without ROMs.
type SyntheticEngine struct {
	game      Game
	frameSkip int

	mu     sync.Mutex
	closed bool
	state  syntheticState
}

type syntheticState struct {
	Step     int     `json:"step"`
	Score    int     `json:"score"`
	Lives    int     `json:"lives"`
	Progress float64 `json:"progress"`
	GameID   string  `json:"game_id"`
}

const syntheticStartLives = 3

// Every hazardCadence-th step costs a life unless the player is moving.
const hazardCadence = 13

// NewSyntheticEngine returns a factory-compatible constructor.
func NewSyntheticEngine(game Game, frameSkip int) *SyntheticEngine {
	if frameSkip < 1 {
		frameSkip = 1
	}
	return &SyntheticEngine{game: game, frameSkip: frameSkip}
}

// SyntheticFactory adapts NewSyntheticEngine to the Factory signature.
func SyntheticFactory(frameSkip int) Factory {
	return func(game Game) (Engine, error) {
		return NewSyntheticEngine(game, frameSkip), nil
	}
}

func (e *SyntheticEngine) Reset() (Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Observation{}, fmt.Errorf("engine closed")
	}
	e.state = syntheticState{Lives: syntheticStartLives, GameID: e.game.ID}
	return e.observe(), nil
}

func (e *SyntheticEngine) Step(a actions.Action) (Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Observation{}, fmt.Errorf("engine closed")
	}
	if e.state.GameID == "" {
		return Observation{}, fmt.Errorf("engine not reset")
	}
	if e.state.Lives <= 0 || e.state.Progress >= 1 {
		return Observation{}, fmt.Errorf("game already over")
	}

	pressed := make(map[string]bool, len(a.Buttons))
	for _, b := range a.Buttons {
		pressed[b] = true
	}
	ticks := a.Hold
	if ticks < 1 {
		ticks = 1
	}
	ticks *= e.frameSkip

	for i := 0; i < ticks; i++ {
		if pressed["RIGHT"] {
			e.state.Progress += 0.02
		}
		if pressed["LEFT"] && e.state.Progress > 0 {
			e.state.Progress -= 0.01
			if e.state.Progress < 0 {
				e.state.Progress = 0
			}
		}
		for _, b := range a.Buttons {
			if b != "UP" && b != "DOWN" && b != "LEFT" && b != "RIGHT" {
				e.state.Score += 10
			}
		}
	}
	if e.state.Progress > 1 {
		e.state.Progress = 1
	}

	e.state.Step++
	moving := pressed["LEFT"] || pressed["RIGHT"] || pressed["UP"] || pressed["DOWN"]
	if e.state.Step%hazardCadence == 0 && !moving {
		e.state.Lives--
	}
	return e.observe(), nil
}

func (e *SyntheticEngine) Save() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine closed")
	}
	return json.Marshal(e.state)
}

func (e *SyntheticEngine) Load(blob []byte) (Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Observation{}, fmt.Errorf("engine closed")
	}
	var st syntheticState
	if err := json.Unmarshal(blob, &st); err != nil {
		return Observation{}, fmt.Errorf("corrupt state blob: %w", err)
	}
	if st.GameID != e.game.ID {
		return Observation{}, fmt.Errorf("state blob belongs to game %q, engine runs %q", st.GameID, e.game.ID)
	}
	e.state = st
	return e.observe(), nil
}

func (e *SyntheticEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *SyntheticEngine) observe() Observation {
	return Observation{
		Score:        e.state.Score,
		Lives:        e.state.Lives,
		Progress:     round3(e.state.Progress),
		ScreenDigest: e.digest(),
		Terminal:     e.state.Lives <= 0 || e.state.Progress >= 1,
		Step:         e.state.Step,
		Timestamp:    time.Now().UTC(),
	}
}

// digest stands in for a screen-region hash: deterministic in the state so
// identical states render identical digests.
func (e *SyntheticEngine) digest() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%d|%.3f", e.state.GameID, e.state.Step, e.state.Score, e.state.Lives, e.state.Progress)
	return fmt.Sprintf("%016x", h.Sum64())
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
