// Package reward scores emulator state transitions. The weighting is plain
// configuration keyed by event name so per-game tuning never touches code.
package reward

import (
	"iaboy/internal/emulator"
)

// Recognized weight keys. Anything else in the map is ignored, and a missing
// key contributes zero, so a partial or empty mapping never fails.
const (
	WeightScoreDelta    = "score_delta"
	WeightLifeLost      = "life_lost"
	WeightLevelComplete = "level_complete"
)

// Event is the scored outcome of one observation pair.
type Event struct {
	Reward float64              `json:"reward"`
	Tags   []string             `json:"tags,omitempty"`
	Prev   emulator.Observation `json:"prev"`
	Curr   emulator.Observation `json:"curr"`
}

type Engine struct {
	weights map[string]float64
}

func New(weights map[string]float64) *Engine {
	w := make(map[string]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	return &Engine{weights: w}
}

// DefaultWeights reproduce the stock policy: reward proportional to score
// delta, a fixed penalty on life loss, a large bonus on level completion.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		WeightScoreDelta:    1,
		WeightLifeLost:      -25,
		WeightLevelComplete: 100,
	}
}

// Score is pure and deterministic: identical observation pairs always yield
// an identical Event.
func (e *Engine) Score(prev, curr emulator.Observation) Event {
	ev := Event{Prev: prev, Curr: curr}

	delta := curr.Score - prev.Score
	if delta > 0 {
		ev.Tags = append(ev.Tags, "score_increased")
	} else if delta < 0 {
		ev.Tags = append(ev.Tags, "score_decreased")
	}
	ev.Reward += float64(delta) * e.weights[WeightScoreDelta]

	if curr.Lives < prev.Lives {
		ev.Tags = append(ev.Tags, "life_lost")
		ev.Reward += e.weights[WeightLifeLost]
	} else if curr.Lives > prev.Lives {
		ev.Tags = append(ev.Tags, "life_gained")
	}

	if curr.Progress > prev.Progress {
		ev.Tags = append(ev.Tags, "progress_advanced")
	}
	if curr.Progress >= 1 && prev.Progress < 1 {
		ev.Tags = append(ev.Tags, "level_complete")
		ev.Reward += e.weights[WeightLevelComplete]
	}
	if curr.Terminal {
		ev.Tags = append(ev.Tags, "game_over")
	}
	return ev
}
