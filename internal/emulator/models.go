package emulator

import (
	"encoding/json"
	"time"
)

// Observation is the compact structured snapshot of emulator-visible state
// after one step. It carries what reward computation and prompting need,
// never the raw frame buffer.
type Observation struct {
	Score        int       `json:"score"`
	Lives        int       `json:"lives"`
	Progress     float64   `json:"progress"`
	ScreenDigest string    `json:"screen_digest"`
	Terminal     bool      `json:"terminal"`
	Step         int       `json:"step"`
	Timestamp    time.Time `json:"timestamp"`
}

// Summary renders the observation as a compact JSON line used both in
// grounding turns and in oracle prompts.
func (o Observation) Summary() string {
	b, err := json.Marshal(struct {
		Score    int     `json:"score"`
		Lives    int     `json:"lives"`
		Progress float64 `json:"progress"`
		Screen   string  `json:"screen"`
		Terminal bool    `json:"terminal"`
		Step     int     `json:"step"`
	}{o.Score, o.Lives, o.Progress, o.ScreenDigest, o.Terminal, o.Step})
	if err != nil {
		return "{}"
	}
	return string(b)
}
