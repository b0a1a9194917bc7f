package storage

import "time"

// StepRecord is one line of the append-only step log: the action applied,
// who supplied it, and how the transition scored.
type StepRecord struct {
	Time           time.Time `json:"time"`
	SessionID      string    `json:"session_id"`
	GameID         string    `json:"game_id"`
	Mode           string    `json:"mode"`
	Step           int       `json:"step"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	Reward         float64   `json:"reward"`
	Tags           []string  `json:"tags,omitempty"`
	AIFallback     bool      `json:"ai_fallback,omitempty"`
	OverrodeHuman  bool      `json:"overridden_human,omitempty"`
	AdvisoryAction string    `json:"advisory_action,omitempty"`
	Terminal       bool      `json:"terminal,omitempty"`
}

// Recorder appends step records. Implementations must be safe for
// concurrent use; readers always observe a prefix of appended records.
type Recorder interface {
	AppendStep(rec StepRecord) error
}

// Loader reads back the append-only step log.
type Loader interface {
	LoadSteps() ([]StepRecord, error)
}
