// Package analytics aggregates recorded step logs into per-session
// summaries for dashboards and offline inspection. It is read-only over the
// storage log and plays no part in step correctness.
package analytics

import (
	"sort"

	"iaboy/internal/storage"
)

// SessionStats summarizes one session's recorded steps.
type SessionStats struct {
	SessionID    string         `json:"session_id"`
	GameID       string         `json:"game_id"`
	Steps        int            `json:"steps"`
	TotalReward  float64        `json:"total_reward"`
	StepsByActor map[string]int `json:"steps_by_actor"`
	Fallbacks    int            `json:"ai_fallbacks"`
	Overrides    int            `json:"human_overrides"`
	TagCounts    map[string]int `json:"tag_counts"`
	Terminated   bool           `json:"terminated"`
}

// AnalyzeSteps folds the step log into per-session aggregates.
func AnalyzeSteps(records []storage.StepRecord) map[string]*SessionStats {
	out := make(map[string]*SessionStats)
	for _, rec := range records {
		st, ok := out[rec.SessionID]
		if !ok {
			st = &SessionStats{
				SessionID:    rec.SessionID,
				GameID:       rec.GameID,
				StepsByActor: make(map[string]int),
				TagCounts:    make(map[string]int),
			}
			out[rec.SessionID] = st
		}
		st.Steps++
		st.TotalReward += rec.Reward
		st.StepsByActor[rec.Actor]++
		if rec.AIFallback {
			st.Fallbacks++
		}
		if rec.OverrodeHuman {
			st.Overrides++
		}
		for _, tag := range rec.Tags {
			st.TagCounts[tag]++
		}
		if rec.Terminal {
			st.Terminated = true
		}
	}
	return out
}

// Leaderboard orders sessions by total reward, highest first.
func Leaderboard(stats map[string]*SessionStats) []*SessionStats {
	out := make([]*SessionStats, 0, len(stats))
	for _, st := range stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalReward != out[j].TotalReward {
			return out[i].TotalReward > out[j].TotalReward
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}
