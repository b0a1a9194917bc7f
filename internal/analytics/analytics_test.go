package analytics

import (
	"testing"

	"iaboy/internal/storage"
)

func TestAnalyzeSteps(t *testing.T) {
	records := []storage.StepRecord{
		{SessionID: "s1", GameID: "sf2", Step: 1, Actor: "human", Action: "RIGHT", Reward: 10, Tags: []string{"score_increased"}},
		{SessionID: "s1", GameID: "sf2", Step: 2, Actor: "ai", Action: "A", Reward: -25, Tags: []string{"life_lost"}, AIFallback: true},
		{SessionID: "s1", GameID: "sf2", Step: 3, Actor: "ai", Action: "A+B", Reward: 100, Tags: []string{"level_complete"}, OverrodeHuman: true, Terminal: true},
		{SessionID: "s2", GameID: "pokemon_red", Step: 1, Actor: "ai", Action: "NOOP", Reward: 0},
	}

	stats := AnalyzeSteps(records)
	if len(stats) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(stats))
	}
	s1 := stats["s1"]
	if s1.Steps != 3 || s1.TotalReward != 85 {
		t.Fatalf("unexpected s1 aggregates: %+v", s1)
	}
	if s1.StepsByActor["human"] != 1 || s1.StepsByActor["ai"] != 2 {
		t.Fatalf("unexpected actor split: %+v", s1.StepsByActor)
	}
	if s1.Fallbacks != 1 || s1.Overrides != 1 || !s1.Terminated {
		t.Fatalf("unexpected annotations: %+v", s1)
	}
	if s1.TagCounts["life_lost"] != 1 {
		t.Fatalf("unexpected tag counts: %+v", s1.TagCounts)
	}

	board := Leaderboard(stats)
	if board[0].SessionID != "s1" {
		t.Fatalf("expected s1 on top of the leaderboard, got %s", board[0].SessionID)
	}
}
