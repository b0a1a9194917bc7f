package reward

import (
	"reflect"
	"testing"

	"iaboy/internal/emulator"
)

func TestScoreDefaultPolicy(t *testing.T) {
	e := New(DefaultWeights())
	prev := emulator.Observation{Score: 100, Lives: 3, Progress: 0.5}
	curr := emulator.Observation{Score: 130, Lives: 2, Progress: 0.55}

	ev := e.Score(prev, curr)
	if ev.Reward != 30-25 {
		t.Fatalf("expected reward 5, got %v", ev.Reward)
	}
	want := []string{"score_increased", "life_lost", "progress_advanced"}
	if !reflect.DeepEqual(ev.Tags, want) {
		t.Fatalf("expected tags %v, got %v", want, ev.Tags)
	}
}

func TestScoreLevelComplete(t *testing.T) {
	e := New(DefaultWeights())
	prev := emulator.Observation{Score: 10, Lives: 1, Progress: 0.98}
	curr := emulator.Observation{Score: 10, Lives: 1, Progress: 1, Terminal: true}

	ev := e.Score(prev, curr)
	if ev.Reward != 100 {
		t.Fatalf("expected terminal bonus 100, got %v", ev.Reward)
	}
	want := []string{"progress_advanced", "level_complete", "game_over"}
	if !reflect.DeepEqual(ev.Tags, want) {
		t.Fatalf("expected tags %v, got %v", want, ev.Tags)
	}
}

func TestScoreIsPure(t *testing.T) {
	e := New(DefaultWeights())
	prev := emulator.Observation{Score: 5, Lives: 2, Progress: 0.1}
	curr := emulator.Observation{Score: 50, Lives: 2, Progress: 0.2}
	a := e.Score(prev, curr)
	b := e.Score(prev, curr)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical inputs produced different events: %+v vs %+v", a, b)
	}
}

func TestScoreEmptyWeights(t *testing.T) {
	e := New(nil)
	ev := e.Score(emulator.Observation{Score: 0, Lives: 3}, emulator.Observation{Score: 500, Lives: 0, Terminal: true})
	if ev.Reward != 0 {
		t.Fatalf("unset weights must contribute zero reward, got %v", ev.Reward)
	}
	if len(ev.Tags) == 0 {
		t.Fatalf("events must still be tagged with zero weights")
	}
}
