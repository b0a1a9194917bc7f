package emulator

import (
	"testing"

	"iaboy/internal/actions"
)

func testGame() Game {
	return Game{ID: "super_mario_land", Console: "gameboy", Buttons: gameboyButtons}
}

func TestSyntheticEngineDeterministic(t *testing.T) {
	run := func() Observation {
		e := NewSyntheticEngine(testGame(), 1)
		if _, err := e.Reset(); err != nil {
			t.Fatalf("reset failed: %v", err)
		}
		var obs Observation
		var err error
		for i := 0; i < 10; i++ {
			obs, err = e.Step(actions.Action{Buttons: []string{"RIGHT", "A"}, Hold: 1})
			if err != nil {
				t.Fatalf("step %d failed: %v", i, err)
			}
		}
		return obs
	}
	a, b := run(), run()
	if a.Score != b.Score || a.Lives != b.Lives || a.Progress != b.Progress || a.ScreenDigest != b.ScreenDigest {
		t.Fatalf("two identical runs diverged: %+v vs %+v", a, b)
	}
	if a.Score != 100 {
		t.Fatalf("expected 10 A presses to score 100, got %d", a.Score)
	}
	if a.Step != 10 {
		t.Fatalf("expected step 10, got %d", a.Step)
	}
}

func TestSyntheticEngineHazardAndTerminal(t *testing.T) {
	e := NewSyntheticEngine(testGame(), 1)
	if _, err := e.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	var obs Observation
	var err error
	// Standing still loses one life every hazardCadence steps.
	for i := 0; i < hazardCadence*syntheticStartLives; i++ {
		obs, err = e.Step(actions.Action{Hold: 1})
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}
	if obs.Lives != 0 || !obs.Terminal {
		t.Fatalf("expected terminal observation with 0 lives, got %+v", obs)
	}
	if _, err := e.Step(actions.Action{Hold: 1}); err == nil {
		t.Fatalf("stepping a finished game should fail")
	}
}

func TestSyntheticEngineSaveLoadRoundTrip(t *testing.T) {
	e := NewSyntheticEngine(testGame(), 1)
	if _, err := e.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := e.Step(actions.Action{Buttons: []string{"RIGHT"}, Hold: 2}); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	blob, err := e.Save()
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	saved, err := e.Step(actions.Action{Buttons: []string{"A"}, Hold: 1})
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}
	restored, err := e.Load(blob)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if restored.Score == saved.Score {
		t.Fatalf("load did not rewind score: %+v", restored)
	}
	if restored.Step != 5 {
		t.Fatalf("expected restored step 5, got %d", restored.Step)
	}

	other := NewSyntheticEngine(Game{ID: "pokemon_red", Console: "gameboy", Buttons: gameboyButtons}, 1)
	if _, err := other.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if _, err := other.Load(blob); err == nil {
		t.Fatalf("loading a blob from another game should fail")
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog("")
	if _, ok := c.Lookup("sf2"); !ok {
		t.Fatalf("sf2 missing from built-in catalog")
	}
	if _, ok := c.Lookup("does_not_exist"); ok {
		t.Fatalf("unexpected catalog hit")
	}
	if len(c.IDs()) < 3 {
		t.Fatalf("expected at least the built-in games, got %v", c.IDs())
	}
}
