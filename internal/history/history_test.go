package history

import (
	"fmt"
	"testing"
)

func TestHistoryAppendRecentReset(t *testing.T) {
	h := NewManager(0, 0)
	a, b := "session-a", "session-b"

	h.AppendUser(a, "hello")
	h.AppendAssistant(a, "hi")
	h.AppendUser(b, "foo")
	h.AppendAssistant(b, "bar")

	turnsA := h.Recent(a, 0)
	turnsB := h.Recent(b, 0)
	if len(turnsA) != 2 || len(turnsB) != 2 {
		t.Fatalf("unexpected lengths: A=%d B=%d", len(turnsA), len(turnsB))
	}
	if turnsA[0].Role != "user" || turnsA[0].Content != "hello" {
		t.Fatalf("unexpected A[0]: %+v", turnsA[0])
	}
	if turnsA[1].Role != "assistant" || turnsA[1].Content != "hi" {
		t.Fatalf("unexpected A[1]: %+v", turnsA[1])
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	turnsA[0] = Turn{Role: "user", Content: "mutated"}
	if h.Recent(a, 0)[0].Content != "hello" {
		t.Fatalf("internal state mutated via returned slice")
	}

	h.Reset(a)
	if h.Len(a) != 0 {
		t.Fatalf("reset did not clear session A")
	}
	if h.Len(b) != 2 {
		t.Fatalf("reset should not affect other sessions")
	}
}

func TestHistoryTurnBudget(t *testing.T) {
	h := NewManager(3, 0)
	s := "s"
	for i := 0; i < 10; i++ {
		h.AppendUser(s, fmt.Sprintf("msg-%d", i))
	}
	turns := h.Recent(s, 0)
	if len(turns) != 3 {
		t.Fatalf("expected 3 retained turns, got %d", len(turns))
	}
	if turns[0].Content != "msg-7" || turns[2].Content != "msg-9" {
		t.Fatalf("expected the newest turns, got %+v", turns)
	}
}

func TestHistoryCharBudget(t *testing.T) {
	h := NewManager(0, 20)
	s := "s"
	h.AppendUser(s, "aaaaaaaaaa") // 10 chars
	h.AppendUser(s, "bbbbbbbbbb")
	h.AppendUser(s, "cccccccccc")
	turns := h.Recent(s, 0)
	total := 0
	for _, tr := range turns {
		total += len(tr.Content)
	}
	if total > 20 {
		t.Fatalf("char budget exceeded: %d", total)
	}
	if turns[len(turns)-1].Content != "cccccccccc" {
		t.Fatalf("newest turn must survive eviction: %+v", turns)
	}
}

func TestHistoryKeepsLatestGroundingTurn(t *testing.T) {
	h := NewManager(4, 0)
	s := "s"
	h.AppendGrounding(s, "state step 0", 0)
	h.AppendGrounding(s, "state step 1", 1)
	for i := 0; i < 8; i++ {
		h.AppendUser(s, fmt.Sprintf("chatter-%d", i))
	}
	turns := h.Recent(s, 0)
	if len(turns) != 4 {
		t.Fatalf("expected 4 retained turns, got %d", len(turns))
	}
	found := false
	for _, tr := range turns {
		if tr.Grounding {
			if tr.Step != 1 {
				t.Fatalf("retained the wrong grounding turn: %+v", tr)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("latest grounding turn was evicted: %+v", turns)
	}
}

func TestHistoryRecentLimit(t *testing.T) {
	h := NewManager(0, 0)
	s := "s"
	for i := 0; i < 5; i++ {
		h.AppendUser(s, fmt.Sprintf("m%d", i))
	}
	turns := h.Recent(s, 2)
	if len(turns) != 2 || turns[0].Content != "m3" || turns[1].Content != "m4" {
		t.Fatalf("unexpected window: %+v", turns)
	}
}
