package actions

import (
	"errors"
	"testing"
)

func gameboyVocab() *Vocabulary {
	return NewVocabulary([]string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B", "START", "SELECT"})
}

func TestDecodeFreeTextReply(t *testing.T) {
	v := gameboyVocab()
	a, err := v.Decode("I think you should press the A button and also jump with B")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := a.Label(); got != "A+B" {
		t.Fatalf("expected A+B, got %s", got)
	}
	if a.Hold != 1 {
		t.Fatalf("expected default hold 1, got %d", a.Hold)
	}
}

func TestDecodeSynonymsAndHold(t *testing.T) {
	v := gameboyVocab()
	a, err := v.Decode("run forward! hold it x3")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := a.Label(); got != "RIGHT+B" {
		t.Fatalf("expected RIGHT+B, got %s", got)
	}
	if a.Hold != 3 {
		t.Fatalf("expected hold 3, got %d", a.Hold)
	}
}

func TestDecodeNoop(t *testing.T) {
	v := gameboyVocab()
	a, err := v.Decode("better to wait here")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !a.IsNoop() {
		t.Fatalf("expected noop, got %s", a.Label())
	}
}

func TestDecodeUnparseable(t *testing.T) {
	v := gameboyVocab()
	if _, err := v.Decode("the weather is lovely today"); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
}

func TestDecodeIgnoresForeignButtons(t *testing.T) {
	// "kick" maps to C on a six-button pad but must not leak into a
	// Game Boy vocabulary that has no C button.
	v := gameboyVocab()
	if _, err := v.Decode("kick kick kick"); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	six := NewVocabulary([]string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B", "C", "X", "Y", "Z", "START"})
	a, err := six.Decode("kick him")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := a.Label(); got != "C" {
		t.Fatalf("expected C, got %s", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := gameboyVocab()
	cases := []Action{
		v.Noop(),
		{Buttons: []string{"A"}, Hold: 1},
		{Buttons: []string{"RIGHT", "A"}, Hold: 1},
		{Buttons: []string{"UP", "A", "B"}, Hold: 4},
		{Buttons: []string{"START", "SELECT"}, Hold: 2},
	}
	for _, want := range cases {
		got, err := v.Decode(v.Encode(want))
		if err != nil {
			t.Fatalf("round trip decode of %q failed: %v", v.Encode(want), err)
		}
		if !got.Equal(want) || got.Hold != want.Hold {
			t.Fatalf("round trip mismatch: want %+v got %+v", want, got)
		}
	}
}

func TestParseLabelStrict(t *testing.T) {
	v := gameboyVocab()
	a, err := v.ParseLabel("a+right")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := a.Label(); got != "RIGHT+A" {
		t.Fatalf("expected canonical RIGHT+A, got %s", got)
	}
	if _, err := v.ParseLabel("RIGHT AND A"); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable for loose input, got %v", err)
	}
	if _, err := v.ParseLabel("Z"); !errors.Is(err, ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable for foreign button, got %v", err)
	}
	n, err := v.ParseLabel("NOOP")
	if err != nil || !n.IsNoop() {
		t.Fatalf("NOOP should parse to the empty action, got %+v err %v", n, err)
	}
}
