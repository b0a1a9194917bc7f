package actions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparseable is returned when no legal control token can be recognized
// in the input. Raw text never reaches the emulator on this path.
var ErrUnparseable = errors.New("unparseable action")

// ParseLabel parses the strict wire format produced by Encode ("A+RIGHT",
// "NOOP", optional " x3" hold suffix). Used for structured human input where
// fuzzy matching would hide typos.
func (v *Vocabulary) ParseLabel(label string) (Action, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("%w: empty label", ErrUnparseable)
	}
	hold := 1
	combo := fields[0]
	if len(fields) == 2 {
		n, err := parseHold(fields[1])
		if err != nil {
			return Action{}, fmt.Errorf("%w: bad hold suffix %q", ErrUnparseable, fields[1])
		}
		hold = n
	} else if len(fields) > 2 {
		return Action{}, fmt.Errorf("%w: %q", ErrUnparseable, label)
	}

	if strings.EqualFold(combo, NoopLabel) {
		a := v.Noop()
		a.Hold = hold
		return a, nil
	}
	set := make(map[string]bool)
	for _, part := range strings.Split(combo, "+") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if _, ok := v.order[name]; !ok {
			return Action{}, fmt.Errorf("%w: unknown button %q", ErrUnparseable, part)
		}
		set[name] = true
	}
	return v.action(set, hold), nil
}

// Decode turns free-form model output into a legal action: it lowercases and
// tokenizes the text, resolves canonical button names and synonyms against
// the vocabulary, and combines every hit into one simultaneous press. Zero
// recognized tokens yield ErrUnparseable so the caller can apply its
// fallback policy.
func (v *Vocabulary) Decode(raw string) (Action, error) {
	set := make(map[string]bool)
	hold := 1
	sawNoop := false
	for _, token := range tokenize(raw) {
		if n, err := parseHold(token); err == nil {
			hold = n
			continue
		}
		if noopTokens[token] {
			sawNoop = true
			continue
		}
		name := strings.ToUpper(token)
		if _, ok := v.order[name]; ok {
			set[name] = true
			continue
		}
		if target, ok := v.synonyms[token]; ok {
			set[target] = true
		}
	}
	if len(set) == 0 {
		if sawNoop {
			a := v.Noop()
			a.Hold = hold
			return a, nil
		}
		return Action{}, fmt.Errorf("%w: no control tokens in %q", ErrUnparseable, clip(raw, 80))
	}
	return v.action(set, hold), nil
}

// Encode renders an action for display and logs. It is total on the closed
// vocabulary and inverts Decode: Decode(Encode(a)) == a for every legal a.
func (v *Vocabulary) Encode(a Action) string {
	label := a.Label()
	if a.Hold > 1 {
		return fmt.Sprintf("%s x%d", label, a.Hold)
	}
	return label
}

func parseHold(token string) (int, error) {
	if len(token) < 2 || (token[0] != 'x' && token[0] != 'X') {
		return 0, fmt.Errorf("not a hold token")
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("not a hold token")
	}
	return n, nil
}

func tokenize(raw string) []string {
	return strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
