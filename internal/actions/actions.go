package actions

import (
	"fmt"
	"sort"
	"strings"
)

// NoopLabel is the display form of an action with no buttons pressed.
const NoopLabel = "NOOP"

// Action is a set of simultaneously pressed controller buttons plus the
// number of steps the combination stays held.
type Action struct {
	Buttons []string
	Hold    int
}

func (a Action) IsNoop() bool { return len(a.Buttons) == 0 }

func (a Action) Equal(b Action) bool {
	if len(a.Buttons) != len(b.Buttons) {
		return false
	}
	for i := range a.Buttons {
		if a.Buttons[i] != b.Buttons[i] {
			return false
		}
	}
	return true
}

// Label renders the button set in the wire format used across the API and
// logs: canonical button names joined by "+", or NOOP for the empty set.
func (a Action) Label() string {
	if len(a.Buttons) == 0 {
		return NoopLabel
	}
	return strings.Join(a.Buttons, "+")
}

// Vocabulary is the closed set of legal buttons for one game's controller
// mapping, together with the free-text synonyms that resolve into them.
type Vocabulary struct {
	buttons  []string
	order    map[string]int
	synonyms map[string]string
}

// Synonyms shared across controller layouts. Entries whose target button is
// not part of a game's mapping are dropped when the vocabulary is built.
var defaultSynonyms = map[string]string{
	"jump":    "A",
	"confirm": "A",
	"accept":  "A",
	"attack":  "B",
	"punch":   "B",
	"fire":    "B",
	"shoot":   "B",
	"run":     "B",
	"cancel":  "B",
	"kick":    "C",
	"pause":   "START",
	"menu":    "START",
	"north":   "UP",
	"climb":   "UP",
	"south":   "DOWN",
	"crouch":  "DOWN",
	"duck":    "DOWN",
	"west":    "LEFT",
	"east":    "RIGHT",
	"forward": "RIGHT",
}

var noopTokens = map[string]bool{
	"noop":    true,
	"nothing": true,
	"wait":    true,
	"idle":    true,
}

func NewVocabulary(buttons []string) *Vocabulary {
	v := &Vocabulary{
		order:    make(map[string]int, len(buttons)),
		synonyms: make(map[string]string),
	}
	for _, b := range buttons {
		name := strings.ToUpper(strings.TrimSpace(b))
		if name == "" {
			continue
		}
		if _, dup := v.order[name]; dup {
			continue
		}
		v.order[name] = len(v.buttons)
		v.buttons = append(v.buttons, name)
	}
	for token, target := range defaultSynonyms {
		if _, ok := v.order[target]; ok {
			v.synonyms[token] = target
		}
	}
	return v
}

// Buttons returns the canonical button names in controller order.
func (v *Vocabulary) Buttons() []string {
	out := make([]string, len(v.buttons))
	copy(out, v.buttons)
	return out
}

func (v *Vocabulary) Contains(button string) bool {
	_, ok := v.order[strings.ToUpper(button)]
	return ok
}

// canonicalize sorts a button set into controller order and deduplicates.
func (v *Vocabulary) canonicalize(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return v.order[out[i]] < v.order[out[j]] })
	return out
}

func (v *Vocabulary) action(set map[string]bool, hold int) Action {
	if hold < 1 {
		hold = 1
	}
	return Action{Buttons: v.canonicalize(set), Hold: hold}
}

// Noop returns the empty action for this vocabulary.
func (v *Vocabulary) Noop() Action { return Action{Hold: 1} }

func describeButtons(buttons []string) string {
	return strings.Join(buttons, ", ")
}

// Prompt returns a human/LLM readable description of the legal buttons.
func (v *Vocabulary) Prompt() string {
	return fmt.Sprintf("Available buttons: %s. Reply NOOP to do nothing.", describeButtons(v.buttons))
}
