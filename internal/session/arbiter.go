package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"iaboy/internal/actions"
	"iaboy/internal/history"
	"iaboy/internal/llm"
)

// HumanInput is the structured control input supplied with a step request.
// Label uses the strict wire format ("RIGHT", "A+B", "NOOP"). OptOut lets
// the human skip their coop-turn slot so the AI acts instead.
type HumanInput struct {
	Label  string
	OptOut bool
}

// Decision is the arbiter's resolution for one step.
type Decision struct {
	Action        actions.Action
	Actor         string // "human" | "ai"
	AIFallback    bool
	OverrodeHuman bool
	Advisory      string // human suggestion recorded but not applied
}

// ArbiterConfig carries the tunable policy knobs so conflict precedence and
// degradation behavior stay configuration, not code.
type ArbiterConfig struct {
	OracleTimeout time.Duration
	// FallbackLabel is applied when the oracle fails twice or replies with
	// something undecodable. Must parse in every game's vocabulary; NOOP
	// always does.
	FallbackLabel string
	PromptTurns   int
	SystemPrompt  string
}

// Arbiter decides, per step, whose action is authoritative, querying the
// oracle when the mode calls for it. Oracle failures never abort a step.
type Arbiter struct {
	oracle llm.Client
	hist   *history.Manager
	cfg    ArbiterConfig
}

func NewArbiter(oracle llm.Client, hist *history.Manager, cfg ArbiterConfig) *Arbiter {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 5 * time.Second
	}
	if cfg.FallbackLabel == "" {
		cfg.FallbackLabel = actions.NoopLabel
	}
	if cfg.PromptTurns <= 0 {
		cfg.PromptTurns = 12
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &Arbiter{oracle: oracle, hist: hist, cfg: cfg}
}

const defaultSystemPrompt = "You are a cooperative player in a retro game session shared with a human. " +
	"Each turn, reply with the controller buttons to press, joined by '+', and nothing else."

// Decide resolves the acting input for the session's next step.
func (a *Arbiter) Decide(ctx context.Context, s *Session, human *HumanInput) (Decision, error) {
	switch s.Mode {
	case ModeHumanOnly:
		act, err := a.parseHuman(s, human)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Action: act, Actor: "human"}, nil

	case ModeAIOnly:
		d := a.decideAI(ctx, s, "")
		if human != nil && human.Label != "" {
			d.Advisory = human.Label
		}
		return d, nil

	case ModeCoopTurn:
		humanSlot := s.Steps()%2 == 0
		if humanSlot && (human == nil || !human.OptOut) {
			act, err := a.parseHuman(s, human)
			if err != nil {
				return Decision{}, err
			}
			return Decision{Action: act, Actor: "human"}, nil
		}
		return a.decideAI(ctx, s, ""), nil

	case ModeCoopBlend:
		suggestion := ""
		var humanAct actions.Action
		haveHuman := human != nil && human.Label != ""
		if haveHuman {
			ha, err := s.vocab.ParseLabel(human.Label)
			if err != nil {
				return Decision{}, err
			}
			humanAct = ha
			suggestion = human.Label
		}
		d := a.decideAI(ctx, s, suggestion)
		if haveHuman && !humanAct.Equal(d.Action) {
			d.OverrodeHuman = true
		}
		return d, nil

	default:
		return Decision{}, fmt.Errorf("unknown control mode: %q", s.Mode)
	}
}

func (a *Arbiter) parseHuman(s *Session, human *HumanInput) (actions.Action, error) {
	if human == nil || strings.TrimSpace(human.Label) == "" {
		return actions.Action{}, ErrMissingHumanAction
	}
	return s.vocab.ParseLabel(human.Label)
}

// decideAI queries the oracle under the hard timeout, retries once with a
// summary-only prompt, and falls back to the configured default action when
// both attempts fail or the reply cannot be decoded.
func (a *Arbiter) decideAI(ctx context.Context, s *Session, suggestion string) Decision {
	reply, err := a.ask(ctx, a.actionMessages(s, suggestion, true))
	if err != nil {
		log.Printf("⚠️ Oracle call failed for session %s, retrying with short prompt: %v", s.ID, err)
		reply, err = a.ask(ctx, a.actionMessages(s, suggestion, false))
	}
	if err == nil {
		act, derr := s.vocab.Decode(reply)
		if derr == nil {
			return Decision{Action: act, Actor: "ai"}
		}
		log.Printf("⚠️ Oracle reply undecodable for session %s: %v", s.ID, derr)
	} else {
		log.Printf("❌ Oracle unavailable for session %s: %v", s.ID, err)
	}

	fallback, perr := s.vocab.ParseLabel(a.cfg.FallbackLabel)
	if perr != nil {
		fallback = s.vocab.Noop()
	}
	return Decision{Action: fallback, Actor: "ai", AIFallback: true}
}

func (a *Arbiter) ask(ctx context.Context, messages []llm.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.OracleTimeout)
	defer cancel()
	resp, err := a.oracle.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// actionMessages builds the bounded oracle prompt: the system instruction,
// recent dialogue (full prompts only), and the current state summary.
func (a *Arbiter) actionMessages(s *Session, suggestion string, full bool) []llm.Message {
	msgs := []llm.Message{{Role: "system", Content: a.systemFor(s)}}
	if full {
		for _, t := range a.hist.Recent(s.ID, a.cfg.PromptTurns) {
			msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Current state: %s\n", s.Current().Summary())
	if suggestion != "" {
		fmt.Fprintf(&b, "The human suggests: %s\n", suggestion)
	}
	b.WriteString("Which buttons do you press?")
	msgs = append(msgs, llm.Message{Role: "user", Content: b.String()})
	return msgs
}

// chatMessages builds the prompt for a free-text chat reply: same grounding,
// no action-format constraint. The caller appends the user turn to the
// context store first, so the dialogue window already ends with it.
func (a *Arbiter) chatMessages(s *Session) []llm.Message {
	sys := fmt.Sprintf("You are a cooperative player in a game of %s, chatting with your human teammate. Current state: %s",
		s.GameID, s.Current().Summary())
	msgs := []llm.Message{{Role: "system", Content: sys}}
	for _, t := range a.hist.Recent(s.ID, a.cfg.PromptTurns) {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}

// Chat returns the oracle's free-text reply to the latest user turn. Unlike
// Decide there is no emulator transition to protect, so failures surface.
func (a *Arbiter) Chat(ctx context.Context, s *Session) (string, error) {
	reply, err := a.ask(ctx, a.chatMessages(s))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return reply, nil
}

func (a *Arbiter) systemFor(s *Session) string {
	return fmt.Sprintf("%s\nGame: %s. %s", a.cfg.SystemPrompt, s.GameID, s.vocab.Prompt())
}
