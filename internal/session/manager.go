package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"iaboy/internal/actions"
	"iaboy/internal/emulator"
	"iaboy/internal/history"
	"iaboy/internal/reward"
	"iaboy/internal/storage"
)

// StepResult is what one successful step returns: the new observation, the
// scored transition, and who did what. A step that executed against the
// emulator always carries a well-formed observation/reward pair, even when
// the AI path degraded.
type StepResult struct {
	Observation   emulator.Observation
	Reward        reward.Event
	Action        actions.Action
	ActionLabel   string
	Actor         string
	AIFallback    bool
	OverrodeHuman bool
	Advisory      string
}

// Manager owns the session registry and serializes all operations against a
// given session's engine. The registry lock guards insert/lookup/remove
// only; step execution holds the per-session step lock instead, so steps
// for different sessions run fully in parallel.
type Manager struct {
	catalog  *emulator.Catalog
	engines  emulator.Factory
	arbiter  *Arbiter
	hist     *history.Manager
	scoring  *reward.Engine
	recorder storage.Recorder // optional

	saveDir       string
	autosaveEvery int

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(
	catalog *emulator.Catalog,
	engines emulator.Factory,
	arbiter *Arbiter,
	hist *history.Manager,
	scoring *reward.Engine,
	recorder storage.Recorder,
	saveDir string,
	autosaveEvery int,
) *Manager {
	return &Manager{
		catalog:       catalog,
		engines:       engines,
		arbiter:       arbiter,
		hist:          hist,
		scoring:       scoring,
		recorder:      recorder,
		saveDir:       saveDir,
		autosaveEvery: autosaveEvery,
		sessions:      make(map[string]*Session),
	}
}

// Create validates the game against the catalog, boots a fresh engine and
// registers the session.
func (m *Manager) Create(ctx context.Context, gameID string, mode Mode) (*Session, error) {
	game, ok := m.catalog.Lookup(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, gameID)
	}
	engine, err := m.engines(game)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmulatorInitFailed, err)
	}
	obs, err := engine.Reset()
	if err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("%w: %v", ErrEmulatorInitFailed, err)
	}

	now := time.Now().UTC()
	s := &Session{
		ID:         uuid.NewString(),
		GameID:     game.ID,
		Game:       game,
		Mode:       mode,
		CreatedAt:  now,
		engine:     engine,
		vocab:      actions.NewVocabulary(game.Buttons),
		lastStepAt: now,
		curr:       obs,
	}

	// Grounding goes in before the session is published: a Close racing the
	// tail of Create would otherwise reset history first and leave the turn
	// orphaned.
	if mode.InvolvesAI() {
		m.hist.AppendGrounding(s.ID, "Game state: "+obs.Summary(), obs.Step)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Printf("🎮 Created session %s (game=%s mode=%s)", s.ID, game.ID, mode)
	return s, nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s, nil
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (*Session, error) { return m.lookup(id) }

// Step advances the session by exactly one emulator step. Calls for the
// same session queue on its step lock and execute strictly one at a time.
func (m *Manager) Step(ctx context.Context, id string, human *HumanInput) (StepResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return StepResult{}, err
	}

	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	if s.isClosed() {
		return StepResult{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	if s.Current().Terminal {
		return StepResult{}, fmt.Errorf("%w: %q", ErrSessionTerminated, id)
	}

	decision, err := m.arbiter.Decide(ctx, s, human)
	if err != nil {
		return StepResult{}, err
	}

	obs, err := s.engine.Step(decision.Action)
	if err != nil {
		m.recoverFromLastSave(s)
		return StepResult{}, fmt.Errorf("emulator step failed: %w", err)
	}

	ev := m.scoring.Score(s.Current(), obs)

	s.mu.Lock()
	s.prev = s.curr
	s.curr = obs
	s.steps++
	s.lastStepAt = time.Now().UTC()
	s.rewards = append(s.rewards, ev)
	steps := s.steps
	s.mu.Unlock()

	if s.Mode.InvolvesAI() {
		m.hist.AppendGrounding(s.ID, "Game state: "+obs.Summary(), obs.Step)
	}
	m.record(s, steps, decision, ev, obs)
	if m.autosaveEvery > 0 && steps%m.autosaveEvery == 0 {
		m.autosave(s)
	}

	return StepResult{
		Observation:   obs,
		Reward:        ev,
		Action:        decision.Action,
		ActionLabel:   s.vocab.Encode(decision.Action),
		Actor:         decision.Actor,
		AIFallback:    decision.AIFallback,
		OverrodeHuman: decision.OverrodeHuman,
		Advisory:      decision.Advisory,
	}, nil
}

// Chat appends a user turn, asks the oracle for a grounded free-text reply
// and appends it to the context. No emulator action is driven.
func (m *Manager) Chat(ctx context.Context, id, text string) (string, error) {
	s, err := m.lookup(id)
	if err != nil {
		return "", err
	}
	m.hist.AppendUser(s.ID, text)
	reply, err := m.arbiter.Chat(ctx, s)
	if err != nil {
		return "", err
	}
	m.hist.AppendAssistant(s.ID, reply)
	return reply, nil
}

// Save serializes the session's emulator state into an opaque blob.
func (m *Manager) Save(ctx context.Context, id string) ([]byte, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	if s.isClosed() {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	blob, err := s.engine.Save()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.setLastSave(blob)
	return blob, nil
}

// Load restores a blob produced by Save. Loading an earlier state clears a
// terminal flag set by later play.
func (m *Manager) Load(ctx context.Context, id string, blob []byte) (emulator.Observation, error) {
	s, err := m.lookup(id)
	if err != nil {
		return emulator.Observation{}, err
	}
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	if s.isClosed() {
		return emulator.Observation{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	obs, err := s.engine.Load(blob)
	if err != nil {
		return emulator.Observation{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.mu.Lock()
	s.prev = s.curr
	s.curr = obs
	s.mu.Unlock()
	if s.Mode.InvolvesAI() {
		m.hist.AppendGrounding(s.ID, "State restored: "+obs.Summary(), obs.Step)
	}
	return obs, nil
}

// Close removes the session and releases its engine. Idempotent. An
// in-flight step finishes first; no new steps are admitted afterwards.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if err := s.engine.Close(); err != nil {
		log.Printf("⚠️ Engine close failed for session %s: %v", id, err)
	}
	m.hist.Reset(id)
	log.Printf("🛑 Closed session %s after %d step(s)", id, s.Steps())
	return nil
}

// List snapshots every live session.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// CloseIdle closes every session whose last step is older than ttl and
// returns how many it closed.
func (m *Manager) CloseIdle(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)
	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastStepAt().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range idle {
		_ = m.Close(id)
	}
	return len(idle)
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.Close(id)
	}
}

func (m *Manager) record(s *Session, step int, d Decision, ev reward.Event, obs emulator.Observation) {
	if m.recorder == nil {
		return
	}
	rec := storage.StepRecord{
		Time:           time.Now().UTC(),
		SessionID:      s.ID,
		GameID:         s.GameID,
		Mode:           string(s.Mode),
		Step:           step,
		Actor:          d.Actor,
		Action:         s.vocab.Encode(d.Action),
		Reward:         ev.Reward,
		Tags:           ev.Tags,
		AIFallback:     d.AIFallback,
		OverrodeHuman:  d.OverrodeHuman,
		AdvisoryAction: d.Advisory,
		Terminal:       obs.Terminal,
	}
	if err := m.recorder.AppendStep(rec); err != nil {
		log.Printf("⚠️ Failed to record step for session %s: %v", s.ID, err)
	}
}

// autosave captures the current state on the configured cadence of
// successful steps. The blob is kept in memory for crash recovery and, when a
// save directory is configured, written to disk too. Failures are logged,
// never surfaced into the step.
func (m *Manager) autosave(s *Session) {
	blob, err := s.engine.Save()
	if err != nil {
		log.Printf("⚠️ Autosave failed for session %s: %v", s.ID, err)
		return
	}
	s.setLastSave(blob)
	if m.saveDir == "" {
		return
	}
	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		log.Printf("⚠️ Autosave dir not writable: %v", err)
		return
	}
	name := fmt.Sprintf("%s-%d.state", s.ID, time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(m.saveDir, name), blob, 0o644); err != nil {
		log.Printf("⚠️ Autosave write failed for session %s: %v", s.ID, err)
	}
}

// recoverFromLastSave rewinds the engine to the most recent captured save
// after a failed step so the session is not left wedged on a bad core state.
// Best effort: with no save captured yet there is nothing to rewind to.
func (m *Manager) recoverFromLastSave(s *Session) {
	blob := s.lastSaveBlob()
	if blob == nil {
		return
	}
	obs, err := s.engine.Load(blob)
	if err != nil {
		log.Printf("⚠️ Recovery load failed for session %s: %v", s.ID, err)
		return
	}
	s.mu.Lock()
	s.prev = s.curr
	s.curr = obs
	s.mu.Unlock()
	log.Printf("♻️ Restored session %s from last save (step %d)", s.ID, obs.Step)
}
