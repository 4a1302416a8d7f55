// Package game holds the session coordinator: the player set, the round
// timeline and the scoreboard. One Game serves one quiz session; connection
// handlers call into it concurrently while a single Run goroutine drives the
// rounds.
package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"live-quiz-service/internal/domain"
)

// Phase is the session lifecycle state. Transitions are monotonic:
// Lobby -> Active -> Finished.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Settings tunes the round loop. Zero values pick the defaults.
type Settings struct {
	RoundSeconds int           // answer window per round, default 30
	PollInterval time.Duration // round-loop poll cadence, default 200ms
	RoundPause   time.Duration // pause between rounds, default 3s
}

const (
	defaultRoundSeconds = 30
	defaultPollInterval = 200 * time.Millisecond
	defaultRoundPause   = 3 * time.Second
)

func (s Settings) withDefaults() Settings {
	if s.RoundSeconds <= 0 {
		s.RoundSeconds = defaultRoundSeconds
	}
	if s.PollInterval <= 0 {
		s.PollInterval = defaultPollInterval
	}
	if s.RoundPause <= 0 {
		s.RoundPause = defaultRoundPause
	}
	return s
}

// Reporter receives round lifecycle notifications, typically to print the
// operator console view. Callbacks run on the round-loop goroutine.
type Reporter interface {
	RoundStarted(round, total int, question domain.Question)
	RoundFinished(round int, outcomes []domain.RoundOutcome, ranking domain.Ranking)
	GameFinished(ranking domain.Ranking)
}

type noopReporter struct{}

func (noopReporter) RoundStarted(int, int, domain.Question)                   {}
func (noopReporter) RoundFinished(int, []domain.RoundOutcome, domain.Ranking) {}
func (noopReporter) GameFinished(domain.Ranking)                              {}

// Game coordinates one quiz session.
type Game struct {
	questions []domain.Question
	settings  Settings
	registry  *NameRegistry
	reporter  Reporter
	now       func() time.Time

	started chan struct{}

	// answered and playerCount are read lock-free by the round loop's poll;
	// next is the operator's skip flag for the current round.
	answered    atomic.Int64
	playerCount atomic.Int64
	next        atomic.Bool

	mu          sync.RWMutex
	phase       Phase
	players     []*Player
	round       int
	current     *domain.Question
	deadline    time.Time
	generation  uint64
	arrivals    []*Player
	subscribers map[chan domain.Ranking]struct{}
}

func New(questions []domain.Question, settings Settings, registry *NameRegistry, reporter Reporter) *Game {
	return NewWithClock(questions, settings, registry, reporter, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(questions []domain.Question, settings Settings, registry *NameRegistry, reporter Reporter, now func() time.Time) *Game {
	if registry == nil {
		registry = NewNameRegistry()
	}
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &Game{
		questions:   questions,
		settings:    settings.withDefaults(),
		registry:    registry,
		reporter:    reporter,
		now:         now,
		started:     make(chan struct{}),
		subscribers: make(map[chan domain.Ranking]struct{}),
	}
}

// Registry exposes the name registry for explicit-name validation paths.
func (g *Game) Registry() *NameRegistry { return g.registry }

// RegisterAuto creates a player under a generated name and adds it to the
// session. It never fails; the registry always finds a free name.
func (g *Game) RegisterAuto() *Player {
	name := g.registry.ReserveAuto()
	p := newPlayer(name)
	g.addPlayer(p)
	return p
}

// Register creates a player under the requested name. The reservation and the
// player insertion are separate steps, but the name is claimed atomically so
// no other connection can race it in between.
func (g *Game) Register(name string) (*Player, error) {
	if err := g.registry.Reserve(name); err != nil {
		return nil, err
	}
	p := newPlayer(strings.TrimSpace(name))
	g.addPlayer(p)
	return p, nil
}

func (g *Game) addPlayer(p *Player) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Mid-game joiners get the current generation so they may answer the
	// round already in flight.
	p.beginRound(g.generation)
	g.players = append(g.players, p)
	g.playerCount.Add(1)
	g.broadcastLocked()
}

// Remove drops a player from the session and frees its name. Safe to call
// for a player that was already removed.
func (g *Game) Remove(p *Player) {
	if p == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, other := range g.players {
		if other == p {
			g.players = append(g.players[:i], g.players[i+1:]...)
			g.playerCount.Add(-1)
			if p.answeredIn(g.generation) {
				g.answered.Add(-1)
			}
			g.registry.Release(p.name)
			g.broadcastLocked()
			return
		}
	}
}

// Start moves the session out of the lobby and releases the round loop.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseLobby {
		return domain.ErrAlreadyStarted
	}
	if len(g.players) == 0 {
		return domain.ErrNoPlayers
	}
	g.phase = PhaseActive
	close(g.started)
	return nil
}

// RequestNext asks the round loop to cut the current round short. Outside an
// active round the flag is cleared when the next round begins.
func (g *Game) RequestNext() {
	g.next.Store(true)
}

func (g *Game) Phase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// CurrentQuestion returns the question in flight with its 1-based round
// number and the total round count. ok is false between rounds and outside
// the Active phase.
func (g *Game) CurrentQuestion() (domain.Question, int, int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return domain.Question{}, g.round, len(g.questions), false
	}
	return *g.current, g.round, len(g.questions), true
}

// PlayerNames lists connected players in join order.
func (g *Game) PlayerNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.players))
	for _, p := range g.players {
		names = append(names, p.name)
	}
	return names
}

// SubmitAnswer validates and records one answer for the round in flight.
// Checks run in a fixed order so clients see stable diagnostics: game phase,
// empty body, letter validity, duplicate submission. The accepted letter is
// returned uppercased.
func (g *Game) SubmitAnswer(p *Player, body string) (byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseActive || g.current == nil {
		return 0, domain.ErrGameNotActive
	}
	answer := strings.ToUpper(strings.TrimSpace(body))
	if answer == "" {
		return 0, domain.ErrEmptyAnswer
	}
	if len(answer) != 1 || !strings.Contains(domain.AnswerLetters, answer) {
		return 0, domain.ErrInvalidAnswer
	}
	letter := answer[0]

	if !p.submit(g.generation, letter, g.now()) {
		return 0, domain.ErrAlreadyAnswered
	}
	if letter == g.current.CorrectLetter() {
		g.arrivals = append(g.arrivals, p)
	}
	g.answered.Add(1)
	return letter, nil
}

// Ranking snapshots the scoreboard: score descending, ties in join order.
func (g *Game) Ranking() domain.Ranking {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rankingLocked()
}

func (g *Game) rankingLocked() domain.Ranking {
	entries := make([]domain.RankingEntry, 0, len(g.players))
	for _, p := range g.players {
		entries = append(entries, domain.RankingEntry{Name: p.name, Score: p.Score()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return domain.Ranking{
		Round:     g.round,
		Total:     len(g.questions),
		Entries:   entries,
		UpdatedAt: g.now(),
	}
}

// FormatRanking renders the scoreboard in the fixed-width text form clients
// print verbatim.
func (g *Game) FormatRanking() string {
	ranking := g.Ranking()
	var sb strings.Builder
	sb.WriteString("========== RANKING ==========\n")
	for _, e := range ranking.Entries {
		fmt.Fprintf(&sb, "  #%d  %-10s  %d pts\n", e.Position, e.Name, e.Score)
	}
	sb.WriteString("=============================\n")
	return sb.String()
}

// Subscribe returns a channel fed with ranking snapshots whenever the
// scoreboard changes. The caller must invoke the returned cancel function to
// avoid leaks.
func (g *Game) Subscribe() (<-chan domain.Ranking, func()) {
	ch := make(chan domain.Ranking, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	initial := g.rankingLocked()
	g.mu.Unlock()

	ch <- initial

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) broadcastLocked() {
	ranking := g.rankingLocked()
	for ch := range g.subscribers {
		select {
		case ch <- ranking:
		default:
			// Drop the stale snapshot so a slow subscriber never blocks
			// the game.
			select {
			case <-ch:
			default:
			}
			ch <- ranking
		}
	}
}

// Run drives the round timeline: it blocks until Start, then plays every
// question in order and finishes the game. It returns early only when ctx is
// cancelled.
func (g *Game) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.started:
	}

	total := len(g.questions)
	for i := range g.questions {
		round := i + 1
		g.beginRound(round, &g.questions[i])
		g.reporter.RoundStarted(round, total, g.questions[i])

		if err := g.waitRound(ctx); err != nil {
			return err
		}

		outcomes, ranking := g.scoreRound(g.questions[i])
		g.reporter.RoundFinished(round, outcomes, ranking)

		if round < total {
			if err := sleepCtx(ctx, g.settings.RoundPause); err != nil {
				return err
			}
		}
	}

	g.reporter.GameFinished(g.finish())
	return nil
}

// beginRound resets per-round state under one critical section: a new
// generation invalidates any in-flight submission from the previous round.
func (g *Game) beginRound(round int, q *domain.Question) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.round = round
	g.current = q
	g.deadline = g.now().Add(time.Duration(g.settings.RoundSeconds) * time.Second)
	g.arrivals = g.arrivals[:0]
	g.answered.Store(0)
	g.next.Store(false)
	for _, p := range g.players {
		p.beginRound(g.generation)
	}
	g.broadcastLocked()
}

// waitRound polls until the round ends: deadline reached, every connected
// player answered, or the operator forced the next round.
func (g *Game) waitRound(ctx context.Context) error {
	ticker := time.NewTicker(g.settings.PollInterval)
	defer ticker.Stop()
	for {
		if g.next.Load() {
			return nil
		}
		if n := g.playerCount.Load(); n > 0 && g.answered.Load() >= n {
			return nil
		}
		g.mu.RLock()
		deadline := g.deadline
		g.mu.RUnlock()
		if !g.now().Before(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// scoreRound awards points by arrival order among the correct respondents,
// clears the question in flight and snapshots the outcomes.
func (g *Game) scoreRound(q domain.Question) ([]domain.RoundOutcome, domain.Ranking) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, p := range g.arrivals {
		p.addPoints(awardPoints(i, len(g.arrivals)))
	}

	correct := q.CorrectLetter()
	outcomes := make([]domain.RoundOutcome, 0, len(g.players))
	for _, p := range g.players {
		outcomes = append(outcomes, p.outcome(correct))
	}

	g.current = nil
	g.broadcastLocked()
	return outcomes, g.rankingLocked()
}

func (g *Game) finish() domain.Ranking {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = PhaseFinished
	g.current = nil
	g.broadcastLocked()
	return g.rankingLocked()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
