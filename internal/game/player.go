package game

import (
	"sync"
	"time"

	"live-quiz-service/internal/domain"
)

// Player is one connection's game identity. The session handler owns it; the
// coordinator holds a reference in its player set. Answer state is tagged
// with the round generation it belongs to, so a submission racing a round
// reset loses on generation mismatch instead of leaking into the new round.
type Player struct {
	name string

	mu         sync.Mutex
	score      int
	generation uint64
	answered   bool
	answer     byte
	answeredAt time.Time
}

func newPlayer(name string) *Player {
	return &Player{name: name}
}

func (p *Player) Name() string { return p.name }

func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// HasAnswered reports whether the player already answered the current round.
func (p *Player) HasAnswered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.answered
}

func (p *Player) addPoints(points int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.score += points
}

// beginRound clears the per-round answer state and stamps the new generation.
func (p *Player) beginRound(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation = generation
	p.answered = false
	p.answer = 0
	p.answeredAt = time.Time{}
}

// submit records the first answer for the given round generation. It returns
// false when the player already answered or the generation is stale.
func (p *Player) submit(generation uint64, letter byte, at time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != generation || p.answered {
		return false
	}
	p.answered = true
	p.answer = letter
	p.answeredAt = at
	return true
}

// answeredIn reports whether the player answered the round with the given
// generation. Used to keep the answered counter exact when a player leaves.
func (p *Player) answeredIn(generation uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation == generation && p.answered
}

func (p *Player) outcome(correct byte) domain.RoundOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.RoundOutcome{
		Name:     p.name,
		Answered: p.answered,
		Answer:   p.answer,
		Correct:  p.answered && p.answer == correct,
		Total:    p.score,
	}
}
