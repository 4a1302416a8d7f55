package domain

import "time"

// AnswerLetters enumerates the valid answer letters in choice order.
const AnswerLetters = "ABCD"

// Question models a multiple-choice question with exactly one correct letter.
// Questions are immutable once loaded; the game only ever reads them.
type Question struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"` // exactly 4, indices map to letters A-D
	Answer  string   `json:"answer"`  // "A".."D"
}

// CorrectLetter returns the correct answer as a byte letter.
func (q Question) CorrectLetter() byte {
	if q.Answer == "" {
		return 0
	}
	return q.Answer[0]
}

// QuestionSet is an ordered, named collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// RankingEntry is a snapshot-friendly view of one player in the ranking.
type RankingEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Ranking captures the ordered scoreboard at a point in time.
type Ranking struct {
	Round     int            `json:"round"`
	Total     int            `json:"total"`
	Entries   []RankingEntry `json:"entries"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RoundOutcome summarizes one player's result for a finished round.
type RoundOutcome struct {
	Name     string
	Answered bool
	Answer   byte
	Correct  bool
	Total    int
}
