// Package csvfile loads question banks from semicolon-separated CSV files:
// one header line, then pregunta;opcionA;opcionB;opcionC;opcionD;respuesta.
package csvfile

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"live-quiz-service/internal/domain"
)

const separator = ";"

// Loader reads a whole CSV file per load. Malformed lines are logged and
// skipped rather than failing the load.
type Loader struct {
	path string
}

func New(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadQuestionSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("open questions file: %w", err)
	}
	defer file.Close()

	var questions []domain.Question
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false // header
			continue
		}
		q, ok := parseLine(line)
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	if err := scanner.Err(); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("read questions file: %w", err)
	}
	if len(questions) == 0 {
		return domain.QuestionSet{}, domain.ErrNoQuestions
	}

	log.Printf("[csv] loaded %d questions from %s", len(questions), l.path)
	return domain.QuestionSet{ID: setID, Questions: questions}, nil
}

func parseLine(line string) (domain.Question, bool) {
	if strings.TrimSpace(line) == "" {
		return domain.Question{}, false
	}
	fields := strings.Split(line, separator)
	if len(fields) < 6 {
		log.Printf("[csv] skipping line, expected 6 fields: %s", line)
		return domain.Question{}, false
	}

	answer := strings.ToUpper(strings.TrimSpace(fields[5]))
	if len(answer) != 1 || !strings.Contains(domain.AnswerLetters, answer) {
		log.Printf("[csv] skipping line, answer must be A/B/C/D: %s", line)
		return domain.Question{}, false
	}

	choices := make([]string, 4)
	for i := range choices {
		choices[i] = strings.TrimSpace(fields[i+1])
	}
	return domain.Question{
		Prompt:  strings.TrimSpace(fields[0]),
		Choices: choices,
		Answer:  answer,
	}, true
}
