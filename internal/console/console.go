// Package console is the operator surface: a line-command loop on stdin
// (INICIAR, NEXT) and the colored game report printed as rounds progress.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
)

const defaultRosterInterval = 5 * time.Second

// Console reads operator commands and periodically prints the lobby roster
// while the game waits to start.
type Console struct {
	game           *game.Game
	in             io.Reader
	out            io.Writer
	rosterInterval time.Duration
}

func New(g *game.Game, in io.Reader, out io.Writer) *Console {
	return &Console{game: g, in: in, out: out, rosterInterval: defaultRosterInterval}
}

// Run processes commands until ctx is cancelled. A closed input stream stops
// the command loop but keeps the roster ticker alive, so a server with a
// detached stdin still reports its lobby.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(c.out, "Comandos: INICIAR (empezar partida), NEXT (siguiente pregunta)")

	ticker := time.NewTicker(c.rosterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			c.handle(line)
		case <-ticker.C:
			if c.game.Phase() == game.PhaseLobby {
				c.printRoster()
			}
		}
	}
}

func (c *Console) handle(line string) {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "":
	case "INICIAR":
		if err := c.game.Start(); err != nil {
			color.New(color.FgRed).Fprintf(c.out, "No se puede iniciar: %v\n", err)
			return
		}
		color.New(color.FgGreen, color.Bold).Fprintln(c.out, "Partida iniciada.")
	case "NEXT":
		c.game.RequestNext()
		fmt.Fprintln(c.out, "Pasando a la siguiente pregunta...")
	default:
		fmt.Fprintf(c.out, "Comando desconocido: %s\n", strings.TrimSpace(line))
	}
}

func (c *Console) printRoster() {
	names := c.game.PlayerNames()
	if len(names) == 0 {
		fmt.Fprintln(c.out, "Sala de espera vacia.")
		return
	}
	fmt.Fprintf(c.out, "Jugadores conectados (%d): %s\n", len(names), strings.Join(names, ", "))
}

// Reporter prints round lifecycle events for the operator. It satisfies the
// game.Reporter interface; callbacks arrive on the round-loop goroutine.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) RoundStarted(round, total int, question domain.Question) {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "\n--- Pregunta %d/%d ---\n", round, total)
	fmt.Fprintln(r.out, question.Prompt)
	for i, choice := range question.Choices {
		fmt.Fprintf(r.out, "  %c) %s\n", domain.AnswerLetters[i], choice)
	}
}

func (r *Reporter) RoundFinished(round int, outcomes []domain.RoundOutcome, ranking domain.Ranking) {
	fmt.Fprintf(r.out, "\nResultados de la pregunta %d:\n", round)
	for _, o := range outcomes {
		switch {
		case !o.Answered:
			fmt.Fprintf(r.out, "  %-10s  sin respuesta  (%d pts)\n", o.Name, o.Total)
		case o.Correct:
			color.New(color.FgGreen).Fprintf(r.out, "  %-10s  %c correcta     (%d pts)\n", o.Name, o.Answer, o.Total)
		default:
			color.New(color.FgRed).Fprintf(r.out, "  %-10s  %c incorrecta   (%d pts)\n", o.Name, o.Answer, o.Total)
		}
	}
}

func (r *Reporter) GameFinished(ranking domain.Ranking) {
	color.New(color.FgYellow, color.Bold).Fprintln(r.out, "\nPartida terminada.")
	fmt.Fprint(r.out, formatRanking(ranking))
}

func formatRanking(ranking domain.Ranking) string {
	var sb strings.Builder
	sb.WriteString("========== RANKING ==========\n")
	for _, e := range ranking.Entries {
		fmt.Fprintf(&sb, "  #%d  %-10s  %d pts\n", e.Position, e.Name, e.Score)
	}
	sb.WriteString("=============================\n")
	return sb.String()
}
