package server

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/game"
	"live-quiz-service/internal/protocol"
)

// session is the per-connection handler state. Each accepted connection gets
// its own session and its own goroutine; all cross-session state lives in
// the Game.
type session struct {
	game   *game.Game
	player *game.Player
	remote string
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := &session{game: s.game, remote: conn.RemoteAddr().String()}

	// Players are bound at connection time: a client that never posts to
	// /registro still plays under a generated name.
	sess.player = s.game.RegisterAuto()
	log.Printf("[server] %s connected, auto-registered as %q", sess.remote, sess.player.Name())

	defer func() {
		s.game.Remove(sess.player)
		log.Printf("[server] %s disconnected, released %q", sess.remote, sess.player.Name())
	}()

	br := bufio.NewReader(conn)
	for {
		req, err := protocol.ReadRequest(br)
		if err != nil {
			log.Printf("[server] %s read error: %v", sess.remote, err)
			return
		}
		if req == nil {
			return
		}
		if _, err := conn.Write(sess.dispatch(req)); err != nil {
			log.Printf("[server] %s write error: %v", sess.remote, err)
			return
		}
	}
}

// dispatch routes one request. Method mismatches answer 400, unknown paths
// 404; everything else is delegated to the per-route handlers.
func (s *session) dispatch(req *protocol.Request) []byte {
	switch req.Path {
	case "/registro":
		if req.Method != "POST" {
			return protocol.BadRequest("Metodo no permitido. Use POST.")
		}
		return s.handleRegister(strings.TrimSpace(req.Body))
	case "/pregunta":
		if req.Method != "GET" {
			return protocol.BadRequest("Metodo no permitido. Use GET.")
		}
		return s.handleQuestion()
	case "/respuesta":
		if req.Method != "POST" {
			return protocol.BadRequest("Metodo no permitido. Use POST.")
		}
		return s.handleAnswer(req.Body)
	case "/ranking":
		if req.Method != "GET" {
			return protocol.BadRequest("Metodo no permitido. Use GET.")
		}
		return s.handleRanking()
	case "/estado":
		if req.Method != "GET" {
			return protocol.BadRequest("Metodo no permitido. Use GET.")
		}
		return s.handleState()
	case "/esperando":
		if req.Method != "GET" {
			return protocol.BadRequest("Metodo no permitido. Use GET.")
		}
		return s.handleWaiting()
	default:
		return protocol.NotFound("Ruta no encontrada: " + req.Path)
	}
}

func (s *session) handleRegister(name string) []byte {
	if s.player != nil {
		return protocol.BadRequest("Ya estas registrado como: " + s.player.Name())
	}

	// An empty explicit registration falls back to a generated name.
	if name == "" {
		s.player = s.game.RegisterAuto()
		return protocol.OK("REGISTRO_OK:" + s.player.Name())
	}

	p, err := s.game.Register(name)
	if err != nil {
		return protocol.Forbidden(err.Error())
	}
	s.player = p
	log.Printf("[server] %s registered as %q", s.remote, p.Name())
	return protocol.OK("REGISTRO_OK:" + p.Name())
}

func (s *session) handleQuestion() []byte {
	if s.player == nil {
		return protocol.Forbidden("Debes registrarte primero.")
	}

	switch s.game.Phase() {
	case game.PhaseLobby:
		return protocol.OK("ESTADO:ESPERANDO")
	case game.PhaseFinished:
		return protocol.OK("ESTADO:TERMINADA")
	}

	q, round, total, ok := s.game.CurrentQuestion()
	if !ok {
		return protocol.OK("ESTADO:SIN_PREGUNTA")
	}
	return protocol.OK(formatQuestion(q, round, total))
}

func formatQuestion(q domain.Question, round, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PREGUNTA:%d/%d\n", round, total)
	fmt.Fprintf(&sb, "PREGUNTA: %s\n", q.Prompt)
	for i, choice := range q.Choices {
		fmt.Fprintf(&sb, "%c) %s\n", domain.AnswerLetters[i], choice)
	}
	return sb.String()
}

func (s *session) handleAnswer(body string) []byte {
	if s.player == nil {
		return protocol.Forbidden("Debes registrarte primero.")
	}

	letter, err := s.game.SubmitAnswer(s.player, body)
	switch {
	case err == nil:
		log.Printf("[server] %q answered %c", s.player.Name(), letter)
		return protocol.OK("RESPUESTA_OK:" + string(letter))
	case errors.Is(err, domain.ErrGameNotActive):
		return protocol.BadRequest("La partida no esta en curso.")
	case errors.Is(err, domain.ErrEmptyAnswer):
		return protocol.BadRequest("Respuesta vacia.")
	case errors.Is(err, domain.ErrInvalidAnswer):
		return protocol.BadRequest("Respuesta invalida. Debe ser A, B, C o D.")
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return protocol.BadRequest("Ya has respondido a esta pregunta.")
	default:
		return protocol.BadRequest(err.Error())
	}
}

func (s *session) handleRanking() []byte {
	if s.player == nil {
		return protocol.Forbidden("Debes registrarte primero.")
	}
	return protocol.OK(s.game.FormatRanking())
}

func (s *session) handleState() []byte {
	if s.player == nil {
		return protocol.Forbidden("Debes registrarte primero.")
	}
	switch s.game.Phase() {
	case game.PhaseFinished:
		return protocol.OK("ESTADO:TERMINADA")
	case game.PhaseActive:
		return protocol.OK("ESTADO:EN_CURSO")
	default:
		return protocol.OK("ESTADO:ESPERANDO")
	}
}

func (s *session) handleWaiting() []byte {
	if s.player == nil {
		return protocol.Forbidden("Debes registrarte primero.")
	}
	if s.game.Phase() != game.PhaseLobby {
		return protocol.OK("ESTADO:INICIADA")
	}
	return protocol.OK("ESPERANDO:" + strings.Join(s.game.PlayerNames(), ","))
}
