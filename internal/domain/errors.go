package domain

import "errors"

var (
	// ErrAlreadyRegistered is returned when a connection tries to register twice.
	ErrAlreadyRegistered = errors.New("player already registered")
	// ErrNotRegistered is returned when a request arrives before a player is bound.
	ErrNotRegistered = errors.New("player not registered")
	// ErrGameNotActive is returned for answers outside the Active phase.
	ErrGameNotActive = errors.New("game not in progress")
	// ErrAlreadyAnswered is returned when a player answers the same round twice.
	ErrAlreadyAnswered = errors.New("already answered this round")
	// ErrEmptyAnswer is returned for an answer submission with an empty body.
	ErrEmptyAnswer = errors.New("empty answer")
	// ErrInvalidAnswer is returned for answer letters outside A-D.
	ErrInvalidAnswer = errors.New("invalid answer letter")
	// ErrAlreadyStarted is returned when the operator starts a running game.
	ErrAlreadyStarted = errors.New("game already started")
	// ErrNoPlayers is returned when the operator starts an empty lobby.
	ErrNoPlayers = errors.New("no players connected")
	// ErrSetNotFound indicates the question set could not be loaded.
	ErrSetNotFound = errors.New("question set not found")
	// ErrNoQuestions indicates the loaded question set is empty.
	ErrNoQuestions = errors.New("question set has no questions")
)
