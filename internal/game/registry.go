package game

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameLength = 10
	autoNameBase  = "juan"
)

// ErrNameDenied marks names rejected by the denylist. Callers match on it to
// distinguish a policy rejection from an ordinary validation failure.
var ErrNameDenied = errors.New("ERROR: Ese nombre no esta permitido.")

// deniedNames are rejected case-insensitively regardless of availability.
var deniedNames = map[string]struct{}{
	"admin":         {},
	"administrador": {},
	"moderador":     {},
	"root":          {},
	"server":        {},
	"servidor":      {},
	"sistema":       {},
}

// NameRegistry enforces the display-name policy and name uniqueness for one
// game session. Validation, reservation and release all run under a single
// critical section so that two concurrent registrations can never both claim
// the same name.
type NameRegistry struct {
	mu       sync.Mutex
	reserved map[string]struct{}
}

func NewNameRegistry() *NameRegistry {
	return &NameRegistry{reserved: make(map[string]struct{})}
}

// Validate checks name against the session policy without reserving it.
func (r *NameRegistry) Validate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.validateLocked(name)
}

// Reserve validates name and claims it in one atomic step.
func (r *NameRegistry) Reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.validateLocked(name); err != nil {
		return err
	}
	r.reserved[normalize(name)] = struct{}{}
	return nil
}

// ReserveAuto claims and returns the generated name: the base name if free,
// otherwise the base with the smallest free numeric suffix >= 2.
func (r *NameRegistry) ReserveAuto() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := autoNameBase
	if _, taken := r.reserved[name]; taken {
		suffix := 2
		for {
			candidate := autoNameBase + strconv.Itoa(suffix)
			if _, taken := r.reserved[candidate]; !taken {
				name = candidate
				break
			}
			suffix++
		}
	}
	r.reserved[name] = struct{}{}
	return name
}

// Release frees a reserved name. Releasing an unknown name is a no-op.
func (r *NameRegistry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reserved, normalize(name))
}

func (r *NameRegistry) validateLocked(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("ERROR: El nombre no puede estar vacio.")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return errors.New("ERROR: El nombre no puede tener mas de 10 caracteres.")
	}
	if !utf8.ValidString(trimmed) {
		return errors.New("ERROR: El nombre contiene caracteres no validos (solo UTF-8).")
	}
	if symbolsOnly(trimmed) {
		return errors.New("ERROR: El nombre no puede estar compuesto solo por simbolos.")
	}
	lower := normalize(name)
	if _, denied := deniedNames[lower]; denied {
		return ErrNameDenied
	}
	if !containsLetter(trimmed) {
		return errors.New("ERROR: El nombre debe contener al menos una letra.")
	}
	if _, taken := r.reserved[lower]; taken {
		return errors.New("ERROR: Ese nombre ya esta en uso.")
	}
	return nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func symbolsOnly(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
