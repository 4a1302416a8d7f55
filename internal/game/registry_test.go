package game

import (
	"errors"
	"testing"
)

func TestReserveRejectsInvalidNames(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"too long", "supercalifragilistico"},
		{"symbols only", "!!!***"},
		{"no letter", "12345"},
	}
	for _, tc := range cases {
		r := NewNameRegistry()
		if err := r.Reserve(tc.input); err == nil {
			t.Fatalf("%s: expected rejection for %q", tc.name, tc.input)
		}
	}
}

func TestReserveDeniedNames(t *testing.T) {
	r := NewNameRegistry()
	for _, name := range []string{"admin", "ADMIN", "Servidor", "root"} {
		err := r.Reserve(name)
		if !errors.Is(err, ErrNameDenied) {
			t.Fatalf("expected ErrNameDenied for %q, got %v", name, err)
		}
	}
}

func TestReserveUniquenessCaseInsensitive(t *testing.T) {
	r := NewNameRegistry()
	if err := r.Reserve("Ana"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if err := r.Reserve("ana"); err == nil {
		t.Fatalf("expected case-insensitive collision for %q", "ana")
	}
	if err := r.Reserve("  ANA "); err == nil {
		t.Fatalf("expected trimmed collision")
	}
}

func TestReleaseFreesName(t *testing.T) {
	r := NewNameRegistry()
	if err := r.Reserve("ana"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	r.Release("ana")
	if err := r.Reserve("ana"); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
	// Releasing an unknown name must be a no-op.
	r.Release("nadie")
}

func TestReserveAutoGeneratesSuffixes(t *testing.T) {
	r := NewNameRegistry()
	if got := r.ReserveAuto(); got != "juan" {
		t.Fatalf("first auto name: got %q, want %q", got, "juan")
	}
	if got := r.ReserveAuto(); got != "juan2" {
		t.Fatalf("second auto name: got %q, want %q", got, "juan2")
	}
	if got := r.ReserveAuto(); got != "juan3" {
		t.Fatalf("third auto name: got %q, want %q", got, "juan3")
	}
	// Freeing a suffix makes it the next candidate again.
	r.Release("juan2")
	if got := r.ReserveAuto(); got != "juan2" {
		t.Fatalf("auto name after release: got %q, want %q", got, "juan2")
	}
}

func TestValidateDoesNotReserve(t *testing.T) {
	r := NewNameRegistry()
	if err := r.Validate("ana"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := r.Reserve("ana"); err != nil {
		t.Fatalf("reserve after validate: %v", err)
	}
}
