package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"live-quiz-service/internal/domain"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preguntas.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadQuestionSet(t *testing.T) {
	path := writeCSV(t, "pregunta;opcionA;opcionB;opcionC;opcionD;respuesta\n"+
		"Capital de Francia;Madrid;Paris;Roma;Berlin;b\n"+
		"2 + 2;3;4;5;6;B\n")

	set, err := New(path).LoadQuestionSet(context.Background(), "general")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.ID != "general" {
		t.Fatalf("set id: %q", set.ID)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(set.Questions))
	}
	q := set.Questions[0]
	if q.Prompt != "Capital de Francia" || q.Answer != "B" {
		t.Fatalf("unexpected first question: %+v", q)
	}
	if q.Choices[1] != "Paris" {
		t.Fatalf("unexpected choices: %v", q.Choices)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := writeCSV(t, "cabecera\n"+
		"sin campos suficientes;a;b\n"+
		"respuesta invalida;1;2;3;4;X\n"+
		"\n"+
		"valida;1;2;3;4;C\n")

	set, err := New(path).LoadQuestionSet(context.Background(), "general")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].Answer != "C" {
		t.Fatalf("expected only the valid line, got %+v", set.Questions)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeCSV(t, "solo cabecera\n")
	if _, err := New(path).LoadQuestionSet(context.Background(), "general"); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "nope.csv")).LoadQuestionSet(context.Background(), "general"); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}
