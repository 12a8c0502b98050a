package caption

import (
	"context"
	"errors"
	"testing"

	"studio/internal/domain"
)

func TestStaticSuggesterLocales(t *testing.T) {
	s := NewStaticSuggester()

	got, err := s.Suggest(context.Background(), "café da manhã saudável", "pt-BR", 3)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 options, got %d", len(got))
	}
	if got[0].Tag != "dica rápida" {
		t.Errorf("tag = %q", got[0].Tag)
	}
	if got[0].CTA != "SAIBA MAIS" {
		t.Errorf("cta = %q", got[0].CTA)
	}
	if got[0].Headline == "" {
		t.Error("empty headline")
	}

	en, err := s.Suggest(context.Background(), "morning routine", "en-US", 1)
	if err != nil {
		t.Fatalf("suggest en: %v", err)
	}
	if en[0].Headline != "Morning Routine" {
		t.Errorf("headline = %q, want title case", en[0].Headline)
	}
}

func TestStaticSuggesterUnknownLocaleFallsBackToEnglish(t *testing.T) {
	s := NewStaticSuggester()
	got, err := s.Suggest(context.Background(), "weekend sale", "fr-FR", 1)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if got[0].CTA != "LEARN MORE" {
		t.Errorf("cta = %q", got[0].CTA)
	}
}

func TestStaticSuggesterRejectsEmptyPrompt(t *testing.T) {
	s := NewStaticSuggester()
	if _, err := s.Suggest(context.Background(), "   ", "en", 3); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("err = %v, want ErrInvalidPrompt", err)
	}
}

func TestStaticSuggesterClampsOptions(t *testing.T) {
	s := NewStaticSuggester()
	got, err := s.Suggest(context.Background(), "sale", "en", 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected clamp to 3, got %d", len(got))
	}
}
