package id

import (
	"strings"
	"testing"
)

func TestHexGenerator_NewID(t *testing.T) {
	gen := NewHexGenerator(8)

	first, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if len(first) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(first))
	}
	second, err := gen.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"":                      false,
		"abc-123_DEF.9":         true,
		"has space":             false,
		"newline\n":             false,
		strings.Repeat("a", 64): true,
		strings.Repeat("a", 65): false,
	}
	for raw, want := range cases {
		if got := Valid(raw); got != want {
			t.Fatalf("Valid(%q) = %t, want %t", raw, got, want)
		}
	}
}
