package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get match: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(fmt.Errorf("connection refused")) {
		t.Fatalf("expected unrelated error to be ignored")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("insert player: %w", &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected foreign key violation to be ignored")
		}
	})
}

func TestNullableRoundTrip(t *testing.T) {
	if got := nullInt64Ptr(nullInt64(nil)); got != nil {
		t.Fatalf("expected nil, got %d", *got)
	}
	id := int64(42)
	if got := nullInt64Ptr(nullInt64(&id)); got == nil || *got != 42 {
		t.Fatalf("expected 42, got %v", got)
	}

	rank := 1200
	if got := nullInt32Ptr(nullInt32(&rank)); got == nil || *got != 1200 {
		t.Fatalf("expected 1200, got %v", got)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := nullTimePtr(nullTime(&at)); got == nil || !got.Equal(at) {
		t.Fatalf("expected %s, got %v", at, got)
	}

	denied := false
	if got := nullBoolPtr(nullBool(&denied)); got == nil || *got {
		t.Fatalf("expected false pointer, got %v", got)
	}
	if got := nullBoolPtr(sql.NullBool{}); got != nil {
		t.Fatalf("expected nil verdict")
	}
}
