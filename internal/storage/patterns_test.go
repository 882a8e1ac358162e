package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLogSystemPatternUniqueName(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	p, err := r.LogSystemPattern(ctx, ws, SystemPatternArgs{Name: "repository", Description: "data access behind an interface"})
	if err != nil {
		t.Fatalf("LogSystemPattern: %v", err)
	}
	if p.ID == 0 {
		t.Error("Pattern ID should be assigned")
	}

	_, err = r.LogSystemPattern(ctx, ws, SystemPatternArgs{Name: "repository", Description: "again"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict for duplicate name, got %v", err)
	}
}

func TestLogSystemPatternRequiresName(t *testing.T) {
	r, ws := setupRepo(t)

	_, err := r.LogSystemPattern(context.Background(), ws, SystemPatternArgs{Name: ""})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for blank name, got %v", err)
	}
}

func TestGetSystemPatterns(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	seed := []SystemPatternArgs{
		{Name: "cqrs", Tags: []string{"architecture"}},
		{Name: "outbox", Tags: []string{"architecture", "messaging"}},
		{Name: "retry", Tags: []string{"resilience"}},
	}
	for _, args := range seed {
		if _, err := r.LogSystemPattern(ctx, ws, args); err != nil {
			t.Fatalf("LogSystemPattern: %v", err)
		}
	}

	patterns, _, err := r.GetSystemPatterns(ctx, ws, PatternFilter{TagsAny: []string{"messaging", "resilience"}}, Page{})
	if err != nil {
		t.Fatalf("GetSystemPatterns: %v", err)
	}
	if len(patterns) != 2 {
		t.Errorf("TagsAny returned %d patterns, want 2", len(patterns))
	}
}

func TestDeleteSystemPattern(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	p, err := r.LogSystemPattern(ctx, ws, SystemPatternArgs{Name: "temp"})
	if err != nil {
		t.Fatalf("LogSystemPattern: %v", err)
	}
	if err := r.DeleteSystemPatternByID(ctx, ws, p.ID); err != nil {
		t.Fatalf("DeleteSystemPatternByID: %v", err)
	}
	if err := r.DeleteSystemPatternByID(ctx, ws, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSearchSystemPatternsFTS(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	if _, err := r.LogSystemPattern(ctx, ws, SystemPatternArgs{Name: "circuit breaker", Description: "stop cascading failures"}); err != nil {
		t.Fatalf("LogSystemPattern: %v", err)
	}
	if _, err := r.LogSystemPattern(ctx, ws, SystemPatternArgs{Name: "bulkhead", Description: "isolate resources"}); err != nil {
		t.Fatalf("LogSystemPattern: %v", err)
	}

	hits, err := r.SearchSystemPatternsFTS(ctx, ws, "cascading failures", 10)
	if err != nil {
		t.Fatalf("SearchSystemPatternsFTS: %v", err)
	}
	if len(hits) != 1 || hits[0].Name != "circuit breaker" {
		t.Fatalf("Expected circuit breaker hit, got %v", hits)
	}
}
